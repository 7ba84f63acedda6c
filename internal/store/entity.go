package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mutual_aid/internal/models"
)

// Patch holds column -> value pairs for a partial update.
type Patch map[string]interface{}

// entityDef describes one content table: its owner column, status enum,
// patchable columns, enum-valued columns, filters and orderings.
type entityDef[T any] struct {
	label       string
	ownerColumn string
	statuses    []string
	patchable   []string
	enums       map[string][]string
	rules       []FilterRule
	orders      map[string]string
	preload     []string
	id          func(*T) uint
	meta        func(*T) models.LogMeta
	// onStatus returns extra columns written alongside a status change.
	onStatus func(status string, actorID uint, now time.Time) map[string]interface{}
}

// Entity implements create/list/update/delete for one content table.
type Entity[T any] struct {
	db      *gorm.DB
	history *History
	def     entityDef[T]
	now     func() time.Time
}

func newEntity[T any](db *gorm.DB, history *History, def entityDef[T]) *Entity[T] {
	return &Entity[T]{db: db, history: history, def: def, now: time.Now}
}

// Statuses lists the status values accepted by UpdateStatus.
func (e *Entity[T]) Statuses() []string { return e.def.statuses }

// Create inserts rec and returns its id. actorID is nil for anonymous records.
func (e *Entity[T]) Create(ctx context.Context, rec *T, actorID *uint) (uint, error) {
	if err := e.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("create %s: %w", e.def.label, err)
	}
	id := e.def.id(rec)
	if actorID != nil {
		meta := e.logMeta(rec, id)
		e.audit(ctx, *actorID, e.def.label+"_created", meta)
	}
	return id, nil
}

// List returns the rows matching q in the entity's default or requested order.
func (e *Entity[T]) List(ctx context.Context, q ListQuery) ([]T, error) {
	tx := applyFilters(e.db.WithContext(ctx).Model(new(T)), q.Filters, e.def.rules)
	for _, assoc := range e.def.preload {
		tx = tx.Preload(assoc)
	}
	order, ok := e.def.orders[q.Sort]
	if !ok {
		order = e.def.orders[""]
	}
	tx = tx.Order(order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", e.def.label, err)
	}
	return out, nil
}

// Get loads one row with its associations.
func (e *Entity[T]) Get(ctx context.Context, id uint) (*T, error) {
	tx := e.db.WithContext(ctx)
	for _, assoc := range e.def.preload {
		tx = tx.Preload(assoc)
	}
	rec := new(T)
	if err := tx.First(rec, id).Error; err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

// UpdateStatus sets the status column. It reports false when no row matched.
func (e *Entity[T]) UpdateStatus(ctx context.Context, id uint, status string, actorID uint) (bool, error) {
	if !contains(e.def.statuses, status) {
		return false, ErrInvalidStatus
	}
	cols := map[string]interface{}{"status": status}
	if e.def.onStatus != nil {
		for k, v := range e.def.onStatus(status, actorID, e.now()) {
			cols[k] = v
		}
	}
	res := e.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return false, fmt.Errorf("update %s status: %w", e.def.label, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	e.audit(ctx, actorID, e.def.label+"_status_updated", models.LogMeta{EntityID: models.UintPtr(id), Status: status})
	return true, nil
}

// UpdateFields patches a row owned by ownerID. It reports false when the row
// is missing or belongs to someone else.
func (e *Entity[T]) UpdateFields(ctx context.Context, id, ownerID uint, patch Patch) (bool, error) {
	return e.updateFields(ctx, id, &ownerID, ownerID, patch)
}

// UpdateFieldsAny patches a row regardless of owner.
func (e *Entity[T]) UpdateFieldsAny(ctx context.Context, id, actorID uint, patch Patch) (bool, error) {
	return e.updateFields(ctx, id, nil, actorID, patch)
}

func (e *Entity[T]) updateFields(ctx context.Context, id uint, ownerID *uint, actorID uint, patch Patch) (bool, error) {
	cols, err := e.clean(patch)
	if err != nil {
		return false, err
	}
	tx := e.db.WithContext(ctx).Model(new(T)).Where("id = ?", id)
	if ownerID != nil {
		tx = tx.Where(e.def.ownerColumn+" = ?", *ownerID)
	}
	res := tx.Updates(map[string]interface{}(cols))
	if res.Error != nil {
		return false, fmt.Errorf("update %s: %w", e.def.label, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	e.audit(ctx, actorID, e.def.label+"_updated", models.LogMeta{EntityID: models.UintPtr(id), ChangedFields: sortedKeys(cols)})
	return true, nil
}

// Delete removes a row owned by ownerID.
func (e *Entity[T]) Delete(ctx context.Context, id, ownerID uint) (bool, error) {
	return e.delete(ctx, id, &ownerID, ownerID)
}

// DeleteAny removes a row regardless of owner.
func (e *Entity[T]) DeleteAny(ctx context.Context, id, actorID uint) (bool, error) {
	return e.delete(ctx, id, nil, actorID)
}

func (e *Entity[T]) delete(ctx context.Context, id uint, ownerID *uint, actorID uint) (bool, error) {
	tx := e.db.WithContext(ctx).Where("id = ?", id)
	if ownerID != nil {
		tx = tx.Where(e.def.ownerColumn+" = ?", *ownerID)
	}
	res := tx.Delete(new(T))
	if res.Error != nil {
		return false, fmt.Errorf("delete %s: %w", e.def.label, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	e.audit(ctx, actorID, e.def.label+"_deleted", models.LogMeta{EntityID: models.UintPtr(id)})
	return true, nil
}

// clean keeps patchable columns and validates enum-valued ones.
func (e *Entity[T]) clean(patch Patch) (Patch, error) {
	out := Patch{}
	for _, col := range e.def.patchable {
		v, ok := patch[col]
		if !ok {
			continue
		}
		if col == "status" {
			if s, _ := v.(string); !contains(e.def.statuses, s) {
				return nil, ErrInvalidStatus
			}
		}
		if values, isEnum := e.def.enums[col]; isEnum {
			if s, _ := v.(string); !contains(values, s) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidValue, col)
			}
		}
		out[col] = v
	}
	if len(out) == 0 {
		return nil, ErrNothingToUpdate
	}
	return out, nil
}

func (e *Entity[T]) logMeta(rec *T, id uint) models.LogMeta {
	var meta models.LogMeta
	if e.def.meta != nil {
		meta = e.def.meta(rec)
	}
	meta.EntityID = models.UintPtr(id)
	return meta
}

// audit appends a history entry. Failures are logged and swallowed.
func (e *Entity[T]) audit(ctx context.Context, actorID uint, action string, meta models.LogMeta) {
	if e.history == nil || actorID == 0 {
		return
	}
	if _, err := e.history.Append(ctx, actorID, action, meta); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":  action,
			"user_id": actorID,
		}).Warn("history append failed")
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys(p Patch) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
