package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/middleware"
	"mutual_aid/internal/store"
)

// resource implements the list/status/update/delete handlers shared by the
// content entities. Writes are allowed to the owner or an admin.
type resource[T any] struct {
	store   EntityStore[T]
	label   string // "Post", used in 404 messages
	param   string // path parameter holding the id
	rules   []store.FilterRule
	ownerOf func(*T) *uint

	// checkPatch, when set, validates a patch against the stored record.
	checkPatch func(current *T, patch store.Patch) error
}

// list answers GET with the filtered rows under key.
func (r *resource[T]) list(c *gin.Context, key string, render func([]T) interface{}) {
	filters, err := store.FiltersFromQuery(c.Request.URL.Query(), r.rules)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	rows, err := r.store.List(c.Request.Context(), store.ListQuery{
		Filters: filters,
		Sort:    c.Query("sort"),
		Limit:   queryLimit(c, defaultListLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	var out interface{} = rows
	if render != nil {
		out = render(rows)
	}
	c.JSON(http.StatusOK, gin.H{key: out})
}

// load reads the record named by the path parameter, answering 400/404 itself.
func (r *resource[T]) load(c *gin.Context) (uint, *T, bool) {
	id, ok := parseIDParam(c, r.param, r.label)
	if !ok {
		return 0, nil, false
	}
	rec, err := r.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.notFound(c)
			return 0, nil, false
		}
		respondError(c, err)
		return 0, nil, false
	}
	return id, rec, true
}

// authorize loads the record and checks the caller owns it or is an admin.
// It reports whether the caller acts as owner.
func (r *resource[T]) authorize(c *gin.Context) (id uint, asOwner bool, ok bool) {
	id, _, asOwner, ok = r.authorizeRecord(c)
	return id, asOwner, ok
}

func (r *resource[T]) authorizeRecord(c *gin.Context) (uint, *T, bool, bool) {
	id, rec, ok := r.load(c)
	if !ok {
		return 0, nil, false, false
	}
	me := currentUser(c)
	if owner := r.ownerOf(rec); owner != nil && *owner == me.ID {
		return id, rec, true, true
	}
	if me.IsAdmin() {
		return id, rec, false, true
	}
	c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	return 0, nil, false, false
}

func (r *resource[T]) setStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Status is required")
		return
	}
	id, _, ok := r.authorize(c)
	if !ok {
		return
	}
	updated, err := r.store.UpdateStatus(c.Request.Context(), id, body.Status, currentUser(c).ID)
	r.finish(c, updated, err, "Status updated")
}

// update applies patch as the owner, or as an admin on someone else's row.
func (r *resource[T]) update(c *gin.Context, patch store.Patch) {
	id, rec, asOwner, ok := r.authorizeRecord(c)
	if !ok {
		return
	}
	if r.checkPatch != nil {
		if err := r.checkPatch(rec, patch); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	me := currentUser(c)
	var (
		updated bool
		err     error
	)
	if asOwner {
		updated, err = r.store.UpdateFields(c.Request.Context(), id, me.ID, patch)
	} else {
		updated, err = r.store.UpdateFieldsAny(c.Request.Context(), id, me.ID, patch)
	}
	r.finish(c, updated, err, "Updated")
}

func (r *resource[T]) remove(c *gin.Context) {
	id, asOwner, ok := r.authorize(c)
	if !ok {
		return
	}
	me := currentUser(c)
	var (
		deleted bool
		err     error
	)
	if asOwner {
		deleted, err = r.store.Delete(c.Request.Context(), id, me.ID)
	} else {
		deleted, err = r.store.DeleteAny(c.Request.Context(), id, me.ID)
	}
	r.finish(c, deleted, err, "Deleted")
}

// adminRemove deletes regardless of owner. Routes guard it with RequireRole.
func (r *resource[T]) adminRemove(c *gin.Context) {
	id, ok := parseIDParam(c, r.param, r.label)
	if !ok {
		return
	}
	deleted, err := r.store.DeleteAny(c.Request.Context(), id, currentUser(c).ID)
	r.finish(c, deleted, err, r.label+" deleted successfully")
}

func (r *resource[T]) finish(c *gin.Context, changed bool, err error, msg string) {
	switch {
	case err != nil:
		respondError(c, err)
	case !changed:
		r.notFound(c)
	default:
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func (r *resource[T]) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": r.label + " not found"})
}

// ownerPtr adapts a required owner column to the optional form.
func ownerPtr(id uint) *uint { return &id }

// creator returns the caller's id for records that may be anonymous.
func creator(c *gin.Context) *uint {
	if me, ok := middleware.CurrentUser(c); ok {
		return ownerPtr(me.ID)
	}
	return nil
}
