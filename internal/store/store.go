package store

import (
	"time"

	"gorm.io/gorm"

	"mutual_aid/internal/models"
)

// Store groups the per-table stores over one database handle.
type Store struct {
	db *gorm.DB

	History   *History
	Users     *UserStore
	Posts     *Entity[models.Post]
	Donations *Entity[models.Donation]
	Events    *Entity[models.Event]
	Incidents *IncidentStore
	Learning  *Entity[models.LearningSession]
	Emergency *EmergencyStore
	Messages  *MessageStore
}

// New wires every store. historyEnabled false turns audit writes into no-ops.
func New(db *gorm.DB, historyEnabled bool) *Store {
	history := NewHistory(db, historyEnabled)
	return &Store{
		db:        db,
		History:   history,
		Users:     &UserStore{db: db, history: history, now: time.Now},
		Posts:     newEntity(db, history, postDef),
		Donations: newEntity(db, history, donationDef),
		Events:    newEntity(db, history, eventDef),
		Incidents: &IncidentStore{Entity: newEntity(db, history, incidentDef)},
		Learning:  newEntity(db, history, learningDef),
		Emergency: &EmergencyStore{db: db},
		Messages:  &MessageStore{db: db, history: history, now: time.Now},
	}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }
