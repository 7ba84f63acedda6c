package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mutual_aid/internal/models"
)

const newestFirst = "created_at DESC, id DESC"

// priorityWeights ranks post priorities for the smart ordering.
var priorityWeights = map[string]int{
	"emergency": 3,
	"urgent":    3,
	"high":      3,
	"medium":    2,
	"low":       1,
}

// PriorityWeight returns the smart-sort rank of a post priority. Unknown
// priorities rank last.
func PriorityWeight(priority string) int {
	return priorityWeights[strings.ToLower(strings.TrimSpace(priority))]
}

// smartOrder ranks posts by priority weight, then recency.
func smartOrder() string {
	keys := make([]string, 0, len(priorityWeights))
	for k := range priorityWeights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("CASE lower(priority)")
	for _, k := range keys {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", k, priorityWeights[k])
	}
	b.WriteString(" ELSE 0 END DESC, " + newestFirst)
	return b.String()
}

var postDef = entityDef[models.Post]{
	label:       "post",
	ownerColumn: "owner_id",
	statuses:    models.PostStatuses,
	patchable:   []string{"title", "description", "category", "priority", "location", "contact_info", "type", "status"},
	enums:       map[string][]string{"type": models.PostTypes},
	rules:       PostFilters,
	orders:      map[string]string{"": newestFirst, "newest": newestFirst, "smart": smartOrder()},
	preload:     []string{"Owner"},
	id:          func(p *models.Post) uint { return p.ID },
	meta: func(p *models.Post) models.LogMeta {
		return models.LogMeta{Title: p.Title, Type: p.Type, Category: p.Category}
	},
}

var donationDef = entityDef[models.Donation]{
	label:       "donation",
	ownerColumn: "owner_id",
	statuses:    models.DonationStatuses,
	patchable:   []string{"kind", "description", "location", "contact", "status"},
	enums:       map[string][]string{"kind": models.DonationKinds},
	rules:       DonationFilters,
	orders:      map[string]string{"": newestFirst},
	preload:     []string{"Owner"},
	id:          func(d *models.Donation) uint { return d.ID },
	meta: func(d *models.Donation) models.LogMeta {
		return models.LogMeta{Type: d.Kind}
	},
}

var eventDef = entityDef[models.Event]{
	label:       "event",
	ownerColumn: "owner_id",
	statuses:    models.EventStatuses,
	patchable:   []string{"title", "description", "start_at", "end_at", "location", "status"},
	rules:       EventFilters,
	orders:      map[string]string{"": "start_at ASC, id ASC", "newest": newestFirst},
	preload:     []string{"Owner"},
	id:          func(e *models.Event) uint { return e.ID },
	meta: func(e *models.Event) models.LogMeta {
		return models.LogMeta{Title: e.Title}
	},
}

var incidentDef = entityDef[models.Incident]{
	label:       "incident",
	ownerColumn: "reporter_id",
	statuses:    models.IncidentStatuses,
	patchable:   []string{"title", "description", "category", "severity", "location", "contact_info", "resolution_notes", "geometry"},
	enums: map[string][]string{
		"category": models.IncidentCategories,
		"severity": models.IncidentSeverities,
	},
	rules:   IncidentFilters,
	orders:  map[string]string{"": newestFirst},
	preload: []string{"Reporter"},
	id:      func(i *models.Incident) uint { return i.ID },
	meta: func(i *models.Incident) models.LogMeta {
		return models.LogMeta{Title: i.Title, Category: i.Category}
	},
	onStatus: func(status string, actorID uint, now time.Time) map[string]interface{} {
		if status == "resolved" || status == "closed" {
			return map[string]interface{}{"resolved_at": now, "resolved_by": actorID}
		}
		return map[string]interface{}{"resolved_at": nil, "resolved_by": nil}
	},
}

var learningDef = entityDef[models.LearningSession]{
	label:       "learning",
	ownerColumn: "owner_id",
	statuses:    models.LearningStatuses,
	patchable:   []string{"title", "description", "subject", "level", "session_type", "location", "contact_info", "status"},
	enums: map[string][]string{
		"level":        models.LearningLevels,
		"session_type": models.LearningTypes,
	},
	rules:   LearningFilters,
	orders:  map[string]string{"": newestFirst},
	preload: []string{"Owner"},
	id:      func(l *models.LearningSession) uint { return l.ID },
	meta: func(l *models.LearningSession) models.LogMeta {
		return models.LogMeta{Title: l.Title, Type: l.SessionType}
	},
}
