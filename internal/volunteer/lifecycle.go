// Package volunteer implements the volunteer application lifecycle.
//
// A user starts outside the volunteer pool (StatusNone). Submitting a request
// moves them to pending; admins then approve, reject, hold or revoke. Apply is
// pure: it mutates a Record in memory and callers persist the result.
package volunteer

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusNone     Status = ""
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusHold     Status = "hold"
	StatusRevoked  Status = "revoked"
)

type Action string

const (
	ActionRequest Action = "request"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionHold    Action = "hold"
	ActionRevoke  Action = "revoke"
)

const (
	DefaultRejectReason = "No reason provided"
	DefaultRevokeReason = "Volunteer status revoked"
)

var (
	ErrInvalidTransition = errors.New("volunteer status transition not allowed")
	ErrNotesRequired     = errors.New("admin notes are required to put an application on hold")
	ErrUnknownAction     = errors.New("unknown volunteer action")
)

// allowedFrom lists the source states each action accepts.
var allowedFrom = map[Action][]Status{
	ActionRequest: {StatusNone, StatusPending, StatusRejected, StatusHold, StatusRevoked},
	ActionApprove: {StatusPending, StatusHold, StatusRevoked},
	ActionReject:  {StatusPending, StatusHold, StatusApproved},
	ActionHold:    {StatusPending, StatusApproved, StatusRejected},
	ActionRevoke:  {StatusPending, StatusApproved, StatusRejected, StatusHold},
}

// Options carry the admin-supplied reason and notes for a transition.
type Options struct {
	Reason string
	Notes  string
}

// Record is the volunteer slice of a user row.
type Record struct {
	IsVolunteer     bool
	Verified        bool
	Status          Status
	RequestedAt     *time.Time
	VerifiedAt      *time.Time
	RejectedAt      *time.Time
	HeldAt          *time.Time
	RejectionReason string
	AdminNotes      string
}

// ParseStatus accepts the five named statuses. "none" maps to StatusNone.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusHold, StatusRevoked:
		return st, true
	case "none":
		return StatusNone, true
	}
	return "", false
}

// ParseAction returns the Action named by s.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := allowedFrom[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// LogAction is the history tag recorded for a transition.
func (a Action) LogAction() string {
	switch a {
	case ActionRequest:
		return "volunteer_requested"
	case ActionApprove:
		return "volunteer_approved"
	case ActionReject:
		return "volunteer_rejected"
	case ActionHold:
		return "volunteer_held"
	case ActionRevoke:
		return "volunteer_revoked"
	}
	return "volunteer_" + string(a)
}

// Allowed reports whether action may be applied to a record in state from.
func Allowed(from Status, action Action) bool {
	for _, s := range allowedFrom[action] {
		if s == from {
			return true
		}
	}
	return false
}

// Apply moves r through action. r is left untouched when an error is returned.
func Apply(r *Record, action Action, opts Options, now time.Time) error {
	if _, ok := allowedFrom[action]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if action == ActionHold && opts.Notes == "" {
		return ErrNotesRequired
	}
	if !Allowed(r.Status, action) {
		return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, r.Status.label())
	}

	ts := now
	switch action {
	case ActionRequest:
		r.Status = StatusPending
		r.IsVolunteer = true
		r.Verified = false
		r.RequestedAt = &ts
		r.RejectionReason = ""
		r.RejectedAt = nil
		r.HeldAt = nil
	case ActionApprove:
		r.Status = StatusApproved
		r.IsVolunteer = true
		r.Verified = true
		r.VerifiedAt = &ts
		r.RejectedAt = nil
		r.HeldAt = nil
		r.RejectionReason = ""
		r.AdminNotes = opts.Notes
	case ActionReject:
		r.Status = StatusRejected
		r.Verified = false
		r.RejectedAt = &ts
		r.RejectionReason = orDefault(opts.Reason, DefaultRejectReason)
		r.VerifiedAt = nil
		r.HeldAt = nil
		r.AdminNotes = opts.Notes
	case ActionHold:
		r.Status = StatusHold
		r.Verified = false
		r.HeldAt = &ts
		r.VerifiedAt = nil
		r.RejectedAt = nil
		r.RejectionReason = ""
		r.AdminNotes = opts.Notes
	case ActionRevoke:
		r.Status = StatusRevoked
		r.IsVolunteer = false
		r.Verified = false
		r.RejectionReason = orDefault(opts.Reason, DefaultRevokeReason)
		r.VerifiedAt = nil
		r.RejectedAt = nil
		r.HeldAt = nil
		if opts.Notes != "" {
			r.AdminNotes = opts.Notes
		}
	}
	return nil
}

func (s Status) label() string {
	if s == StatusNone {
		return "none"
	}
	return string(s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
