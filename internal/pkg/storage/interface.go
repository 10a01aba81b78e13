package storage

import (
	"context"
	"errors"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

var (
	// ErrEventNotFound is returned when no event exists for the requested id.
	ErrEventNotFound = errors.New("event not found")
	// ErrOutcomeAlreadySet is returned when an event already has a final result.
	ErrOutcomeAlreadySet = errors.New("outcome already set")
)

// EventStore persists events keyed by event id. Every call is a separate round trip;
// there are no transactions spanning calls.
type EventStore interface {
	// FindEvent returns the stored event or ErrEventNotFound.
	FindEvent(ctx context.Context, eventID string) (*models.Event, error)

	// InsertEvent stores ev if no event with the same id exists.
	// Returns true if the record was newly inserted, false if it already existed.
	InsertEvent(ctx context.Context, ev *models.Event) (bool, error)

	// AppendSnapshot pushes one snapshot onto the event's line history.
	AppendSnapshot(ctx context.Context, eventID string, snap models.LineSnapshot) error

	// FreezeEvent closes the line history; AppendSnapshot is not called for frozen events.
	FreezeEvent(ctx context.Context, eventID string) error

	// SetIdentity fills blank identity fields; fields that are already set are left alone.
	SetIdentity(ctx context.Context, id models.Identity) error

	// SetBettingChoices overwrites the operator's bet decisions.
	SetBettingChoices(ctx context.Context, eventID string, choices models.BettingChoices) error

	// SetOutcome records the final result once; later calls return ErrOutcomeAlreadySet.
	SetOutcome(ctx context.Context, eventID string, outcome models.Outcome) error

	// Close closes the underlying connection
	Close() error
}
