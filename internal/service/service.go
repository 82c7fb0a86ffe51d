// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// Every operation acting on behalf of a user takes an explicit
// auth.Identity; nothing reads the caller from ambient state.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Transactor runs fn atomically. Store calls made with the context passed to
// fn join the transaction; an error from fn rolls everything back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate locks the event row until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Event, error)
	// ListByIDs skips ids with no live event.
	ListByIDs(ctx context.Context, ids []string) ([]model.Event, error)
	// Delete hides the event from every read as of at.
	Delete(ctx context.Context, id string, at time.Time) error
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	// SumLiveTickets totals non-cancelled registrations of eventID, leaving
	// out excludeID when it is non-empty.
	SumLiveTickets(ctx context.Context, eventID, excludeID string) (int, error)
	ExistsForUser(ctx context.Context, userID, eventID string) (bool, error)
	TicketReferenceExists(ctx context.Context, ref string) (bool, error)
	// Create returns model.ErrTicketReferenceTaken or
	// model.ErrAlreadyRegistered on the matching uniqueness clash.
	Create(ctx context.Context, reg *model.Registration) error
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	// GetForUpdate locks the registration row until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*model.Registration, error)
	GetByTicketReference(ctx context.Context, ref string) (*model.Registration, error)
	// UpdateState persists Status, PaymentStatus and UpdatedAt only.
	UpdateState(ctx context.Context, reg *model.Registration) error
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	// CountByEvents omits events that have no registrations.
	CountByEvents(ctx context.Context, eventIDs []string) (map[string]model.RegistrationCounts, error)
}

// CategoryStore reads categories.
type CategoryStore interface {
	ListActive(ctx context.Context) ([]model.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Geocoder resolves an address. It reports false instead of failing.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, bool)
}

// validID reports whether id is a well-formed UUID. Malformed ids are
// treated as unknown resources without a database round trip.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
