package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// RegistrationService owns the registration ledger: booking tickets, the
// payment and cancellation lifecycle, and organizer overrides.
type RegistrationService struct {
	tx            Transactor
	events        EventStore
	registrations RegistrationStore
	clock         clock.Clock
	log           *slog.Logger
	newReference  TicketReferenceFunc
}

// RegistrationOption configures a RegistrationService.
type RegistrationOption func(*RegistrationService)

// WithTicketReferences replaces the random ticket reference source.
func WithTicketReferences(fn TicketReferenceFunc) RegistrationOption {
	return func(s *RegistrationService) {
		if fn != nil {
			s.newReference = fn
		}
	}
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	tx Transactor,
	events EventStore,
	registrations RegistrationStore,
	clk clock.Clock,
	log *slog.Logger,
	opts ...RegistrationOption,
) *RegistrationService {
	s := &RegistrationService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		clock:         clk,
		log:           log,
		newReference:  NewTicketReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxTicketsPerRegistration is the largest ticket count the ledger column
// can hold.
const maxTicketsPerRegistration = math.MaxInt32

// Register books req.NumberOfTickets for the caller. The duplicate check, the
// capacity check and the insert run in one transaction holding the event
// row lock, so concurrent bookings cannot oversell.
func (s *RegistrationService) Register(ctx context.Context, id auth.Identity, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if req.NumberOfTickets < 1 {
		return nil, model.NewValidationError("number_of_tickets", "must be at least 1")
	}
	if req.NumberOfTickets > maxTicketsPerRegistration {
		return nil, model.NewValidationError("number_of_tickets", "must be at most %d", maxTicketsPerRegistration)
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return nil, model.NewValidationError("payment_method", "must be %q or %q", model.PaymentCard, model.PaymentBankTransfer)
	}
	if !validID(eventID) {
		return nil, model.ErrEventNotFound
	}

	now := s.clock.Now()
	var reg *model.Registration

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsFree() && req.PaymentMethod == "" {
			return model.NewValidationError("payment_method", "is required for paid events")
		}

		if event.Price > 0 && int64(req.NumberOfTickets) > math.MaxInt64/event.Price {
			return model.NewValidationError("number_of_tickets", "total price is too large")
		}

		exists, err := s.registrations.ExistsForUser(ctx, id.UserID, event.ID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrAlreadyRegistered
		}

		booked, err := s.registrations.SumLiveTickets(ctx, event.ID, "")
		if err != nil {
			return err
		}
		if err := CanRegister(event, booked, req.NumberOfTickets, now); err != nil {
			return err
		}

		r := &model.Registration{
			UserID:          id.UserID,
			EventID:         event.ID,
			NumberOfTickets: req.NumberOfTickets,
			Status:          model.RegistrationPending,
			PaymentStatus:   model.PaymentPending,
			PaymentAmount:   event.Price * int64(req.NumberOfTickets),
			PaymentMethod:   req.PaymentMethod,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if event.IsFree() {
			r.PaymentStatus = model.PaymentPaid
		}
		if err := s.insertWithReference(ctx, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration created",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", reg.EventID),
		slog.String("user_id", reg.UserID),
		slog.Int("tickets", reg.NumberOfTickets),
	)
	return reg, nil
}

// insertWithReference allocates a unique ticket reference and inserts reg.
// Existence is checked first; a clash at insert time is retried as well.
func (s *RegistrationService) insertWithReference(ctx context.Context, reg *model.Registration) error {
	for range maxTicketReferenceAttempts {
		ref, err := s.newReference()
		if err != nil {
			return err
		}
		taken, err := s.registrations.TicketReferenceExists(ctx, ref)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		reg.TicketReference = ref
		err = s.registrations.Create(ctx, reg)
		if errors.Is(err, model.ErrTicketReferenceTaken) {
			continue
		}
		return err
	}
	return model.ErrTicketReferenceExhausted
}

// Cancel releases the caller's registration. Only the owner may cancel and a
// cancelled registration cannot be cancelled again.
func (s *RegistrationService) Cancel(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	reg, err := s.transition(ctx, id, registrationID, func(reg *model.Registration) error {
		if reg.Status == model.RegistrationCancelled {
			return model.ErrAlreadyCancelled
		}
		reg.Status = model.RegistrationCancelled
		reg.PaymentStatus = model.PaymentRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "registration cancelled", slog.String("registration_id", reg.ID))
	return reg, nil
}

// ProcessPayment marks the caller's registration paid and confirmed.
func (s *RegistrationService) ProcessPayment(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	reg, err := s.transition(ctx, id, registrationID, func(reg *model.Registration) error {
		if reg.PaymentStatus == model.PaymentPaid {
			return model.ErrAlreadyPaid
		}
		if reg.Status == model.RegistrationCancelled {
			return model.ErrRegistrationCancelled
		}
		reg.Status = model.RegistrationConfirmed
		reg.PaymentStatus = model.PaymentPaid
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "registration paid",
		slog.String("registration_id", reg.ID),
		slog.Int64("amount", reg.PaymentAmount),
	)
	return reg, nil
}

// transition applies an owner-initiated state change under a row lock.
func (s *RegistrationService) transition(ctx context.Context, id auth.Identity, registrationID string, apply func(*model.Registration) error) (*model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if !validID(registrationID) {
		return nil, model.ErrRegistrationNotFound
	}

	var out *model.Registration
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		reg, err := s.registrations.GetForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, auth.ActionMutateRegistration, auth.Resource{OwnerID: reg.UserID}); err != nil {
			return err
		}
		if err := apply(reg); err != nil {
			return err
		}
		reg.UpdatedAt = s.clock.Now()
		if err := s.registrations.UpdateState(ctx, reg); err != nil {
			return err
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus is the organizer override. It changes status only; payment
// status is left as is. Reviving a cancelled registration must fit in the
// remaining capacity.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id auth.Identity, registrationID string, status model.RegistrationStatus) (*model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if !status.Valid() {
		return nil, model.NewValidationError("status", "must be one of pending, confirmed, cancelled")
	}
	if !validID(registrationID) {
		return nil, model.ErrRegistrationNotFound
	}

	var out *model.Registration
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.registrations.GetByID(ctx, registrationID)
		if err != nil {
			return err
		}
		// Lock order is event then registration, matching Register.
		event, err := s.events.GetForUpdate(ctx, current.EventID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, auth.ActionManageRegistrations, auth.Resource{CreatorID: event.CreatedBy}); err != nil {
			return err
		}

		reg, err := s.registrations.GetForUpdate(ctx, registrationID)
		if err != nil {
			return err
		}
		if !reg.IsLive() && status != model.RegistrationCancelled {
			booked, err := s.registrations.SumLiveTickets(ctx, event.ID, reg.ID)
			if err != nil {
				return err
			}
			if err := checkCapacity(event, booked, reg.NumberOfTickets); err != nil {
				return err
			}
		}

		reg.Status = status
		reg.UpdatedAt = s.clock.Now()
		if err := s.registrations.UpdateState(ctx, reg); err != nil {
			return err
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "registration status overridden",
		slog.String("registration_id", out.ID),
		slog.String("status", string(out.Status)),
		slog.String("by", id.UserID),
	)
	return out, nil
}

// Get returns a registration visible to the caller: its owner, the event's
// creator or an admin.
func (s *RegistrationService) Get(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if !validID(registrationID) {
		return nil, model.ErrRegistrationNotFound
	}
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	return s.authorizeView(ctx, id, reg)
}

// GetByTicketReference looks a registration up by its printed reference.
// Matching is case-insensitive.
func (s *RegistrationService) GetByTicketReference(ctx context.Context, id auth.Identity, ref string) (*model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !ValidTicketReference(ref) {
		return nil, model.ErrRegistrationNotFound
	}
	reg, err := s.registrations.GetByTicketReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.authorizeView(ctx, id, reg)
}

func (s *RegistrationService) authorizeView(ctx context.Context, id auth.Identity, reg *model.Registration) (*model.Registration, error) {
	res := auth.Resource{OwnerID: reg.UserID}
	if reg.UserID != id.UserID && id.Role != auth.RoleAdmin {
		event, err := s.events.GetByID(ctx, reg.EventID)
		if err != nil {
			return nil, err
		}
		res.CreatorID = event.CreatedBy
	}
	if err := auth.Authorize(id, auth.ActionViewRegistration, res); err != nil {
		return nil, err
	}
	return reg, nil
}

// ListMine returns the caller's registrations.
func (s *RegistrationService) ListMine(ctx context.Context, id auth.Identity) ([]model.Registration, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	return s.registrations.ListByUser(ctx, id.UserID)
}

// ListForEvent returns every registration of an event to its organizer.
func (s *RegistrationService) ListForEvent(ctx context.Context, id auth.Identity, eventID string) ([]model.Registration, error) {
	if _, err := s.managedEvent(ctx, id, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// EventStats summarises an event's registrations for its organizer.
func (s *RegistrationService) EventStats(ctx context.Context, id auth.Identity, eventID string) (*model.EventStats, error) {
	event, err := s.managedEvent(ctx, id, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var counts model.RegistrationCounts
	var revenue int64
	for i := range regs {
		counts.Add(&regs[i])
		if regs[i].PaymentStatus == model.PaymentPaid {
			revenue += regs[i].PaymentAmount
		}
	}
	return &model.EventStats{
		EventID:                event.ID,
		Registrations:          counts.Total(),
		LiveRegistrations:      counts.Confirmed + counts.Pending,
		ConfirmedRegistrations: counts.Confirmed,
		PendingRegistrations:   counts.Pending,
		CancelledRegistrations: counts.Cancelled,
		TicketsSold:            counts.TicketsSold,
		RemainingTickets:       RemainingCapacity(event, counts.TicketsSold),
		PaidRevenue:            revenue,
	}, nil
}

func (s *RegistrationService) managedEvent(ctx context.Context, id auth.Identity, eventID string) (*model.Event, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if !validID(eventID) {
		return nil, model.ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, auth.ActionManageRegistrations, auth.Resource{CreatorID: event.CreatedBy}); err != nil {
		return nil, err
	}
	return event, nil
}

// AvailableTickets reports what is left to sell. It is public.
func (s *RegistrationService) AvailableTickets(ctx context.Context, eventID string) (*model.TicketAvailability, error) {
	if !validID(eventID) {
		return nil, model.ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	booked, err := s.registrations.SumLiveTickets(ctx, event.ID, "")
	if err != nil {
		return nil, err
	}
	return &model.TicketAvailability{
		EventID:          event.ID,
		AvailableTickets: RemainingCapacity(event, booked),
		Price:            event.Price,
	}, nil
}
