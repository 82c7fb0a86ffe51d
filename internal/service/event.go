package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	tx            Transactor
	events        EventStore
	registrations RegistrationStore
	categories    CategoryStore
	geocoder      Geocoder
	clock         clock.Clock
	log           *slog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	tx Transactor,
	events EventStore,
	registrations RegistrationStore,
	categories CategoryStore,
	geocoder Geocoder,
	clk clock.Clock,
	log *slog.Logger,
) *EventService {
	return &EventService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		categories:    categories,
		geocoder:      geocoder,
		clock:         clk,
		log:           log,
	}
}

// Create publishes a new event owned by the caller. In-person events are
// geocoded; when the geocoder is unavailable the event is saved without
// coordinates.
func (s *EventService) Create(ctx context.Context, id auth.Identity, in model.EventInput) (*model.Event, error) {
	if err := auth.Authorize(id, auth.ActionCreateEvent, auth.Resource{}); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	e := &model.Event{CreatedBy: id.UserID, CreatedAt: now, UpdatedAt: now}
	in.Apply(e)
	if !e.IsOnline {
		e.SetCoordinates(s.geocoder.Geocode(ctx, e.Address()))
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}

	_, located := e.Coordinates()
	s.log.InfoContext(ctx, "event created",
		slog.String("event_id", e.ID),
		slog.String("created_by", e.CreatedBy),
		slog.Bool("located", located),
	)
	return e, nil
}

// Update replaces an event's details. Capacity may not drop below the
// tickets already sold. Existing registrations keep the amount they were
// charged even if the price changes.
func (s *EventService) Update(ctx context.Context, id auth.Identity, eventID string, in model.EventInput) (*model.Event, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	if !validID(eventID) {
		return nil, model.ErrEventNotFound
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, auth.ActionManageEvent, auth.Resource{CreatorID: existing.CreatedBy}); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	// Geocode before opening the transaction so no lock is held across an
	// external call.
	var coords model.Coordinates
	var located bool
	if !in.IsOnline {
		draft := *existing
		in.Apply(&draft)
		coords, located = existing.Coordinates()
		if !located || draft.Address() != existing.Address() {
			coords, located = s.geocoder.Geocode(ctx, draft.Address())
		}
	}

	var out *model.Event
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if in.Capacity != nil {
			booked, err := s.registrations.SumLiveTickets(ctx, locked.ID, "")
			if err != nil {
				return err
			}
			if *in.Capacity < booked {
				return model.NewValidationError("capacity", "cannot be below the %d tickets already sold", booked)
			}
		}

		updated := *locked
		in.Apply(&updated)
		updated.SetCoordinates(coords, located)
		updated.UpdatedAt = s.clock.Now()
		if err := s.events.Update(ctx, &updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "event updated", slog.String("event_id", out.ID), slog.String("by", id.UserID))
	return out, nil
}

func (s *EventService) checkCategory(ctx context.Context, categoryID int64) error {
	ok, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewValidationError("category_id", "unknown category %d", categoryID)
	}
	return nil
}

// Get returns a single event by ID.
func (s *EventService) Get(ctx context.Context, eventID string) (*model.Event, error) {
	if !validID(eventID) {
		return nil, model.ErrEventNotFound
	}
	return s.events.GetByID(ctx, eventID)
}

// List returns all events, newest first.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// Browse returns the events matching the catalog facets, evaluating
// calendar days in loc.
func (s *EventService) Browse(ctx context.Context, st catalog.FilterState, loc *time.Location) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	if st.Empty() {
		return events, nil
	}
	return catalog.Filter(events, st, s.clock.Now(), loc), nil
}

// Delete withdraws an event on behalf of its creator or an admin. The event
// disappears from every listing and lookup. Its live registrations are
// cancelled and refunded in the same transaction; attendees keep them in
// their own history.
func (s *EventService) Delete(ctx context.Context, id auth.Identity, eventID string) error {
	if !id.Authenticated() {
		return model.ErrUnauthenticated
	}
	if !validID(eventID) {
		return model.ErrEventNotFound
	}

	released := 0
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, auth.ActionManageEvent, auth.Resource{CreatorID: event.CreatedBy}); err != nil {
			return err
		}

		now := s.clock.Now()
		regs, err := s.registrations.ListByEvent(ctx, event.ID)
		if err != nil {
			return err
		}
		for i := range regs {
			reg := &regs[i]
			if !reg.IsLive() {
				continue
			}
			reg.Status = model.RegistrationCancelled
			reg.PaymentStatus = model.PaymentRefunded
			reg.UpdatedAt = now
			if err := s.registrations.UpdateState(ctx, reg); err != nil {
				return err
			}
			released++
		}
		return s.events.Delete(ctx, event.ID, now)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "event deleted",
		slog.String("event_id", eventID),
		slog.String("by", id.UserID),
		slog.Int("registrations_cancelled", released),
	)
	return nil
}

// MyEvents returns the events the caller created and the events they hold a
// registration for, paired with that registration.
func (s *EventService) MyEvents(ctx context.Context, id auth.Identity) (*model.MyEvents, error) {
	if !id.Authenticated() {
		return nil, model.ErrUnauthenticated
	}

	created, err := s.events.ListByCreator(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	byEvent := make(map[string]model.Registration, len(regs))
	ids := make([]string, 0, len(regs))
	for _, r := range regs {
		byEvent[r.EventID] = r
		ids = append(ids, r.EventID)
	}
	events, err := s.events.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	registered := make([]model.RegisteredEvent, 0, len(events))
	for _, e := range events {
		registered = append(registered, model.RegisteredEvent{Event: e, Registration: byEvent[e.ID]})
	}
	return &model.MyEvents{CreatedEvents: created, RegisteredEvents: registered}, nil
}

// OrganizerEvents is the organizer dashboard: the caller's own events, newest
// first, each with its registration counts.
func (s *EventService) OrganizerEvents(ctx context.Context, id auth.Identity) ([]model.OrganizerEvent, error) {
	if err := auth.Authorize(id, auth.ActionCreateEvent, auth.Resource{}); err != nil {
		return nil, err
	}

	events, err := s.events.ListByCreator(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := s.registrations.CountByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.OrganizerEvent, 0, len(events))
	for _, e := range events {
		c := counts[e.ID]
		out = append(out, model.OrganizerEvent{
			Event:            e,
			Registrations:    c,
			RemainingTickets: RemainingCapacity(&e, c.TicketsSold),
		})
	}
	return out, nil
}

// Categories lists the active categories.
func (s *EventService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categories.ListActive(ctx)
}
