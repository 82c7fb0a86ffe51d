package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/geo"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Create(ctx context.Context, id auth.Identity, in model.EventInput) (*model.Event, error) {
	args := m.Called(ctx, id, in)
	return ptr[model.Event](args.Get(0)), args.Error(1)
}

func (m *mockEvents) Update(ctx context.Context, id auth.Identity, eventID string, in model.EventInput) (*model.Event, error) {
	args := m.Called(ctx, id, eventID, in)
	return ptr[model.Event](args.Get(0)), args.Error(1)
}

func (m *mockEvents) Get(ctx context.Context, eventID string) (*model.Event, error) {
	args := m.Called(ctx, eventID)
	return ptr[model.Event](args.Get(0)), args.Error(1)
}

func (m *mockEvents) Delete(ctx context.Context, id auth.Identity, eventID string) error {
	return m.Called(ctx, id, eventID).Error(0)
}

func (m *mockEvents) MyEvents(ctx context.Context, id auth.Identity) (*model.MyEvents, error) {
	args := m.Called(ctx, id)
	return ptr[model.MyEvents](args.Get(0)), args.Error(1)
}

func (m *mockEvents) OrganizerEvents(ctx context.Context, id auth.Identity) ([]model.OrganizerEvent, error) {
	args := m.Called(ctx, id)
	events, _ := args.Get(0).([]model.OrganizerEvent)
	return events, args.Error(1)
}

func (m *mockEvents) Browse(ctx context.Context, st catalog.FilterState, loc *time.Location) ([]model.Event, error) {
	args := m.Called(ctx, st, loc)
	events, _ := args.Get(0).([]model.Event)
	return events, args.Error(1)
}

func (m *mockEvents) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]model.Category)
	return cats, args.Error(1)
}

type mockRegistrations struct{ mock.Mock }

func (m *mockRegistrations) Register(ctx context.Context, id auth.Identity, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	args := m.Called(ctx, id, eventID, req)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) Cancel(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	args := m.Called(ctx, id, registrationID)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) ProcessPayment(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	args := m.Called(ctx, id, registrationID)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) UpdateStatus(ctx context.Context, id auth.Identity, registrationID string, status model.RegistrationStatus) (*model.Registration, error) {
	args := m.Called(ctx, id, registrationID, status)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) Get(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error) {
	args := m.Called(ctx, id, registrationID)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) GetByTicketReference(ctx context.Context, id auth.Identity, ref string) (*model.Registration, error) {
	args := m.Called(ctx, id, ref)
	return ptr[model.Registration](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) ListMine(ctx context.Context, id auth.Identity) ([]model.Registration, error) {
	args := m.Called(ctx, id)
	regs, _ := args.Get(0).([]model.Registration)
	return regs, args.Error(1)
}

func (m *mockRegistrations) ListForEvent(ctx context.Context, id auth.Identity, eventID string) ([]model.Registration, error) {
	args := m.Called(ctx, id, eventID)
	regs, _ := args.Get(0).([]model.Registration)
	return regs, args.Error(1)
}

func (m *mockRegistrations) EventStats(ctx context.Context, id auth.Identity, eventID string) (*model.EventStats, error) {
	args := m.Called(ctx, id, eventID)
	return ptr[model.EventStats](args.Get(0)), args.Error(1)
}

func (m *mockRegistrations) AvailableTickets(ctx context.Context, eventID string) (*model.TicketAvailability, error) {
	args := m.Called(ctx, eventID)
	return ptr[model.TicketAvailability](args.Get(0)), args.Error(1)
}

type mockWeather struct{ mock.Mock }

func (m *mockWeather) Geocode(ctx context.Context, address string) (model.Coordinates, bool) {
	args := m.Called(ctx, address)
	return args.Get(0).(model.Coordinates), args.Bool(1)
}

func (m *mockWeather) Forecast(ctx context.Context, at model.Coordinates, date time.Time) (*geo.Forecast, error) {
	args := m.Called(ctx, at, date)
	return ptr[geo.Forecast](args.Get(0)), args.Error(1)
}

func (m *mockWeather) ForecastForEvent(ctx context.Context, event *model.Event) (*geo.Forecast, error) {
	args := m.Called(ctx, event)
	return ptr[geo.Forecast](args.Get(0)), args.Error(1)
}

// ptr unwraps a mocked pointer return that may be an untyped nil.
func ptr[T any](v any) *T {
	p, _ := v.(*T)
	return p
}
