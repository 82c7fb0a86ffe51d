package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

type fakeTxKey struct{}

// fakeStore is an in-memory Transactor, EventStore, RegistrationStore and
// CategoryStore. Transactions are serialised and roll back to a snapshot.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	events        map[string]model.Event
	registrations map[string]model.Registration
	categories    map[int64]model.Category

	// hiddenRefs clash on insert without being reported by
	// TicketReferenceExists, like a concurrent writer would.
	hiddenRefs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        map[string]model.Event{},
		registrations: map[string]model.Registration{},
		categories: map[int64]model.Category{
			1: {ID: 1, Name: "Music", Active: true},
			2: {ID: 2, Name: "Tech", Active: true},
			3: {ID: 3, Name: "Retired", Active: false},
		},
		hiddenRefs: map[string]bool{},
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	events := maps.Clone(f.events)
	regs := maps.Clone(f.registrations)
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.mu.Lock()
		f.events, f.registrations = events, regs
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) Create(ctx context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	f.events[e.ID] = *e
	return nil
}

func (f *fakeStore) Update(ctx context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		return model.ErrEventNotFound
	}
	f.events[e.ID] = *e
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return &e, nil
}

func (f *fakeStore) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeStore) List(ctx context.Context) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Collect(maps.Values(f.events))
	slices.SortFunc(out, func(a, b model.Event) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListByCreator(ctx context.Context, creatorID string) ([]model.Event, error) {
	all, _ := f.List(ctx)
	return slices.DeleteFunc(all, func(e model.Event) bool { return e.CreatedBy != creatorID }), nil
}

func (f *fakeStore) ListByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	all, _ := f.List(ctx)
	return slices.DeleteFunc(all, func(e model.Event) bool { return !slices.Contains(ids, e.ID) }), nil
}

func (f *fakeStore) Delete(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return model.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeStore) ListActive(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Category
	for _, c := range f.categories {
		if c.Active {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Category) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f *fakeStore) Exists(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	return ok && c.Active, nil
}

// registrationStore exposes the registration half of fakeStore, whose
// method names overlap with the event half.
type registrationStore struct{ *fakeStore }

func (r registrationStore) SumLiveTickets(ctx context.Context, eventID, excludeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.IsLive() && reg.ID != excludeID {
			total += reg.NumberOfTickets
		}
	}
	return total, nil
}

func (r registrationStore) ExistsForUser(ctx context.Context, userID, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.UserID == userID && reg.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (r registrationStore) TicketReferenceExists(ctx context.Context, ref string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refInUse(ref), nil
}

func (r registrationStore) refInUse(ref string) bool {
	for _, reg := range r.registrations {
		if reg.TicketReference == ref {
			return true
		}
	}
	return false
}

func (r registrationStore) Create(ctx context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refInUse(reg.TicketReference) || r.hiddenRefs[reg.TicketReference] {
		return model.ErrTicketReferenceTaken
	}
	for _, existing := range r.registrations {
		if existing.UserID == reg.UserID && existing.EventID == reg.EventID {
			return model.ErrAlreadyRegistered
		}
	}
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	r.registrations[reg.ID] = *reg
	return nil
}

func (r registrationStore) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	return &reg, nil
}

func (r registrationStore) GetForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return r.GetByID(ctx, id)
}

func (r registrationStore) GetByTicketReference(ctx context.Context, ref string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TicketReference == ref {
			return &reg, nil
		}
	}
	return nil, model.ErrRegistrationNotFound
}

func (r registrationStore) UpdateState(ctx context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.registrations[reg.ID]
	if !ok {
		return model.ErrRegistrationNotFound
	}
	stored.Status = reg.Status
	stored.PaymentStatus = reg.PaymentStatus
	stored.UpdatedAt = reg.UpdatedAt
	r.registrations[reg.ID] = stored
	return nil
}

func (r registrationStore) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return r.filter(func(reg model.Registration) bool { return reg.UserID == userID }), nil
}

func (r registrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.filter(func(reg model.Registration) bool { return reg.EventID == eventID }), nil
}

func (r registrationStore) CountByEvents(ctx context.Context, eventIDs []string) (map[string]model.RegistrationCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]model.RegistrationCounts{}
	for _, reg := range r.registrations {
		if !slices.Contains(eventIDs, reg.EventID) {
			continue
		}
		c := counts[reg.EventID]
		c.Add(&reg)
		counts[reg.EventID] = c
	}
	return counts, nil
}

func (r registrationStore) filter(keep func(model.Registration) bool) []model.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Registration
	for _, reg := range r.registrations {
		if keep(reg) {
			out = append(out, reg)
		}
	}
	slices.SortFunc(out, func(a, b model.Registration) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// seedRegistration stores reg directly, bypassing the service.
func (f *fakeStore) seedRegistration(reg model.Registration) model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.TicketReference == "" {
		reg.TicketReference = fmt.Sprintf("SEED%04d", len(f.registrations))
	}
	f.registrations[reg.ID] = reg
	return reg
}

func (f *fakeStore) registration(t *testing.T, id string) model.Registration {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		t.Fatalf("registration %s not stored", id)
	}
	return reg
}

func (f *fakeStore) liveTickets(eventID string) int {
	n, _ := registrationStore{f}.SumLiveTickets(context.Background(), eventID, "")
	return n
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (model.Coordinates, bool) {
	args := m.Called(ctx, address)
	return args.Get(0).(model.Coordinates), args.Bool(1)
}

var (
	testNow   = time.Date(2030, 6, 5, 10, 0, 0, 0, time.UTC)
	organizer = auth.Identity{UserID: uuid.NewString(), Role: auth.RoleOrganizer}
	attendee  = auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAttendee}
	stranger  = auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAttendee}
	admin     = auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAdmin}
)

func intPtr(v int) *int { return &v }

// seedEvent stores an active paid event created by organizer, starting a
// week after testNow.
func (f *fakeStore) seedEvent(mutate ...func(*model.Event)) model.Event {
	e := model.Event{
		ID:            uuid.NewString(),
		Title:         "Go Conference",
		StartDate:     testNow.AddDate(0, 0, 7),
		EndDate:       testNow.AddDate(0, 0, 7).Add(8 * time.Hour),
		Capacity:      intPtr(10),
		Price:         2500,
		StreetAddress: "1 Main St",
		City:          "Leeds",
		Country:       "UK",
		Status:        model.EventStatusActive,
		CategoryID:    1,
		CreatedBy:     organizer.UserID,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	for _, m := range mutate {
		m(&e)
	}
	f.mu.Lock()
	f.events[e.ID] = e
	f.mu.Unlock()
	return e
}
