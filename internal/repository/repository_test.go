package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
	"github.com/Shivanand-hulikatti/eventhub/internal/testutil"
)

func setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := testutil.NewTestPool(t)
	testutil.TruncateAll(t, pool)
	return pool
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, capacity *int) *model.Event {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &model.Event{
		Title:         "Go Meetup",
		StartDate:     now.Add(48 * time.Hour),
		EndDate:       now.Add(50 * time.Hour),
		Capacity:      capacity,
		Price:         1500,
		StreetAddress: "1 Main St",
		City:          "Leeds",
		Country:       "UK",
		Status:        model.EventStatusActive,
		CategoryID:    testutil.FirstCategoryID(t, pool),
		CreatedBy:     uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, NewEventRepository(pool).Create(context.Background(), e))
	return e
}

func newRegistration(eventID, userID, ref string, tickets int) *model.Registration {
	now := time.Now().UTC()
	return &model.Registration{
		UserID:          userID,
		EventID:         eventID,
		TicketReference: ref,
		NumberOfTickets: tickets,
		Status:          model.RegistrationPending,
		PaymentStatus:   model.PaymentPending,
		PaymentAmount:   1500 * int64(tickets),
		PaymentMethod:   model.PaymentCard,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func intPtr(v int) *int { return &v }

func TestEventRepository_CreateGetUpdate(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewEventRepository(pool)

	e := seedEvent(t, pool, intPtr(10))
	require.NotEmpty(t, e.ID)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	require.NotNil(t, got.Capacity)
	assert.Equal(t, 10, *got.Capacity)
	_, ok := got.Coordinates()
	assert.False(t, ok)

	got.Capacity = nil
	got.SetCoordinates(model.Coordinates{Latitude: 53.8, Longitude: -1.55}, true)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Capacity)
	c, ok := again.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 53.8, c.Latitude, 1e-9)
}

func TestEventRepository_NotFound(t *testing.T) {
	pool := setup(t)
	repo := NewEventRepository(pool)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, model.ErrEventNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, model.ErrEventNotFound)

	err = repo.Update(context.Background(), &model.Event{ID: uuid.NewString()})
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestRegistrationRepository_SumLiveTickets(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool)
	e := seedEvent(t, pool, intPtr(10))

	a := newRegistration(e.ID, uuid.NewString(), "AAAAAAAA", 3)
	b := newRegistration(e.ID, uuid.NewString(), "BBBBBBBB", 2)
	c := newRegistration(e.ID, uuid.NewString(), "CCCCCCCC", 4)
	for _, r := range []*model.Registration{a, b, c} {
		require.NoError(t, repo.Create(ctx, r))
	}

	c.Status = model.RegistrationCancelled
	c.PaymentStatus = model.PaymentRefunded
	require.NoError(t, repo.UpdateState(ctx, c))

	total, err := repo.SumLiveTickets(ctx, e.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	total, err = repo.SumLiveTickets(ctx, e.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestRegistrationRepository_UniqueConstraintsKeepTxUsable(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool)
	tx := NewTransactor(pool)
	e := seedEvent(t, pool, nil)
	user := uuid.NewString()

	require.NoError(t, repo.Create(ctx, newRegistration(e.ID, user, "REF00001", 1)))

	err := tx.WithTx(ctx, func(ctx context.Context) error {
		err := repo.Create(ctx, newRegistration(e.ID, user, "REF00002", 1))
		require.ErrorIs(t, err, model.ErrAlreadyRegistered)

		err = repo.Create(ctx, newRegistration(e.ID, uuid.NewString(), "REF00001", 1))
		require.ErrorIs(t, err, model.ErrTicketReferenceTaken)

		return repo.Create(ctx, newRegistration(e.ID, uuid.NewString(), "REF00003", 1))
	})
	require.NoError(t, err)

	exists, err := repo.TicketReferenceExists(ctx, "REF00003")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByTicketReference(ctx, "REF00001")
	require.NoError(t, err)
	assert.Equal(t, user, got.UserID)

	has, err := repo.ExistsForUser(ctx, user, e.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool)
	e := seedEvent(t, pool, nil)
	boom := errors.New("boom")

	err := NewTransactor(pool).WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, newRegistration(e.ID, uuid.NewString(), "ROLLBACK", 1)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := repo.TicketReferenceExists(ctx, "ROLLBACK")
	require.NoError(t, err)
	assert.False(t, exists)
}

func newRegistrationService(pool *pgxpool.Pool) *service.RegistrationService {
	return service.NewRegistrationService(
		NewTransactor(pool),
		NewEventRepository(pool),
		NewRegistrationRepository(pool),
		clock.NewSystem(),
		slog.New(slog.DiscardHandler),
	)
}

func TestRegistrationService_ConcurrentBookingsNeverOversell(t *testing.T) {
	tests := []struct {
		capacity int
		callers  int
	}{
		{capacity: 1, callers: 2},
		{capacity: 3, callers: 12},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("capacity %d with %d callers", tt.capacity, tt.callers), func(t *testing.T) {
			pool := setup(t)
			ctx := context.Background()
			e := seedEvent(t, pool, intPtr(tt.capacity))
			svc := newRegistrationService(pool)

			var wg sync.WaitGroup
			results := make([]error, tt.callers)
			for i := range tt.callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					caller := auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAttendee}
					_, results[i] = svc.Register(ctx, caller, e.ID,
						model.RegisterRequest{NumberOfTickets: 1, PaymentMethod: model.PaymentCard})
				}()
			}
			wg.Wait()

			succeeded := 0
			for _, err := range results {
				if err == nil {
					succeeded++
					continue
				}
				var capErr *model.CapacityExceededError
				if assert.ErrorAs(t, err, &capErr) {
					assert.Zero(t, capErr.Remaining)
				}
			}
			assert.Equal(t, tt.capacity, succeeded)

			total, err := NewRegistrationRepository(pool).SumLiveTickets(ctx, e.ID, "")
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, total)
		})
	}
}

func TestRegistrationService_ConcurrentDuplicateBookings(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	e := seedEvent(t, pool, nil)
	svc := newRegistrationService(pool)
	caller := auth.Identity{UserID: uuid.NewString(), Role: auth.RoleAttendee}

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = svc.Register(ctx, caller, e.ID,
				model.RegisterRequest{NumberOfTickets: 2, PaymentMethod: model.PaymentCard})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrAlreadyRegistered)
	}
	assert.Equal(t, 1, succeeded)

	regs, err := NewRegistrationRepository(pool).ListByUser(ctx, caller.UserID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.EqualValues(t, 3000, regs[0].PaymentAmount)
}

func TestEventRepository_DeleteHidesEvent(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewEventRepository(pool)
	kept := seedEvent(t, pool, nil)
	gone := seedEvent(t, pool, nil)

	require.NoError(t, repo.Delete(ctx, gone.ID, time.Now().UTC()))
	require.ErrorIs(t, repo.Delete(ctx, gone.ID, time.Now().UTC()), model.ErrEventNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "not-a-uuid", time.Now().UTC()), model.ErrEventNotFound)

	_, err := repo.GetByID(ctx, gone.ID)
	require.ErrorIs(t, err, model.ErrEventNotFound)
	require.ErrorIs(t, repo.Update(ctx, gone), model.ErrEventNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	byIDs, err := repo.ListByIDs(ctx, []string{kept.ID, gone.ID, uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, kept.ID, byIDs[0].ID)

	mine, err := repo.ListByCreator(ctx, gone.CreatedBy)
	require.NoError(t, err)
	assert.Empty(t, mine)

	mine, err = repo.ListByCreator(ctx, kept.CreatedBy)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	mine, err = repo.ListByCreator(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestRegistrationRepository_CountByEvents(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	repo := NewRegistrationRepository(pool)
	busy := seedEvent(t, pool, intPtr(10))
	quiet := seedEvent(t, pool, intPtr(10))

	a := newRegistration(busy.ID, uuid.NewString(), "CNTA0001", 3)
	b := newRegistration(busy.ID, uuid.NewString(), "CNTB0002", 2)
	c := newRegistration(busy.ID, uuid.NewString(), "CNTC0003", 4)
	for _, r := range []*model.Registration{a, b, c} {
		require.NoError(t, repo.Create(ctx, r))
	}
	a.Status = model.RegistrationConfirmed
	a.PaymentStatus = model.PaymentPaid
	require.NoError(t, repo.UpdateState(ctx, a))
	c.Status = model.RegistrationCancelled
	c.PaymentStatus = model.PaymentRefunded
	require.NoError(t, repo.UpdateState(ctx, c))

	counts, err := repo.CountByEvents(ctx, []string{busy.ID, quiet.ID})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationCounts{Confirmed: 1, Pending: 1, Cancelled: 1, TicketsSold: 5}, counts[busy.ID])
	_, ok := counts[quiet.ID]
	assert.False(t, ok)
}

func TestCacheRepository(t *testing.T) {
	pool := setup(t)
	ctx := context.Background()
	start := time.Now().UTC()

	repo := NewCacheRepository(pool, clock.NewFixed(start))
	require.NoError(t, repo.Set(ctx, "geocode:abc", []byte(`{"latitude":1,"longitude":2}`), time.Hour))

	got, ok, err := repo.Get(ctx, "geocode:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"latitude":1,"longitude":2}`, string(got))

	require.NoError(t, repo.Set(ctx, "geocode:abc", []byte(`{"latitude":3,"longitude":4}`), time.Hour))
	got, _, err = repo.Get(ctx, "geocode:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":3,"longitude":4}`, string(got))

	later := NewCacheRepository(pool, clock.NewFixed(start.Add(2*time.Hour)))
	_, ok, err = later.Get(ctx, "geocode:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := later.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
