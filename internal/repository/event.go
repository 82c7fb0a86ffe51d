package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

const eventColumns = `id, title, description, start_date, end_date, capacity, price,
	is_online, online_link, street_address, city, country, latitude, longitude,
	status, category_id, created_by, created_at, updated_at`

// EventRepository handles persistence for events. Deleted events are
// invisible to every read.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts e, assigning a UUID when e.ID is empty.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.Capacity, e.Price,
		e.IsOnline, e.OnlineLink, e.StreetAddress, e.City, e.Country, e.Latitude, e.Longitude,
		e.Status, e.CategoryID, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of e. The creator and creation time
// never change.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE events SET
			title = $2, description = $3, start_date = $4, end_date = $5,
			capacity = $6, price = $7, is_online = $8, online_link = $9,
			street_address = $10, city = $11, country = $12,
			latitude = $13, longitude = $14, status = $15, category_id = $16,
			updated_at = $17
		 WHERE id = $1 AND deleted_at IS NULL`,
		e.ID, e.Title, e.Description, e.StartDate, e.EndDate,
		e.Capacity, e.Price, e.IsOnline, e.OnlineLink,
		e.StreetAddress, e.City, e.Country,
		e.Latitude, e.Longitude, e.Status, e.CategoryID,
		e.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return model.ErrEventNotFound
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

// Delete soft-deletes the event as of at.
func (r *EventRepository) Delete(ctx context.Context, id string, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE events SET deleted_at = $2, updated_at = $2
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, at,
	)
	if err != nil {
		if isInvalidID(err) {
			return model.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE deleted_at IS NULL
		 ORDER BY created_at DESC`)
}

// ListByCreator returns the events creatorID created, newest first.
func (r *EventRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Event, error) {
	events, err := r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE created_by = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`, creatorID)
	if isInvalidID(err) {
		return nil, nil
	}
	return events, err
}

// ListByIDs returns the events among ids that exist, newest first. Unknown
// ids are skipped.
func (r *EventRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
		 ORDER BY created_at DESC`, ids)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetByID returns a single event or model.ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND deleted_at IS NULL`, id)
}

// GetForUpdate returns the event and holds a row lock on it until the
// surrounding transaction ends. Concurrent registrations for the same event
// queue on this lock.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
}

func (r *EventRepository) get(ctx context.Context, query, id string) (*model.Event, error) {
	var e model.Event
	err := scanEvent(conn(ctx, r.db).QueryRow(ctx, query, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func scanEvent(row pgx.Row, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Capacity, &e.Price,
		&e.IsOnline, &e.OnlineLink, &e.StreetAddress, &e.City, &e.Country, &e.Latitude, &e.Longitude,
		&e.Status, &e.CategoryID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
}
