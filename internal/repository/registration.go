package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Unique indexes on registrations.
const (
	constraintTicketReference = "registrations_ticket_reference_key"
	constraintUserEvent       = "registrations_user_event_key"
)

const registrationColumns = `id, user_id, event_id, ticket_reference, number_of_tickets,
	status, payment_status, payment_amount, payment_method, created_at, updated_at`

// RegistrationRepository handles persistence for registrations. Soft-deleted
// rows are invisible to every query.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// SumLiveTickets returns the tickets held by non-cancelled registrations of
// an event. A non-empty excludeID leaves that registration out of the sum.
func (r *RegistrationRepository) SumLiveTickets(ctx context.Context, eventID, excludeID string) (int, error) {
	var total int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COALESCE(SUM(number_of_tickets), 0)
		 FROM registrations
		 WHERE event_id = $1
		   AND status <> 'cancelled'
		   AND deleted_at IS NULL
		   AND ($2 = '' OR id::text <> $2)`,
		eventID, excludeID,
	).Scan(&total)
	if err != nil {
		if isInvalidID(err) {
			return 0, model.ErrEventNotFound
		}
		return 0, fmt.Errorf("sum live tickets: %w", err)
	}
	return total, nil
}

// ExistsForUser reports whether userID already holds a registration for
// eventID, in any status.
func (r *RegistrationRepository) ExistsForUser(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE user_id = $1 AND event_id = $2 AND deleted_at IS NULL
		)`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration exists: %w", err)
	}
	return exists, nil
}

// TicketReferenceExists reports whether ref is already allocated. Deleted
// rows still reserve their reference.
func (r *RegistrationRepository) TicketReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE ticket_reference = $1)`,
		ref,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ticket reference: %w", err)
	}
	return exists, nil
}

// Create inserts reg, assigning a UUID when reg.ID is empty. A clash on the
// ticket reference returns model.ErrTicketReferenceTaken and a clash on
// (user, event) returns model.ErrAlreadyRegistered; either way a surrounding
// transaction stays usable.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}

	err := savepoint(ctx, r.db, func(q dbtx) error {
		_, err := q.Exec(ctx,
			`INSERT INTO registrations (`+registrationColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			reg.ID, reg.UserID, reg.EventID, reg.TicketReference, reg.NumberOfTickets,
			reg.Status, reg.PaymentStatus, reg.PaymentAmount, reg.PaymentMethod,
			reg.CreatedAt, reg.UpdatedAt,
		)
		return err
	})
	if err == nil {
		return nil
	}

	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintTicketReference:
			return model.ErrTicketReferenceTaken
		case constraintUserEvent:
			return model.ErrAlreadyRegistered
		}
	}
	if isInvalidID(err) {
		return model.ErrEventNotFound
	}
	return fmt.Errorf("insert registration: %w", err)
}

// UpdateState persists status, payment status and updated_at. Every other
// column is immutable after creation.
func (r *RegistrationRepository) UpdateState(ctx context.Context, reg *model.Registration) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE registrations
		 SET status = $2, payment_status = $3, updated_at = $4
		 WHERE id = $1 AND deleted_at IS NULL`,
		reg.ID, reg.Status, reg.PaymentStatus, reg.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return model.ErrRegistrationNotFound
		}
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRegistrationNotFound
	}
	return nil
}

// GetByID returns a registration or model.ErrRegistrationNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	return r.get(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 AND deleted_at IS NULL`, id)
}

// GetForUpdate is GetByID plus a row lock held until the transaction ends.
func (r *RegistrationRepository) GetForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return r.get(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
}

// GetByTicketReference looks a registration up by its ticket reference.
func (r *RegistrationRepository) GetByTicketReference(ctx context.Context, ref string) (*model.Registration, error) {
	return r.get(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE ticket_reference = $1 AND deleted_at IS NULL`, ref)
}

// ListByUser returns a user's registrations, newest first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return r.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`, userID)
}

// CountByEvents tallies registrations by status for each of eventIDs.
// Events without registrations are absent from the result.
func (r *RegistrationRepository) CountByEvents(ctx context.Context, eventIDs []string) (map[string]model.RegistrationCounts, error) {
	counts := make(map[string]model.RegistrationCounts, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT event_id, status, COUNT(*),
		        COALESCE(SUM(number_of_tickets) FILTER (WHERE status <> 'cancelled'), 0)
		 FROM registrations
		 WHERE event_id = ANY($1::uuid[]) AND deleted_at IS NULL
		 GROUP BY event_id, status`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			status  model.RegistrationStatus
			n       int
			tickets int
		)
		if err := rows.Scan(&eventID, &status, &n, &tickets); err != nil {
			return nil, fmt.Errorf("scan registration counts: %w", err)
		}
		c := counts[eventID]
		switch status {
		case model.RegistrationConfirmed:
			c.Confirmed = n
		case model.RegistrationPending:
			c.Pending = n
		case model.RegistrationCancelled:
			c.Cancelled = n
		}
		c.TicketsSold += tickets
		counts[eventID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return counts, nil
}

// ListByEvent returns all registrations for a given event in booking order.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at ASC`, eventID)
}

func (r *RegistrationRepository) get(ctx context.Context, query string, arg string) (*model.Registration, error) {
	var reg model.Registration
	err := scanRegistration(conn(ctx, r.db).QueryRow(ctx, query, arg), &reg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg string) ([]model.Registration, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, arg)
	if err != nil {
		if isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		if isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func scanRegistration(row pgx.Row, reg *model.Registration) error {
	return row.Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.TicketReference, &reg.NumberOfTickets,
		&reg.Status, &reg.PaymentStatus, &reg.PaymentAmount, &reg.PaymentMethod,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
}
