// Package model defines the core domain types for the event registration
// and ticketing service.
package model

import "time"

// RegistrationStatus tracks a registration's claim on event capacity.
// Cancelled registrations no longer count against capacity.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks money movement for a registration.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how an attendee intends to pay.
type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Valid reports whether m is an accepted method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentBankTransfer
}

// Registration is a user's claim on an event's capacity.
//
// TicketReference and PaymentAmount are fixed at creation and never change,
// even if the event price is later edited.
type Registration struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	EventID         string             `json:"event_id"`
	TicketReference string             `json:"ticket_reference"`
	NumberOfTickets int                `json:"number_of_tickets"`
	Status          RegistrationStatus `json:"status"`
	PaymentStatus   PaymentStatus      `json:"payment_status"`
	PaymentAmount   int64              `json:"payment_amount"`
	PaymentMethod   PaymentMethod      `json:"payment_method,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// IsLive reports whether the registration still holds capacity.
func (r *Registration) IsLive() bool {
	return r.Status != RegistrationCancelled
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	NumberOfTickets int           `json:"number_of_tickets"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
}

// UpdateStatusRequest is the organizer payload for overriding a status.
type UpdateStatusRequest struct {
	Status RegistrationStatus `json:"status"`
}

// TicketAvailability summarises what is left to sell for an event.
// AvailableTickets is nil for unlimited events.
type TicketAvailability struct {
	EventID          string `json:"event_id"`
	AvailableTickets *int   `json:"available_tickets"`
	Price            int64  `json:"price"`
}

// EventStats is the organizer view of an event's registrations.
type EventStats struct {
	EventID                string `json:"event_id"`
	Registrations          int    `json:"registrations"`
	LiveRegistrations      int    `json:"live_registrations"`
	ConfirmedRegistrations int    `json:"confirmed_registrations"`
	PendingRegistrations   int    `json:"pending_registrations"`
	CancelledRegistrations int    `json:"cancelled_registrations"`
	TicketsSold            int    `json:"tickets_sold"`
	RemainingTickets       *int   `json:"remaining_tickets"`
	PaidRevenue            int64  `json:"paid_revenue"`
}

// RegistrationCounts tallies one event's registrations by status.
// TicketsSold covers live registrations only.
type RegistrationCounts struct {
	Confirmed   int `json:"confirmed"`
	Pending     int `json:"pending"`
	Cancelled   int `json:"cancelled"`
	TicketsSold int `json:"tickets_sold"`
}

// Add counts r.
func (c *RegistrationCounts) Add(r *Registration) {
	switch r.Status {
	case RegistrationConfirmed:
		c.Confirmed++
	case RegistrationPending:
		c.Pending++
	case RegistrationCancelled:
		c.Cancelled++
	}
	if r.IsLive() {
		c.TicketsSold += r.NumberOfTickets
	}
}

// Total is the number of registrations in any status.
func (c RegistrationCounts) Total() int {
	return c.Confirmed + c.Pending + c.Cancelled
}

// OrganizerEvent is an event on its creator's dashboard.
type OrganizerEvent struct {
	Event
	Registrations    RegistrationCounts `json:"registrations"`
	RemainingTickets *int               `json:"remaining_tickets"`
}

// RegisteredEvent is an event the caller holds a registration for.
type RegisteredEvent struct {
	Event
	Registration Registration `json:"registration"`
}

// MyEvents lists the events a user created and the ones they registered for,
// each newest first.
type MyEvents struct {
	CreatedEvents    []Event           `json:"created_events"`
	RegisteredEvents []RegisteredEvent `json:"registered_events"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}
