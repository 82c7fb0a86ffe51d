package model

import (
	"net/url"
	"strings"
	"time"
)

// EventStatus is the publication state of an event. Only active events
// accept registrations.
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusDraft     EventStatus = "draft"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusDraft, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// Format is the attendance format derived from an event's location.
type Format string

const (
	FormatOnline   Format = "online"
	FormatInPerson Format = "in_person"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are within range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Event represents a bookable event created by an organizer.
//
// Price is held in minor currency units (cents). A nil Capacity means the
// event is unlimited.
type Event struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	Capacity      *int        `json:"capacity"`
	Price         int64       `json:"price"`
	IsOnline      bool        `json:"is_online"`
	OnlineLink    string      `json:"online_link,omitempty"`
	StreetAddress string      `json:"street_address,omitempty"`
	City          string      `json:"city,omitempty"`
	Country       string      `json:"country,omitempty"`
	Latitude      *float64    `json:"latitude,omitempty"`
	Longitude     *float64    `json:"longitude,omitempty"`
	Status        EventStatus `json:"status"`
	CategoryID    int64       `json:"category_id"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Format returns FormatOnline for online events and FormatInPerson otherwise.
func (e *Event) Format() Format {
	if e.IsOnline {
		return FormatOnline
	}
	return FormatInPerson
}

// IsFree reports whether the event costs nothing.
func (e *Event) IsFree() bool {
	return e.Price == 0
}

// Address joins the non-empty physical address parts with ", ".
func (e *Event) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.StreetAddress, e.City, e.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Coordinates returns the geocoded position when one is stored.
func (e *Event) Coordinates() (Coordinates, bool) {
	if e.Latitude == nil || e.Longitude == nil {
		return Coordinates{}, false
	}
	c := Coordinates{Latitude: *e.Latitude, Longitude: *e.Longitude}
	return c, c.Valid()
}

// SetCoordinates stores c, or clears the stored position when ok is false.
func (e *Event) SetCoordinates(c Coordinates, ok bool) {
	if !ok {
		e.Latitude, e.Longitude = nil, nil
		return
	}
	lat, lon := c.Latitude, c.Longitude
	e.Latitude, e.Longitude = &lat, &lon
}

// EventInput is the payload for creating or replacing an event.
type EventInput struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	Capacity      *int        `json:"capacity"`
	Price         int64       `json:"price"`
	IsOnline      bool        `json:"is_online"`
	OnlineLink    string      `json:"online_link"`
	StreetAddress string      `json:"street_address"`
	City          string      `json:"city"`
	Country       string      `json:"country"`
	Status        EventStatus `json:"status"`
	CategoryID    int64       `json:"category_id"`
}

// Normalize trims text fields and fills the default status.
func (in *EventInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.OnlineLink = strings.TrimSpace(in.OnlineLink)
	in.StreetAddress = strings.TrimSpace(in.StreetAddress)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	if in.Status == "" {
		in.Status = EventStatusActive
	}
}

// Validate checks field rules and the location invariant: an online event
// carries a link and no address, a physical event carries a full address
// and no link.
func (in *EventInput) Validate() error {
	switch {
	case in.Title == "":
		return NewValidationError("title", "is required")
	case len(in.Title) > 255:
		return NewValidationError("title", "must be at most 255 characters")
	case in.StartDate.IsZero():
		return NewValidationError("start_date", "is required")
	case in.EndDate.IsZero():
		return NewValidationError("end_date", "is required")
	case !in.EndDate.After(in.StartDate):
		return NewValidationError("end_date", "must be after start_date")
	case in.Capacity != nil && *in.Capacity < 1:
		return NewValidationError("capacity", "must be at least 1")
	case in.Price < 0:
		return NewValidationError("price", "must not be negative")
	case in.CategoryID <= 0:
		return NewValidationError("category_id", "is required")
	case !in.Status.Valid():
		return NewValidationError("status", "unknown status %q", in.Status)
	}

	if in.IsOnline {
		if in.OnlineLink == "" {
			return NewValidationError("online_link", "is required for online events")
		}
		if !isHTTPURL(in.OnlineLink) {
			return NewValidationError("online_link", "must be an http(s) URL")
		}
		if in.StreetAddress != "" || in.City != "" || in.Country != "" {
			return NewValidationError("street_address", "must be empty for online events")
		}
		return nil
	}

	if in.OnlineLink != "" {
		return NewValidationError("online_link", "must be empty for in-person events")
	}
	switch {
	case in.StreetAddress == "":
		return NewValidationError("street_address", "is required for in-person events")
	case in.City == "":
		return NewValidationError("city", "is required for in-person events")
	case in.Country == "":
		return NewValidationError("country", "is required for in-person events")
	}
	return nil
}

// Apply copies the input onto e. Coordinates are left to the caller.
func (in *EventInput) Apply(e *Event) {
	e.Title = in.Title
	e.Description = in.Description
	e.StartDate = in.StartDate.UTC()
	e.EndDate = in.EndDate.UTC()
	e.Capacity = in.Capacity
	e.Price = in.Price
	e.IsOnline = in.IsOnline
	e.OnlineLink = in.OnlineLink
	e.StreetAddress = in.StreetAddress
	e.City = in.City
	e.Country = in.Country
	e.Status = in.Status
	e.CategoryID = in.CategoryID
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Category groups events for browsing.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
