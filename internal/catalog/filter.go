// Package catalog narrows an already fetched event list by the browse
// facets (price, date bucket, category, format and free-text search) and
// orders it.
package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// PriceBucket selects free or paid events.
type PriceBucket string

const (
	PriceFree PriceBucket = "free"
	PricePaid PriceBucket = "paid"
)

// DateBucket selects events by the calendar day they start on.
type DateBucket string

const (
	DateToday       DateBucket = "today"
	DateTomorrow    DateBucket = "tomorrow"
	DateThisWeek    DateBucket = "this_week"
	DateThisWeekend DateBucket = "this_weekend"
	DatePickDate    DateBucket = "pick_date"
)

// Sort orders the browse result.
type Sort string

const (
	// SortLatest keeps the store order, newest first.
	SortLatest Sort = "latest"
	// SortUpcoming keeps only active events that have not started yet,
	// soonest first.
	SortUpcoming Sort = "upcoming"
)

// FilterState holds the selected values of every facet. An empty facet
// imposes no constraint. Facets are AND-combined, values inside one facet
// are OR-combined.
type FilterState struct {
	Prices     []PriceBucket
	Dates      []DateBucket
	CustomDate time.Time // only read by DatePickDate; zero means unset
	Categories []int64
	Formats    []model.Format
	Search     string // case-insensitive match on title or description
	Sort       Sort   // empty means SortLatest
}

// Empty reports whether no facet is selected and the default order applies.
func (s FilterState) Empty() bool {
	return len(s.Prices) == 0 && len(s.Dates) == 0 &&
		len(s.Categories) == 0 && len(s.Formats) == 0 &&
		s.Search == "" && (s.Sort == "" || s.Sort == SortLatest)
}

// Filter returns the events matching st. Input order is preserved unless
// st.Sort is SortUpcoming. Calendar days are evaluated in loc relative to
// now; a nil loc means UTC.
func Filter(events []model.Event, st FilterState, now time.Time, loc *time.Location) []model.Event {
	if loc == nil {
		loc = time.UTC
	}
	w := newWindow(now, loc)
	search := strings.ToLower(strings.TrimSpace(st.Search))
	upcoming := st.Sort == SortUpcoming

	out := make([]model.Event, 0, len(events))
	for i := range events {
		e := &events[i]
		if upcoming && (e.Status != model.EventStatusActive || !e.StartDate.After(now)) {
			continue
		}
		if matchPrice(e, st.Prices) &&
			w.matchDate(e.StartDate, st.Dates, st.CustomDate) &&
			matchCategory(e, st.Categories) &&
			matchFormat(e, st.Formats) &&
			matchSearch(e, search) {
			out = append(out, *e)
		}
	}
	if upcoming {
		slices.SortStableFunc(out, func(a, b model.Event) int {
			return a.StartDate.Compare(b.StartDate)
		})
	}
	return out
}

// matchSearch expects needle already lower-cased.
func matchSearch(e *model.Event, needle string) bool {
	return needle == "" ||
		strings.Contains(strings.ToLower(e.Title), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle)
}

func matchPrice(e *model.Event, prices []PriceBucket) bool {
	if len(prices) == 0 {
		return true
	}
	for _, p := range prices {
		switch p {
		case PriceFree:
			if e.IsFree() {
				return true
			}
		case PricePaid:
			if !e.IsFree() {
				return true
			}
		}
	}
	return false
}

func matchCategory(e *model.Event, ids []int64) bool {
	return len(ids) == 0 || slices.Contains(ids, e.CategoryID)
}

func matchFormat(e *model.Event, formats []model.Format) bool {
	return len(formats) == 0 || slices.Contains(formats, e.Format())
}

// window holds the day boundaries derived from now. Days are represented as
// UTC midnights of the civil date in loc so they compare and add cleanly.
type window struct {
	loc          *time.Location
	today        time.Time
	tomorrow     time.Time
	weekEnd      time.Time
	weekendStart time.Time
}

func newWindow(now time.Time, loc *time.Location) window {
	today := civilDay(now, loc)
	wd := int(now.In(loc).Weekday()) // Sunday = 0
	return window{
		loc:          loc,
		today:        today,
		tomorrow:     today.AddDate(0, 0, 1),
		weekEnd:      today.AddDate(0, 0, 7-wd),
		weekendStart: today.AddDate(0, 0, 6-wd),
	}
}

func (w window) matchDate(start time.Time, buckets []DateBucket, custom time.Time) bool {
	if len(buckets) == 0 {
		return true
	}
	if start.IsZero() {
		return false
	}
	d := civilDay(start, w.loc)

	for _, b := range buckets {
		switch b {
		case DateToday:
			if d.Equal(w.today) {
				return true
			}
		case DateTomorrow:
			if d.Equal(w.tomorrow) {
				return true
			}
		case DateThisWeek:
			if !d.Before(w.today) && !d.After(w.weekEnd) {
				return true
			}
		case DateThisWeekend:
			if !d.Before(w.weekendStart) && !d.After(w.weekEnd) {
				return true
			}
		case DatePickDate:
			// Without a chosen day the bucket is not yet a constraint.
			if custom.IsZero() || d.Equal(civilDay(custom, custom.Location())) {
				return true
			}
		}
	}
	return false
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseFilterState reads facets from query parameters. Each of price, date,
// category and format may be repeated or comma-separated; custom_date is a
// YYYY-MM-DD day. category_id and is_online are single-valued aliases for
// category and format. Unknown or malformed values are dropped.
func ParseFilterState(q url.Values) FilterState {
	var st FilterState

	for _, v := range splitValues(q["price"]) {
		if p := PriceBucket(v); p == PriceFree || p == PricePaid {
			st.Prices = appendUnique(st.Prices, p)
		}
	}
	for _, v := range splitValues(q["date"]) {
		switch b := DateBucket(v); b {
		case DateToday, DateTomorrow, DateThisWeek, DateThisWeekend, DatePickDate:
			st.Dates = appendUnique(st.Dates, b)
		}
	}
	if raw := strings.TrimSpace(q.Get("custom_date")); raw != "" {
		if d, err := time.Parse(time.DateOnly, raw); err == nil {
			st.CustomDate = d
		}
	}
	for _, v := range splitValues(slices.Concat(q["category"], q["category_id"])) {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			st.Categories = appendUnique(st.Categories, id)
		}
	}
	for _, v := range splitValues(q["format"]) {
		if f := model.Format(v); f == model.FormatOnline || f == model.FormatInPerson {
			st.Formats = appendUnique(st.Formats, f)
		}
	}
	if raw := strings.TrimSpace(q.Get("is_online")); raw != "" {
		if online, err := strconv.ParseBool(raw); err == nil {
			f := model.FormatInPerson
			if online {
				f = model.FormatOnline
			}
			st.Formats = appendUnique(st.Formats, f)
		}
	}
	st.Search = strings.TrimSpace(q.Get("search"))
	if Sort(strings.ToLower(strings.TrimSpace(q.Get("sort")))) == SortUpcoming {
		st.Sort = SortUpcoming
	}
	return st
}

func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
