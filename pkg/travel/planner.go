// Package travel plans a trip on the device: the first flight on a route, a
// hotel in the destination city, an airport cab timed after landing, and a
// language-model itinerary, rendered together as a Mermaid graph.
package travel

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/extract"
	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/llm"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	flightTemplate    = prompt.Must(prompt.FromFS(templateFS, "templates/flight.tmpl", nil))
	cabTemplate       = prompt.Must(prompt.FromFS(templateFS, "templates/cab.tmpl", nil))
	hotelTemplate     = prompt.Must(prompt.FromFS(templateFS, "templates/hotel.tmpl", nil))
	itineraryTemplate = prompt.Must(prompt.FromFS(templateFS, "templates/itinerary.tmpl", nil))
)

const (
	// PickupBuffer separates flight arrival from the cab pickup.
	PickupBuffer = 45 * time.Minute
	// DefaultDays is the itinerary length when none is given.
	DefaultDays = 3

	FlightApp = "MakeMyTrip"
	CabApp    = "MakeMyTrip"
	HotelApp  = "Booking.com"
)

// Request describes one trip.
type Request struct {
	From      string `json:"source"`
	To        string `json:"destination"`
	Date      string `json:"date"`
	Interests string `json:"user_interests,omitempty"`
	Days      int    `json:"days,omitempty"`
}

// Validate reports missing route fields.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.From) == "":
		return errors.New("travel: source is required")
	case strings.TrimSpace(r.To) == "":
		return errors.New("travel: destination is required")
	case strings.TrimSpace(r.Date) == "":
		return errors.New("travel: date is required")
	case r.Days < 0:
		return errors.New("travel: days cannot be negative")
	}
	return nil
}

// Planner runs the travel steps one at a time on the shared device.
type Planner struct {
	router  router.Dispatcher
	llm     llm.Completer
	out     io.Writer
	journal *journal.Writer
	now     func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithStatus sets where progress lines go.
func WithStatus(w io.Writer) Option {
	return func(p *Planner) {
		if w != nil {
			p.out = w
		}
	}
}

// WithJournal records each finished plan.
func WithJournal(j *journal.Writer) Option {
	return func(p *Planner) { p.journal = j }
}

// WithClock overrides time.Now for default arrival times.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPlanner creates a Planner. cm may be nil, in which case itineraries
// come back empty.
func NewPlanner(d router.Dispatcher, cm llm.Completer, opts ...Option) *Planner {
	p := &Planner{router: d, llm: cm, out: io.Discard, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindFlight returns the first flight listed for the route.
func (p *Planner) FindFlight(ctx context.Context, from, to, date string) (FlightDetails, error) {
	p.printf("Searching flight: %s to %s on %s\n", from, to, date)
	payload, err := p.dispatch(ctx, FlightApp, flightTemplate, struct{ App, From, To, Date string }{FlightApp, from, to, date})
	if err != nil {
		return FlightDetails{}, fmt.Errorf("travel: flight search: %w", err)
	}
	return FlightFrom(payload, p.now())
}

// BookCab books an airport transfer to destination picking up PickupBuffer
// after arrival.
func (p *Planner) BookCab(ctx context.Context, city, destination string, arrival time.Time) (CabDetails, error) {
	pickup := arrival.Add(PickupBuffer)
	p.printf("Booking cab to %s for %s (%s after arrival)\n", destination, pickup.Format("15:04"), PickupBuffer)
	payload, err := p.dispatch(ctx, CabApp, cabTemplate, struct {
		App, City, Destination, PickupClock, PickupStamp string
	}{CabApp, city, destination, pickup.Format("15:04"), pickup.Format(TimeLayout)})
	if err != nil {
		return CabDetails{}, fmt.Errorf("travel: cab booking: %w", err)
	}
	return CabFrom(payload, pickup)
}

// FindHotel returns the first hotel listed in city.
func (p *Planner) FindHotel(ctx context.Context, city, checkIn string) (HotelDetails, error) {
	p.printf("Searching hotel in %s for %s\n", city, checkIn)
	payload, err := p.dispatch(ctx, HotelApp, hotelTemplate, struct{ App, City, CheckIn string }{HotelApp, city, checkIn})
	if err != nil {
		return HotelDetails{}, fmt.Errorf("travel: hotel search: %w", err)
	}
	return HotelFrom(payload), nil
}

// Itinerary asks the language model for a day-by-day schedule around hotel.
func (p *Planner) Itinerary(ctx context.Context, hotel, interests string, days int) ([]ItineraryDay, error) {
	if p.llm == nil {
		return nil, errors.New("travel: no language model configured")
	}
	if days <= 0 {
		days = DefaultDays
	}
	p.printf("Generating %d-day itinerary\n", days)
	text, err := itineraryTemplate.Render(struct {
		Days             int
		Hotel, Interests string
	}{days, hotel, interests})
	if err != nil {
		return nil, err
	}
	reply, err := llm.Complete(ctx, p.llm, llm.User(text))
	if err != nil {
		return nil, fmt.Errorf("travel: itinerary: %w", err)
	}
	var schedule []ItineraryDay
	if err := extract.Array(reply, &schedule); err != nil {
		return nil, fmt.Errorf("travel: itinerary: %w", err)
	}
	return normalizeDays(schedule), nil
}

// Plan runs flight, hotel, cab and itinerary in that order. Device steps are
// required; an itinerary failure leaves the schedule empty.
func (p *Planner) Plan(ctx context.Context, req Request) (*TripPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	plan, err := p.plan(ctx, req)

	rec := &journal.Report{
		Kind:         "trip",
		Success:      err == nil,
		PromptDigest: prompt.Digest(flightTemplate, hotelTemplate, cabTemplate, itineraryTemplate),
		Summary:      plan,
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	if _, jerr := p.journal.Write(rec); jerr != nil {
		logx.Errorf("travel: journal write failed: %v", jerr)
	}
	return plan, err
}

func (p *Planner) plan(ctx context.Context, req Request) (*TripPlan, error) {
	flight, err := p.FindFlight(ctx, req.From, req.To, req.Date)
	if err != nil {
		return nil, err
	}
	p.printf("  flight: %s %s arriving %s\n", flight.Airline, flight.FlightNumber, flight.ArrivalTime.Format(TimeLayout))
	p.router.ResetBaseline(ctx)

	hotel, err := p.FindHotel(ctx, req.To, req.Date)
	if err != nil {
		return nil, err
	}
	p.printf("  hotel: %s (%s)\n", hotel.Name, hotel.PricePerNight)
	p.router.ResetBaseline(ctx)

	destination := hotel.Address
	if hotel.Address == "Unknown Address" {
		destination = hotel.Name
	}
	cab, err := p.BookCab(ctx, req.To, destination, flight.ArrivalTime)
	if err != nil {
		return nil, err
	}
	p.printf("  cab: %s at %s\n", cab.Provider, cab.PickupTime.Format("15:04"))
	p.router.ResetBaseline(ctx)

	schedule, err := p.Itinerary(ctx, hotel.Name, req.Interests, req.Days)
	if err != nil {
		logx.WithContext(ctx).Slowf("travel: itinerary unavailable: %v", err)
		p.printf("  itinerary unavailable: %v\n", err)
		schedule = []ItineraryDay{}
	}

	plan := &TripPlan{Flight: flight, ArrivalCab: cab, Hotel: hotel, DailySchedule: schedule}
	logx.WithContext(ctx).Infow("trip planned",
		logx.Field("route", req.From+"->"+req.To),
		logx.Field("hotel", hotel.Name),
		logx.Field("days", len(schedule)),
	)
	return plan, nil
}

func (p *Planner) dispatch(ctx context.Context, app string, tmpl *prompt.Template, data any) (task.Payload, error) {
	instruction, err := tmpl.Render(data)
	if err != nil {
		return nil, err
	}
	res := p.router.Dispatch(ctx, task.Goal{Target: app, Instruction: instruction})
	if err := res.Err(); err != nil {
		return nil, err
	}
	if res.Payload.Status() == "failed" {
		return nil, fmt.Errorf("agent reported failure: %s", res.Payload.StringOr("error", res.Payload.StringOr("message", "unknown")))
	}
	return res.Payload, nil
}

func (p *Planner) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
