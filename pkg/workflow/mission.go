package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/basket"
	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/coordinator"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
	"github.com/adityaadep2008/TrioAgent/pkg/travel"
)

// Persona selects which workflow a mission runs.
type Persona string

const (
	PersonaShopper     Persona = "shopper"
	PersonaRider       Persona = "rider"
	PersonaPatient     Persona = "patient"
	PersonaFoodie      Persona = "foodie"
	PersonaCoordinator Persona = "coordinator"
	PersonaTraveller   Persona = "traveller"
)

// Personas lists every accepted persona.
func Personas() []Persona {
	return []Persona{PersonaShopper, PersonaRider, PersonaPatient, PersonaFoodie, PersonaCoordinator, PersonaTraveller}
}

// ErrUnknownPersona is returned for a mission naming no known workflow.
var ErrUnknownPersona = errors.New("workflow: unknown persona")

// Mission is one queued request. Which fields matter depends on Persona.
type Mission struct {
	Persona Persona `json:"persona"`
	// Action is book|order to commit on the winner; anything else compares.
	Action    string   `json:"action,omitempty"`
	Providers []string `json:"providers,omitempty"`

	Product    string `json:"product,omitempty"`
	Pickup     string `json:"pickup,omitempty"`
	Drop       string `json:"drop,omitempty"`
	Preference string `json:"preference,omitempty"`
	FoodItem   string `json:"food_item,omitempty"`

	Medicine []basket.Item `json:"medicine,omitempty"`
	Role     string        `json:"role,omitempty"`

	EventName     string   `json:"event_name,omitempty"`
	EventDate     string   `json:"event_date,omitempty"`
	EventTime     string   `json:"event_time,omitempty"`
	EventLocation string   `json:"event_location,omitempty"`
	GuestList     []string `json:"guest_list,omitempty"`

	Source        string `json:"source,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Date          string `json:"date,omitempty"`
	UserInterests string `json:"user_interests,omitempty"`
	Days          int    `json:"days,omitempty"`
}

// Validate checks the fields the persona needs.
func (m Mission) Validate() error {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	switch m.Persona {
	case PersonaShopper:
		if blank(m.Product) {
			return errors.New("workflow: shopper mission needs a product")
		}
	case PersonaRider:
		if blank(m.Pickup) || blank(m.Drop) {
			return errors.New("workflow: rider mission needs pickup and drop")
		}
	case PersonaPatient:
		if len(m.Medicine) == 0 {
			return errors.New("workflow: patient mission needs at least one medicine")
		}
		for _, it := range m.Medicine {
			if blank(it.Name) || it.Qty < 0 {
				return fmt.Errorf("workflow: invalid medicine line %q x%d", it.Name, it.Qty)
			}
		}
	case PersonaFoodie:
		if blank(m.FoodItem) {
			return errors.New("workflow: foodie mission needs a food item")
		}
	case PersonaCoordinator:
		if blank(m.EventName) || len(m.GuestList) == 0 {
			return errors.New("workflow: coordinator mission needs an event name and guests")
		}
	case PersonaTraveller:
		return m.tripRequest(0).Validate()
	default:
		return fmt.Errorf("%w %q", ErrUnknownPersona, m.Persona)
	}
	return nil
}

// Commits reports whether the mission asks to order or book the winner.
func (m Mission) Commits() bool {
	switch strings.ToLower(strings.TrimSpace(m.Action)) {
	case "book", "order", "buy":
		return true
	}
	return false
}

func (m Mission) tripRequest(days int) travel.Request {
	if m.Days > 0 {
		days = m.Days
	}
	return travel.Request{From: m.Source, To: m.Destination, Date: m.Date, Interests: m.UserInterests, Days: days}
}

// Outcome is what a mission produced. Exactly one workflow field is set.
type Outcome struct {
	Persona    Persona              `json:"persona"`
	Summary    string               `json:"summary"`
	Comparison *compare.Comparison  `json:"comparison,omitempty"`
	Commit     *task.Result         `json:"commit,omitempty"`
	Basket     *basket.Result       `json:"basket,omitempty"`
	Event      *coordinator.Summary `json:"event,omitempty"`
	Trip       *travel.TripPlan     `json:"trip,omitempty"`
	// Graph is the Mermaid rendering of a trip plan.
	Graph string `json:"graph,omitempty"`
}

// Run executes one mission to completion on the suite's device.
func (s *Suite) Run(ctx context.Context, m Mission) (*Outcome, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logx.WithContext(ctx).Infow("mission started", logx.Field("persona", string(m.Persona)))

	out := &Outcome{Persona: m.Persona}
	run := func(ctx context.Context) error {
		switch m.Persona {
		case PersonaShopper:
			return s.compare(ctx, out, m, compare.Request{Domain: compare.DomainShopping, Query: m.Product, Providers: m.Providers})
		case PersonaFoodie:
			return s.compare(ctx, out, m, compare.Request{Domain: compare.DomainFood, Query: m.FoodItem, Providers: m.Providers})
		case PersonaRider:
			return s.compare(ctx, out, m, compare.Request{
				Domain:     compare.DomainRide,
				Pickup:     m.Pickup,
				Drop:       m.Drop,
				Preference: m.Preference,
				Providers:  m.Providers,
			})
		case PersonaPatient:
			return s.basket(ctx, out, m)
		case PersonaCoordinator:
			return s.event(ctx, out, m)
		case PersonaTraveller:
			return s.trip(ctx, out, m)
		}
		return nil
	}
	// Every step of a mission assumes the device is where the previous step
	// left it, so nothing else may dispatch in between.
	var err error
	if h, ok := s.Router.(router.Holder); ok {
		err = h.Hold(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("mission %s failed: %v", m.Persona, err)
		return out, err
	}
	logx.WithContext(ctx).Infow("mission finished", logx.Field("persona", string(m.Persona)), logx.Field("summary", out.Summary))
	return out, nil
}

func (s *Suite) compare(ctx context.Context, out *Outcome, m Mission, req compare.Request) error {
	var err error
	if m.Commits() {
		out.Comparison, out.Commit, err = s.Compare.CompareAndCommit(ctx, req)
	} else {
		out.Comparison, err = s.Compare.Compare(ctx, req)
	}
	if err != nil {
		return err
	}
	out.Summary = summarizeComparison(out.Comparison, out.Commit)
	return nil
}

func summarizeComparison(cmp *compare.Comparison, commit *task.Result) string {
	if !cmp.HasWinner() {
		return "No provider returned a valid price."
	}
	w := cmp.Winner
	text := fmt.Sprintf("Cheapest on %s: %s at %.2f.", w.Provider, w.Quote.Title, w.Price)
	switch {
	case commit == nil:
	case commit.OK():
		text += fmt.Sprintf(" Placed on %s.", w.Provider)
	default:
		text += fmt.Sprintf(" Placing it failed: %s.", strings.TrimSuffix(commit.Failure.Message, "."))
	}
	return text
}

func (s *Suite) basket(ctx context.Context, out *Outcome, m Mission) error {
	items := make([]basket.Item, 0, len(m.Medicine))
	for _, it := range m.Medicine {
		if it.Qty == 0 {
			it.Qty = 1
		}
		items = append(items, it)
	}
	role := m.Role
	if role == "" {
		role = basket.RolePatient
	}
	res, err := s.Basket.Compare(ctx, items, role, m.Providers)
	if err != nil {
		return err
	}
	out.Basket = res
	if res.Best == nil {
		out.Summary = "No provider had every item."
	} else {
		out.Summary = fmt.Sprintf("Best basket on %s: %.2f for %d item(s).", res.Best.Provider, res.Best.Total, len(items))
	}
	return nil
}

func (s *Suite) event(ctx context.Context, out *Outcome, m Mission) error {
	run, err := s.Event.NewRun(m.GuestList, coordinator.Event{
		Name:     m.EventName,
		Date:     m.EventDate,
		Time:     m.EventTime,
		Location: m.EventLocation,
	})
	if err != nil {
		return err
	}
	sum, err := s.Event.Execute(ctx, run)
	if err != nil {
		return err
	}
	out.Event = sum
	out.Summary = sum.Message
	return nil
}

func (s *Suite) trip(ctx context.Context, out *Outcome, m Mission) error {
	plan, err := s.Travel.Plan(ctx, m.tripRequest(s.days))
	if err != nil {
		return err
	}
	out.Trip = plan
	out.Graph = travel.Mermaid(plan)
	out.Summary = fmt.Sprintf("Trip planned: %s %s, staying at %s, %d-day itinerary.",
		plan.Flight.Airline, plan.Flight.FlightNumber, plan.Hotel.Name, len(plan.DailySchedule))
	return nil
}
