package coordinator

import (
	"fmt"
	"strings"
	"time"

	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// Phase is a participant's position in the run.
type Phase string

const (
	PhaseInvited    Phase = "invited"
	PhaseReplied    Phase = "replied"
	PhaseResearched Phase = "researched"
)

// RunPhase is the run-level stage.
type RunPhase string

const (
	RunNew       RunPhase = "NEW"
	RunBroadcast RunPhase = "BROADCAST"
	RunPoll      RunPhase = "POLL"
	RunCommit    RunPhase = "COMMIT"
	RunDone      RunPhase = "DONE"
)

// Event describes what the contacts are invited to.
type Event struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location"`
}

// InviteMessage is the text sent to every contact.
func (e Event) InviteMessage() string {
	when := e.Date
	if strings.TrimSpace(e.Time) != "" {
		when = fmt.Sprintf("%s at %s", e.Date, e.Time)
	}
	return fmt.Sprintf("Hi! Invited to %s on %s. Loc: %s. Please Reply with FOOD PREFERENCE (e.g. Pizza).", e.Name, when, e.Location)
}

// Outcome is the research result for one requested item.
type Outcome struct {
	Item  string        `json:"item_wanted"`
	Offer compare.Offer `json:"offer"`
	// Title is the exact item title matched on the winning provider.
	Title string `json:"exact_title"`
}

// Participant is one invited contact.
type Participant struct {
	Contact     string    `json:"contact"`
	Phase       Phase     `json:"phase"`
	InviteError string    `json:"invite_error,omitempty"`
	Requested   []string  `json:"requested,omitempty"`
	Outcomes    []Outcome `json:"outcomes,omitempty"`
}

// Order is one outcome to be committed on behalf of a person.
type Order struct {
	Person string `json:"person"`
	Outcome
}

// OrderResult pairs an order with what the provider answered.
type OrderResult struct {
	Order
	Result task.Result `json:"result"`
}

// Run is the full state of one coordination run. It is owned by the caller
// and can be dropped once COMMIT returns.
type Run struct {
	ID           string         `json:"id"`
	Event        Event          `json:"event"`
	Phase        RunPhase       `json:"phase"`
	Contacts     []string       `json:"contacts"`
	Participants []*Participant `json:"participants"`
	Cycles       int            `json:"cycles"`
	Orders       []OrderResult  `json:"orders,omitempty"`
	NoOp         bool           `json:"no_op"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at,omitempty"`
}

func (r *Run) enter(from, to RunPhase) error {
	if r == nil {
		return fmt.Errorf("%w: nil run", ErrPhaseOrder)
	}
	if r.Phase != from {
		return fmt.Errorf("%w: cannot enter %s from %s", ErrPhaseOrder, to, r.Phase)
	}
	r.Phase = to
	return nil
}

// pending returns participants still waiting for a reply, in contact order.
func (r *Run) pending() []*Participant {
	var out []*Participant
	for _, p := range r.Participants {
		if p.Phase == PhaseInvited {
			out = append(out, p)
		}
	}
	return out
}

// orders flattens outcomes of researched participants only.
func (r *Run) orders() []Order {
	var out []Order
	for _, p := range r.Participants {
		if p.Phase != PhaseResearched {
			continue
		}
		for _, o := range p.Outcomes {
			out = append(out, Order{Person: p.Contact, Outcome: o})
		}
	}
	return out
}

// Summary is the structured report printed at the end of a run.
type Summary struct {
	RunID        string         `json:"run_id"`
	Event        Event          `json:"event"`
	Cycles       int            `json:"cycles"`
	Participants []*Participant `json:"participants"`
	Orders       []OrderResult  `json:"orders"`
	Placed       int            `json:"placed"`
	Failed       int            `json:"failed"`
	NoOp         bool           `json:"no_op"`
	Message      string         `json:"message"`
}

// Summary builds the end-of-run report.
func (r *Run) Summary() *Summary {
	s := &Summary{
		RunID:        r.ID,
		Event:        r.Event,
		Cycles:       r.Cycles,
		Participants: r.Participants,
		Orders:       r.Orders,
		NoOp:         r.NoOp,
	}
	if s.Orders == nil {
		s.Orders = []OrderResult{}
	}
	for _, o := range r.Orders {
		if o.Result.OK() {
			s.Placed++
		} else {
			s.Failed++
		}
	}
	switch {
	case r.NoOp:
		s.Message = "No valid orders to place; nothing was ordered."
	case s.Failed == 0:
		s.Message = fmt.Sprintf("Event coordination complete: %d order(s) placed.", s.Placed)
	default:
		s.Message = fmt.Sprintf("Event coordination complete: %d order(s) placed, %d failed.", s.Placed, s.Failed)
	}
	return s
}
