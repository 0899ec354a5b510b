// Package coordinator drives a multi-party event run on the shared device:
// invite every contact, poll for replies within a bounded number of cycles,
// research each requested item across providers, then place every order.
package coordinator

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	inviteTemplate = prompt.Must(prompt.FromFS(templateFS, "templates/invite.tmpl", nil))
	checkTemplate  = prompt.Must(prompt.FromFS(templateFS, "templates/check_reply.tmpl", nil))
)

// ErrPhaseOrder is returned when a phase is started out of order.
var ErrPhaseOrder = errors.New("coordinator: phase out of order")

const statusNewReply = "new_reply"

// Coordinator runs coordination runs. It holds no per-run state.
type Coordinator struct {
	router  router.Dispatcher
	cmp     *compare.Comparator
	cfg     Config
	out     io.Writer
	journal *journal.Writer
	sleep   func(context.Context, time.Duration) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStatus sets where human-readable transition lines go.
func WithStatus(w io.Writer) Option {
	return func(c *Coordinator) {
		if w != nil {
			c.out = w
		}
	}
}

// WithJournal records each finished run.
func WithJournal(j *journal.Writer) Option {
	return func(c *Coordinator) { c.journal = j }
}

// New creates a Coordinator. cmp is used for research and ordering and
// should reset the device baseline before each provider.
func New(d router.Dispatcher, cmp *compare.Comparator, cfg Config, opts ...Option) *Coordinator {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = DefaultConfig().MaxCycles
	}
	if cfg.MessagingApp == "" {
		cfg.MessagingApp = DefaultConfig().MessagingApp
	}
	if cfg.ResearchDomain == "" {
		cfg.ResearchDomain = compare.DomainFood
	}
	c := &Coordinator{
		router: d,
		cmp:    cmp,
		cfg:    cfg,
		out:    io.Discard,
		sleep:  compare.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRun validates the contact list and returns a fresh run owned by the caller.
func (c *Coordinator) NewRun(contacts []string, ev Event) (*Run, error) {
	var cleaned []string
	seen := make(map[string]struct{}, len(contacts))
	for _, contact := range contacts {
		contact = strings.TrimSpace(contact)
		if contact == "" {
			continue
		}
		key := strings.ToLower(contact)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, contact)
	}
	if len(cleaned) == 0 {
		return nil, errors.New("coordinator: at least one contact is required")
	}
	if strings.TrimSpace(ev.Name) == "" {
		return nil, errors.New("coordinator: event name is required")
	}
	return &Run{
		ID:        uuid.NewString(),
		Event:     ev,
		Phase:     RunNew,
		Contacts:  cleaned,
		StartedAt: time.Now(),
	}, nil
}

// Execute runs BROADCAST, POLL and COMMIT in order.
func (c *Coordinator) Execute(ctx context.Context, run *Run) (*Summary, error) {
	if err := c.Broadcast(ctx, run); err != nil {
		return nil, err
	}
	if err := c.Poll(ctx, run); err != nil {
		return nil, err
	}
	return c.Commit(ctx, run)
}

// Broadcast invites every contact. A failed send still leaves the
// participant invited; the poll budget resolves it.
func (c *Coordinator) Broadcast(ctx context.Context, run *Run) error {
	if err := run.enter(RunNew, RunBroadcast); err != nil {
		return err
	}
	msg := run.Event.InviteMessage()
	c.printf("=== PHASE 1: SENDING INVITES (%d contacts) ===\n", len(run.Contacts))

	for i, contact := range run.Contacts {
		if i > 0 {
			if err := c.sleep(ctx, c.cfg.StepDelay); err != nil {
				return err
			}
		}
		c.router.ResetBaseline(ctx)
		p := &Participant{Contact: contact, Phase: PhaseInvited}
		res := c.dispatch(ctx, inviteTemplate, map[string]string{
			"App":     c.cfg.MessagingApp,
			"Contact": contact,
			"Message": msg,
		})
		if !res.OK() {
			p.InviteError = res.Failure.Error()
			c.printf("  invite to %s not confirmed: %s\n", contact, p.InviteError)
		} else {
			c.printf("  invited %s\n", contact)
		}
		run.Participants = append(run.Participants, p)
		c.router.ResetBaseline(ctx)
	}
	c.printf("Phase 1 complete: %d invites sent.\n", len(run.Participants))
	logx.WithContext(ctx).Infow("coordinator broadcast done", logx.Field("run", run.ID), logx.Field("participants", len(run.Participants)))
	return nil
}

// Poll checks pending participants for replies for at most MaxCycles
// cycles, researching each reply as it arrives. It stops early once nobody
// is left invited and does not sleep after the final cycle.
func (c *Coordinator) Poll(ctx context.Context, run *Run) error {
	if err := run.enter(RunBroadcast, RunPoll); err != nil {
		return err
	}
	c.printf("=== PHASE 2: POLLING & RESEARCH (max %d cycles) ===\n", c.cfg.MaxCycles)
	snippet := run.Event.InviteMessage()
	if len(snippet) > 15 {
		snippet = snippet[:15]
	}

	for cycle := 1; cycle <= c.cfg.MaxCycles; cycle++ {
		run.Cycles = cycle
		c.printf("Cycle %d/%d\n", cycle, c.cfg.MaxCycles)

		pending := run.pending()
		for i, p := range pending {
			if i > 0 {
				if err := c.sleep(ctx, c.cfg.StepDelay); err != nil {
					return err
				}
			}
			c.checkParticipant(ctx, p, snippet)
		}

		if len(run.pending()) == 0 {
			c.printf("All contacts replied and were researched.\n")
			break
		}
		if cycle == c.cfg.MaxCycles {
			break
		}
		c.printf("  %d contact(s) still waiting, sleeping %s\n", len(run.pending()), c.cfg.IdleInterval)
		c.router.ResetBaseline(ctx)
		if err := c.sleep(ctx, c.cfg.IdleInterval); err != nil {
			return err
		}
	}

	if n := len(run.pending()); n > 0 {
		c.printf("Poll budget exhausted after %d cycle(s); %d contact(s) never replied.\n", run.Cycles, n)
	}
	logx.WithContext(ctx).Infow("coordinator poll done",
		logx.Field("run", run.ID),
		logx.Field("cycles", run.Cycles),
		logx.Field("pending", len(run.pending())),
	)
	return nil
}

func (c *Coordinator) checkParticipant(ctx context.Context, p *Participant, snippet string) {
	c.router.ResetBaseline(ctx)
	res := c.dispatch(ctx, checkTemplate, map[string]string{
		"App":     c.cfg.MessagingApp,
		"Contact": p.Contact,
		"Snippet": snippet,
	})
	if !res.OK() || res.Payload.Status() != statusNewReply {
		c.printf("  %s has not replied yet\n", p.Contact)
		return
	}
	items := res.Payload.Strings("items")
	if len(items) == 0 {
		items = res.Payload.Strings("content")
	}
	if len(items) == 0 {
		c.printf("  %s replied but no items were found\n", p.Contact)
		return
	}

	p.Phase = PhaseReplied
	p.Requested = items
	c.printf("  %s replied: %s\n", p.Contact, strings.Join(items, ", "))

	for _, item := range items {
		outcome, ok := c.research(ctx, item)
		if ok {
			p.Outcomes = append(p.Outcomes, outcome)
		}
	}
	p.Phase = PhaseResearched
	c.printf("  %s researched: %d of %d item(s) priced\n", p.Contact, len(p.Outcomes), len(items))
}

func (c *Coordinator) research(ctx context.Context, item string) (Outcome, bool) {
	cmp, err := c.cmp.Compare(ctx, compare.Request{Domain: c.cfg.ResearchDomain, Query: item})
	if err != nil || !cmp.HasWinner() {
		c.printf("    no price found for %s on any provider\n", item)
		return Outcome{}, false
	}
	w := *cmp.Winner
	title := w.Quote.Title
	if title == "" {
		title = item
	}
	c.printf("    winner for %s: %s @ %s\n", item, w.Provider, w.Quote.Price)
	return Outcome{Item: item, Offer: w, Title: title}, true
}

// Commit flattens every research outcome into orders and places them one by
// one. An empty order list ends the run as a reported no-op.
func (c *Coordinator) Commit(ctx context.Context, run *Run) (*Summary, error) {
	if err := run.enter(RunPoll, RunCommit); err != nil {
		return nil, err
	}
	c.printf("=== PHASE 3: BULK ORDER ===\n")

	orders := run.orders()
	if len(orders) == 0 {
		run.NoOp = true
		c.printf("No valid orders to place.\n")
	} else {
		c.printf("Placing %d order(s)\n", len(orders))
	}
	for i, order := range orders {
		if i > 0 {
			if err := c.sleep(ctx, c.cfg.OrderCooldown); err != nil {
				return nil, err
			}
		}
		c.printf("  ordering for %s: %s on %s\n", order.Person, order.Title, order.Offer.Provider)
		res := c.cmp.Commit(ctx, compare.CommitRequest{
			Domain:   c.cfg.ResearchDomain,
			Provider: order.Offer.Provider,
			Query:    order.Item,
			Title:    order.Title,
		})
		run.Orders = append(run.Orders, OrderResult{Order: order, Result: res})
	}

	run.Phase = RunDone
	run.FinishedAt = time.Now()
	summary := run.Summary()
	c.printf("%s\n", summary.Message)
	if _, err := c.journal.Write(&journal.Report{
		Kind:         "event",
		RunID:        run.ID,
		Success:      !run.NoOp,
		PromptDigest: prompt.Digest(inviteTemplate, checkTemplate),
		Summary:      summary,
	}); err != nil {
		logx.Errorf("coordinator: journal write failed: %v", err)
	}
	return summary, nil
}

func (c *Coordinator) dispatch(ctx context.Context, tmpl *prompt.Template, data map[string]string) task.Result {
	instruction, err := tmpl.Render(data)
	if err != nil {
		return task.Fail(task.ReasonNoTemplate, err.Error(), "")
	}
	return c.router.Dispatch(ctx, task.Goal{Target: c.cfg.MessagingApp, Instruction: instruction})
}

func (c *Coordinator) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
