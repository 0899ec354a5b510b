// Package compare runs one goal against competing providers, one after the
// other on the shared device, and picks the cheapest offer. Exact price ties
// are broken by a fixed per-domain provider precedence.
package compare

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

const defaultCooldown = 2 * time.Second

// Request is one comparison across a domain's providers.
type Request struct {
	Domain Domain `json:"domain"`
	// Query is the item, product or medicine searched for.
	Query      string `json:"query,omitempty"`
	Pickup     string `json:"pickup,omitempty"`
	Drop       string `json:"drop,omitempty"`
	Preference string `json:"preference,omitempty"`
	Role       string `json:"role,omitempty"`
	// Providers optionally narrows the domain's provider list.
	Providers []string `json:"providers,omitempty"`
}

// CommitRequest orders or books on an already chosen provider.
type CommitRequest struct {
	Domain     Domain `json:"domain"`
	Provider   string `json:"provider"`
	Query      string `json:"query,omitempty"`
	Title      string `json:"title,omitempty"`
	Pickup     string `json:"pickup,omitempty"`
	Drop       string `json:"drop,omitempty"`
	Preference string `json:"preference,omitempty"`
}

// Comparison is the ranked outcome of Compare.
type Comparison struct {
	Domain Domain  `json:"domain"`
	Query  string  `json:"query,omitempty"`
	Offers []Offer `json:"offers"`
	Winner *Offer  `json:"winner,omitempty"`
}

// HasWinner reports whether any provider returned a valid price.
func (c *Comparison) HasWinner() bool { return c != nil && c.Winner != nil }

// Comparator implements sequential provider comparison on top of a router.
type Comparator struct {
	router        router.Dispatcher
	cooldown      time.Duration
	resetBaseline bool
	out           io.Writer
	journal       *journal.Writer
	sleep         func(context.Context, time.Duration) error
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithCooldown sets the pause between provider dispatches.
func WithCooldown(d time.Duration) Option {
	return func(c *Comparator) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithBaselineReset presses Home before every provider dispatch.
func WithBaselineReset(on bool) Option {
	return func(c *Comparator) { c.resetBaseline = on }
}

// WithStatus sets where human-readable progress lines go.
func WithStatus(w io.Writer) Option {
	return func(c *Comparator) {
		if w != nil {
			c.out = w
		}
	}
}

// WithJournal records every finished comparison.
func WithJournal(j *journal.Writer) Option {
	return func(c *Comparator) { c.journal = j }
}

// New creates a Comparator.
func New(d router.Dispatcher, opts ...Option) *Comparator {
	c := &Comparator{
		router:   d,
		cooldown: defaultCooldown,
		out:      io.Discard,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare quotes every provider of the request's domain in sequence and
// ranks the offers. The returned error is only set for an unknown domain or
// a cancelled context.
func (c *Comparator) Compare(ctx context.Context, req Request) (*Comparison, error) {
	profile, err := Lookup(req.Domain)
	if err != nil {
		return nil, err
	}
	providers := FilterProviders(profile.Providers, req.Providers)
	c.printf("Comparing %s across %s\n", describe(req), strings.Join(providers, ", "))

	offers := make([]Offer, 0, len(providers))
	for i, provider := range providers {
		if i > 0 {
			if err := c.sleep(ctx, c.cooldown); err != nil {
				return nil, err
			}
		}
		offer := c.quote(ctx, profile, provider, req)
		offers = append(offers, offer)
		c.printOffer(offer)
	}

	ranked := Rank(offers, profile.Precedence)
	cmp := &Comparison{Domain: profile.Domain, Query: describe(req), Offers: ranked, Winner: Winner(ranked)}
	if cmp.Winner != nil {
		c.printf("Best deal: %s @ %s (%s)\n", cmp.Winner.Provider, cmp.Winner.Quote.Price, cmp.Winner.Quote.Title)
	} else {
		c.printf("No valid offer for %s\n", describe(req))
	}
	logx.WithContext(ctx).Infow("comparison finished",
		logx.Field("domain", profile.Domain),
		logx.Field("providers", len(providers)),
		logx.Field("has_winner", cmp.Winner != nil),
	)
	c.record(cmp, prompt.Digest(profile.Search, profile.Order))
	return cmp, nil
}

// Quote asks a single provider for its offer.
func (c *Comparator) Quote(ctx context.Context, req Request, provider string) (Offer, error) {
	profile, err := Lookup(req.Domain)
	if err != nil {
		return Offer{}, err
	}
	return c.quote(ctx, profile, provider, req), nil
}

func (c *Comparator) quote(ctx context.Context, profile *Profile, provider string, req Request) Offer {
	if c.resetBaseline {
		c.router.ResetBaseline(ctx)
	}
	params := Params{
		Provider:     provider,
		Query:        req.Query,
		ItemType:     profile.ItemType,
		Pickup:       req.Pickup,
		Drop:         req.Drop,
		Preference:   defaultPreference(req.Preference),
		RideKeywords: RideKeywords(provider, req.Preference),
		Role:         defaultRole(req.Role),
	}
	instruction, err := profile.Search.Render(params)
	if err != nil {
		return newOffer(provider, task.Fail(task.ReasonNoTemplate, err.Error(), ""), req.Query)
	}
	res := c.router.Dispatch(ctx, task.Goal{Target: provider, Instruction: instruction})
	res = demote(res)
	return newOffer(provider, res, req.Query)
}

// Commit re-dispatches an order or booking instruction to the chosen
// provider, naming the exact item title found during comparison.
func (c *Comparator) Commit(ctx context.Context, req CommitRequest) task.Result {
	profile, err := Lookup(req.Domain)
	if err != nil {
		return task.Fail(task.ReasonNoTemplate, err.Error(), "")
	}
	if profile.Order == nil {
		return task.Fail(task.ReasonNoTemplate, fmt.Sprintf("domain %s has no order flow", profile.Domain), "")
	}
	if c.resetBaseline {
		c.router.ResetBaseline(ctx)
	}
	instruction, err := profile.Order.Render(Params{
		Provider:     req.Provider,
		Query:        req.Query,
		ItemType:     profile.ItemType,
		Title:        req.Title,
		Pickup:       req.Pickup,
		Drop:         req.Drop,
		Preference:   defaultPreference(req.Preference),
		RideKeywords: RideKeywords(req.Provider, req.Preference),
	})
	if err != nil {
		return task.Fail(task.ReasonNoTemplate, err.Error(), "")
	}
	c.printf("Placing order on %s for %q\n", req.Provider, firstNonEmpty(req.Title, req.Query))
	res := demote(c.router.Dispatch(ctx, task.Goal{Target: req.Provider, Instruction: instruction}))
	if res.OK() {
		c.printf("Order on %s: %s\n", req.Provider, firstNonEmpty(res.Payload.Status(), "done"))
	} else {
		c.printf("Order on %s failed: %s\n", req.Provider, res.Failure.Error())
	}
	return res
}

// CompareAndCommit compares and then commits on the winner using its exact
// title. The commit result is nil when no provider had a valid offer.
func (c *Comparator) CompareAndCommit(ctx context.Context, req Request) (*Comparison, *task.Result, error) {
	cmp, err := c.Compare(ctx, req)
	if err != nil || !cmp.HasWinner() {
		return cmp, nil, err
	}
	if err := c.sleep(ctx, c.cooldown); err != nil {
		return cmp, nil, err
	}
	title := cmp.Winner.Quote.Title
	if req.Domain == DomainRide {
		title = cmp.Winner.Quote.RideType
	}
	res := c.Commit(ctx, CommitRequest{
		Domain:     req.Domain,
		Provider:   cmp.Winner.Provider,
		Query:      req.Query,
		Title:      title,
		Pickup:     req.Pickup,
		Drop:       req.Drop,
		Preference: req.Preference,
	})
	return cmp, &res, nil
}

func (c *Comparator) record(cmp *Comparison, digest string) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.Write(&journal.Report{Kind: "comparison", Success: cmp.HasWinner(), PromptDigest: digest, Summary: cmp}); err != nil {
		logx.Errorf("compare: journal write failed: %v", err)
	}
}

func (c *Comparator) printOffer(o Offer) {
	if !o.Result.OK() {
		c.printf("  [%s] failed: %s\n", o.Provider, o.Result.Failure.Error())
		return
	}
	c.printf("  [%s] %s @ %s\n", o.Provider, o.Quote.Title, o.Quote.Price)
}

func (c *Comparator) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func describe(req Request) string {
	if req.Domain == DomainRide {
		return fmt.Sprintf("%s -> %s (%s)", req.Pickup, req.Drop, defaultPreference(req.Preference))
	}
	return req.Query
}

func defaultPreference(p string) string {
	if strings.TrimSpace(p) == "" {
		return "cab"
	}
	return p
}

func defaultRole(r string) string {
	if strings.TrimSpace(r) == "" {
		return "patient"
	}
	return strings.ToLower(r)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
