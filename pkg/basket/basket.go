// Package basket prices a list of items on every provider of a domain and
// picks the cheapest complete basket. A provider that cannot quote one item
// is marked incomplete and skipped for the remaining items.
package basket

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/pricing"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
)

// Roles change how the search instruction is phrased.
const (
	RolePatient    = "patient"
	RolePharmacist = "pharmacist"
)

// Item is one requested line.
type Item struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Line is a priced item on one provider.
type Line struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Qty       int     `json:"qty"`
	LineTotal float64 `json:"line_total"`
	Details   string  `json:"details,omitempty"`
}

// Basket is one provider's priced list.
type Basket struct {
	Provider string `json:"provider"`
	Complete bool   `json:"complete"`
	// Missing names the first item the provider could not quote.
	Missing string  `json:"missing,omitempty"`
	Total   float64 `json:"total"`
	Lines   []Line  `json:"lines,omitempty"`
}

// Result is the outcome of a basket comparison.
type Result struct {
	Role    string   `json:"role"`
	Items   []Item   `json:"items"`
	Baskets []Basket `json:"baskets"`
	Best    *Basket  `json:"best,omitempty"`
}

// ParseItems reads "Name:Qty, Name:Qty". A missing quantity means 1.
func ParseItems(s string) ([]Item, error) {
	var items []Item
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qtyRaw, hasQty := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("basket: empty item name in %q", part)
		}
		qty := 1
		if hasQty {
			n, err := strconv.Atoi(strings.TrimSpace(qtyRaw))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("basket: invalid quantity for %s: %q", name, qtyRaw)
			}
			qty = n
		}
		items = append(items, Item{Name: name, Qty: qty})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("basket: no items in %q", s)
	}
	return items, nil
}

// Comparer runs basket comparisons.
type Comparer struct {
	cmp          *compare.Comparator
	domain       compare.Domain
	itemCooldown time.Duration
	appCooldown  time.Duration
	out          io.Writer
	journal      *journal.Writer
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithCooldowns sets the pauses between item searches and between providers.
func WithCooldowns(item, provider time.Duration) Option {
	return func(c *Comparer) {
		c.itemCooldown, c.appCooldown = item, provider
	}
}

// WithStatus sets where progress lines go.
func WithStatus(w io.Writer) Option {
	return func(c *Comparer) {
		if w != nil {
			c.out = w
		}
	}
}

// WithJournal records every finished basket comparison.
func WithJournal(j *journal.Writer) Option {
	return func(c *Comparer) { c.journal = j }
}

// WithDomain switches the provider family (pharmacy by default).
func WithDomain(d compare.Domain) Option {
	return func(c *Comparer) { c.domain = d }
}

// New creates a Comparer on top of a provider comparator.
func New(cmp *compare.Comparator, opts ...Option) *Comparer {
	c := &Comparer{
		cmp:          cmp,
		domain:       compare.DomainPharmacy,
		itemCooldown: 2 * time.Second,
		appCooldown:  3 * time.Second,
		out:          io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare prices items on every allowed provider in sequence.
func (c *Comparer) Compare(ctx context.Context, items []Item, role string, allow []string) (*Result, error) {
	profile, err := compare.Lookup(c.domain)
	if err != nil {
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = RolePatient
	}
	if role != RolePatient && role != RolePharmacist {
		return nil, fmt.Errorf("basket: unknown role %q", role)
	}
	providers := compare.FilterProviders(profile.Providers, allow)
	fmt.Fprintf(c.out, "Pricing %d item(s) on %s (%s mode)\n", len(items), strings.Join(providers, ", "), role)

	res := &Result{Role: role, Items: items}
	for i, provider := range providers {
		if i > 0 {
			if err := compare.Sleep(ctx, c.appCooldown); err != nil {
				return nil, err
			}
		}
		b, err := c.priceBasket(ctx, provider, items, role)
		if err != nil {
			return nil, err
		}
		res.Baskets = append(res.Baskets, b)
	}
	res.Best = Best(res.Baskets, profile.Precedence)
	if res.Best != nil {
		fmt.Fprintf(c.out, "Best basket: %s - %.2f\n", res.Best.Provider, res.Best.Total)
	} else {
		fmt.Fprintln(c.out, "No provider had every item")
	}
	if _, err := c.journal.Write(&journal.Report{
		Kind:         "basket",
		Success:      res.Best != nil,
		PromptDigest: prompt.Digest(profile.Search),
		Summary:      res,
	}); err != nil {
		logx.Errorf("basket: journal write failed: %v", err)
	}
	return res, nil
}

func (c *Comparer) priceBasket(ctx context.Context, provider string, items []Item, role string) (Basket, error) {
	b := Basket{Provider: provider, Complete: true}
	for i, item := range items {
		if i > 0 {
			if err := compare.Sleep(ctx, c.itemCooldown); err != nil {
				return b, err
			}
		}
		offer, err := c.cmp.Quote(ctx, compare.Request{Domain: c.domain, Query: item.Name, Role: role}, provider)
		if err != nil {
			return b, err
		}
		if !offer.Valid() {
			fmt.Fprintf(c.out, "  [%s] %s not found, basket incomplete\n", provider, item.Name)
			b.Complete, b.Missing, b.Total, b.Lines = false, item.Name, 0, nil
			return b, nil
		}
		line := Line{
			Name:      item.Name,
			UnitPrice: offer.Price,
			Qty:       item.Qty,
			LineTotal: offer.Price * float64(item.Qty),
			Details:   offer.Result.Payload.StringOr("details", ""),
		}
		fmt.Fprintf(c.out, "  [%s] %s @ %.2f x %d = %.2f\n", provider, item.Name, line.UnitPrice, line.Qty, line.LineTotal)
		b.Lines = append(b.Lines, line)
		b.Total += line.LineTotal
	}
	return b, nil
}

// Best returns the cheapest complete basket; ties go to the earlier entry in
// precedence. Nil when no basket is complete.
func Best(baskets []Basket, precedence []string) *Basket {
	var complete []Basket
	for _, b := range baskets {
		if b.Complete && pricing.IsValid(b.Total) {
			complete = append(complete, b)
		}
	}
	if len(complete) == 0 {
		return nil
	}
	rank := func(p string) int {
		for i, q := range precedence {
			if strings.EqualFold(p, q) {
				return i
			}
		}
		return len(precedence)
	}
	sort.SliceStable(complete, func(i, j int) bool {
		if complete[i].Total != complete[j].Total {
			return complete[i].Total < complete[j].Total
		}
		return rank(complete[i].Provider) < rank(complete[j].Provider)
	})
	best := complete[0]
	return &best
}
