// Package workflow assembles the device workflows (provider comparison,
// basket pricing, event coordination and trip planning) over one shared
// dispatcher, and maps persona missions onto them.
package workflow

import (
	"io"

	"github.com/adityaadep2008/TrioAgent/pkg/basket"
	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/coordinator"
	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/llm"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/travel"
)

// Suite holds one instance of every workflow. All of them dispatch through
// the same router, so callers must not run two missions at once unless the
// router serializes device access.
type Suite struct {
	Router  router.Dispatcher
	Compare *compare.Comparator
	Basket  *basket.Comparer
	Event   *coordinator.Coordinator
	Travel  *travel.Planner
	Journal *journal.Writer

	days int
}

// New wires the workflows. cm may be nil; trip plans then carry no itinerary.
// Status lines go to out when it is non-nil.
func New(d router.Dispatcher, cm llm.Completer, cfg *Config, out io.Writer) *Suite {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if out == nil {
		out = io.Discard
	}
	j := journal.NewWriter(cfg.JournalDir)

	cmp := compare.New(d,
		compare.WithCooldown(cfg.Compare.Cooldown),
		compare.WithBaselineReset(cfg.Compare.BaselineReset),
		compare.WithStatus(out),
		compare.WithJournal(j),
	)
	// The event flow moves between messaging and shopping apps, so its
	// comparator always starts each provider from the home screen.
	eventCmp := compare.New(d,
		compare.WithCooldown(cfg.Compare.Cooldown),
		compare.WithBaselineReset(true),
		compare.WithStatus(out),
	)

	return &Suite{
		Router:  d,
		Compare: cmp,
		Basket: basket.New(cmp,
			basket.WithCooldowns(cfg.Basket.ItemCooldown, cfg.Basket.ProviderCooldown),
			basket.WithStatus(out),
			basket.WithJournal(j),
		),
		Event:   coordinator.New(d, eventCmp, cfg.Event, coordinator.WithStatus(out), coordinator.WithJournal(j)),
		Travel:  travel.NewPlanner(d, cm, travel.WithStatus(out), travel.WithJournal(j)),
		Journal: j,
		days:    cfg.Travel.Days,
	}
}
