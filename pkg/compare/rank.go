package compare

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/adityaadep2008/TrioAgent/pkg/pricing"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// Offer is one provider's answer to a search goal.
type Offer struct {
	Provider string
	Result   task.Result
	// Price is the normalized price; pricing.Sentinel for failures.
	Price float64
	Quote Quote
}

// Valid reports whether the offer carries a real price.
func (o Offer) Valid() bool { return o.Result.OK() && pricing.IsValid(o.Price) }

type offerJSON struct {
	Provider string        `json:"provider"`
	Status   string        `json:"status"`
	Price    *float64      `json:"numeric_price"`
	Quote    *Quote        `json:"quote,omitempty"`
	Failure  *task.Failure `json:"failure,omitempty"`
}

// MarshalJSON encodes the sentinel price as null.
func (o Offer) MarshalJSON() ([]byte, error) {
	out := offerJSON{Provider: o.Provider, Status: "success", Failure: o.Result.Failure}
	if !o.Result.OK() {
		out.Status = "failed"
	} else {
		q := o.Quote
		out.Quote = &q
	}
	if pricing.IsValid(o.Price) {
		p := o.Price
		out.Price = &p
	}
	return json.Marshal(out)
}

func newOffer(provider string, res task.Result, fallbackTitle string) Offer {
	offer := Offer{Provider: provider, Result: res, Price: pricing.Sentinel}
	if !res.OK() {
		return offer
	}
	offer.Quote = QuoteFrom(res.Payload, fallbackTitle)
	raw, ok := res.Payload.Value("price")
	if !ok {
		raw, _ = res.Payload.Value("final_price")
	}
	offer.Price = pricing.Normalize(raw)
	return offer
}

// Rank orders offers by ascending price. Exact ties go to the provider that
// appears first in precedence; providers missing from precedence rank after
// listed ones and keep their input order. The input slice is not modified.
func Rank(offers []Offer, precedence []string) []Offer {
	ranked := make([]Offer, len(offers))
	copy(ranked, offers)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].Price, ranked[j].Price
		if pi != pj {
			return pi < pj
		}
		return precedenceIndex(precedence, ranked[i].Provider) < precedenceIndex(precedence, ranked[j].Provider)
	})
	return ranked
}

// Winner returns the first valid offer of a ranked list, or nil when every
// offer is at the sentinel.
func Winner(ranked []Offer) *Offer {
	for i := range ranked {
		if ranked[i].Valid() {
			w := ranked[i]
			return &w
		}
	}
	return nil
}

func precedenceIndex(precedence []string, provider string) int {
	for i, p := range precedence {
		if strings.EqualFold(p, provider) {
			return i
		}
	}
	return len(precedence)
}
