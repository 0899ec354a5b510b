package compare

import (
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// Defaults applied when an agent omits a field.
const (
	DefaultPrice      = "N/A"
	DefaultRestaurant = "Unknown"
	DefaultRating     = "N/A"
)

// Quote is the typed view over an offer or order payload. Missing fields
// carry the documented defaults instead of being absent.
type Quote struct {
	Title         string `json:"title"`
	Price         string `json:"price"`
	Rating        string `json:"rating,omitempty"`
	Restaurant    string `json:"restaurant,omitempty"`
	ETA           string `json:"eta,omitempty"`
	RideType      string `json:"ride_type,omitempty"`
	Details       string `json:"details,omitempty"`
	DriverDetails string `json:"driver_details,omitempty"`
	CabDetails    string `json:"cab_details,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	Status        string `json:"status,omitempty"`
}

// QuoteFrom reads the known keys from p. title falls back to fallbackTitle.
func QuoteFrom(p task.Payload, fallbackTitle string) Quote {
	q := Quote{
		Title:         p.StringOr("title", fallbackTitle),
		Price:         p.StringOr("price", ""),
		Rating:        p.StringOr("rating", DefaultRating),
		Restaurant:    p.StringOr("restaurant", DefaultRestaurant),
		ETA:           p.StringOr("eta", ""),
		RideType:      p.StringOr("ride_type", ""),
		Details:       p.StringOr("details", ""),
		DriverDetails: p.StringOr("driver_details", ""),
		CabDetails:    p.StringOr("cab_details", ""),
		OrderID:       p.StringOr("order_id", ""),
		Status:        p.Status(),
	}
	if q.Price == "" {
		q.Price = p.StringOr("final_price", "")
	}
	if q.Price == "" {
		logx.Slowf("compare: payload has no price field, defaulting to %s", DefaultPrice)
		q.Price = DefaultPrice
	}
	return q
}

// agentFailed reports whether an otherwise parsed payload says the agent gave up.
func agentFailed(r task.Result) bool {
	return r.OK() && r.Payload.Status() == "failed"
}

// demote turns a payload with status failed into an agent failure.
func demote(r task.Result) task.Result {
	if !agentFailed(r) {
		return r
	}
	msg := r.Payload.StringOr("message", r.Payload.StringOr("error", "agent reported failure"))
	return task.Fail(task.ReasonAgent, msg, "")
}
