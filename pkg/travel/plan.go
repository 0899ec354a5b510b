package travel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// TimeLayout is the timestamp format agents are asked to return.
const TimeLayout = "2006-01-02 15:04:05"

// ErrInvalidTime is returned when an agent timestamp cannot be parsed.
var ErrInvalidTime = errors.New("travel: invalid timestamp")

// FlightDetails is the first flight found for a route.
type FlightDetails struct {
	Airline      string    `json:"airline"`
	FlightNumber string    `json:"flight_number"`
	Price        string    `json:"price"`
	ArrivalTime  time.Time `json:"arrival_time"`
}

// CabDetails is the airport transfer booked after landing.
type CabDetails struct {
	Provider       string    `json:"provider"`
	PickupTime     time.Time `json:"pickup_time"`
	EstimatedPrice string    `json:"estimated_price"`
}

// HotelDetails is the first hotel found in the destination city.
type HotelDetails struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	PricePerNight string `json:"price_per_night"`
}

// ItineraryActivity is one scheduled stop.
type ItineraryActivity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// ItineraryDay groups a day's activities in order.
type ItineraryDay struct {
	DayNumber  int                 `json:"day_number"`
	Activities []ItineraryActivity `json:"activities"`
}

// TripPlan is the assembled result of a planning run.
type TripPlan struct {
	Flight        FlightDetails  `json:"flight"`
	ArrivalCab    CabDetails     `json:"arrival_cab"`
	Hotel         HotelDetails   `json:"hotel"`
	DailySchedule []ItineraryDay `json:"daily_schedule"`
}

// FlightFrom reads a flight payload. A missing arrival time defaults to now;
// a present but unparsable one is ErrInvalidTime.
func FlightFrom(p task.Payload, now time.Time) (FlightDetails, error) {
	arrival, err := timeField(p, "arrival_time", now)
	if err != nil {
		return FlightDetails{}, err
	}
	return FlightDetails{
		Airline:      p.StringOr("airline", "Unknown"),
		FlightNumber: p.StringOr("flight_number", "Unknown"),
		Price:        p.StringOr("price", "Unknown"),
		ArrivalTime:  arrival,
	}, nil
}

// CabFrom reads a cab payload; pickup defaults to the requested time.
func CabFrom(p task.Payload, requested time.Time) (CabDetails, error) {
	pickup, err := timeField(p, "pickup_time", requested)
	if err != nil {
		return CabDetails{}, err
	}
	return CabDetails{
		Provider:       p.StringOr("provider", "Uber"),
		PickupTime:     pickup,
		EstimatedPrice: p.StringOr("estimated_price", "Unknown"),
	}, nil
}

// HotelFrom reads a hotel payload.
func HotelFrom(p task.Payload) HotelDetails {
	return HotelDetails{
		Name:          p.StringOr("name", "Unknown Hotel"),
		Address:       p.StringOr("address", "Unknown Address"),
		PricePerNight: p.StringOr("price_per_night", "Unknown"),
	}
}

func timeField(p task.Payload, key string, def time.Time) (time.Time, error) {
	raw, ok := p.String(key)
	if !ok {
		return def, nil
	}
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(raw), def.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", ErrInvalidTime, key, raw)
	}
	return t, nil
}

// normalizeDays drops days without activities and renumbers from 1 when the
// model omits day numbers.
func normalizeDays(days []ItineraryDay) []ItineraryDay {
	out := make([]ItineraryDay, 0, len(days))
	for _, d := range days {
		var acts []ItineraryActivity
		for _, a := range d.Activities {
			if strings.TrimSpace(a.Description) == "" {
				continue
			}
			acts = append(acts, ItineraryActivity{Time: strings.TrimSpace(a.Time), Description: strings.TrimSpace(a.Description)})
		}
		if len(acts) == 0 {
			continue
		}
		if d.DayNumber <= 0 {
			d.DayNumber = len(out) + 1
		}
		d.Activities = acts
		out = append(out, d)
	}
	return out
}
