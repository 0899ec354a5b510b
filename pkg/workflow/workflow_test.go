package workflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaadep2008/TrioAgent/pkg/basket"
	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/journal"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

type fakeDevice struct {
	payloads map[string]task.Payload
	goals    []task.Goal
}

func (d *fakeDevice) Dispatch(ctx context.Context, goal task.Goal, opts ...router.Option) task.Result {
	d.goals = append(d.goals, goal)
	if p, ok := d.payloads[goal.Target]; ok {
		return task.Success(p)
	}
	return task.Fail(task.ReasonEngine, "app not installed", "")
}

func (d *fakeDevice) ResetBaseline(ctx context.Context) task.Result {
	return task.Success(nil)
}

func quickConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfigFromReader(strings.NewReader(`
compare:
  cooldown: 0s
basket:
  item_cooldown: 0s
  provider_cooldown: 0s
event:
  idle_interval: 0s
  step_delay: 0s
  order_cooldown: 0s
`), "")
	require.NoError(t, err)
	return cfg
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
journal_dir: runs
compare:
  cooldown: 1500ms
  baseline_reset: true
travel:
  days: 5
event:
  max_cycles: 2
`), "/srv/trio/etc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/trio/etc", "runs"), cfg.JournalDir)
	assert.Equal(t, 1500*time.Millisecond, cfg.Compare.Cooldown)
	assert.True(t, cfg.Compare.BaselineReset)
	assert.Equal(t, 2*time.Second, cfg.Basket.ItemCooldown)
	assert.Equal(t, 3*time.Second, cfg.Basket.ProviderCooldown)
	assert.Equal(t, 5, cfg.Travel.Days)
	assert.Equal(t, 2, cfg.Event.MaxCycles)
	assert.Equal(t, 10*time.Second, cfg.Event.IdleInterval)

	def := DefaultConfig()
	assert.Empty(t, def.JournalDir)
	assert.Equal(t, 3, def.Travel.Days)

	_, err = LoadConfigFromReader(strings.NewReader("compare:\n  cooldown: soon\n"), "")
	assert.ErrorContains(t, err, "compare.cooldown")
	_, err = LoadConfigFromReader(strings.NewReader("travel:\n  days: 30\n"), "")
	assert.ErrorContains(t, err, "travel.days")
	_, err = LoadConfigFromReader(strings.NewReader("event:\n  research_domain: flights\n"), "")
	assert.ErrorContains(t, err, "event")
}

func TestMissionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mission Mission
		wantErr string
	}{
		{"shopper", Mission{Persona: PersonaShopper, Product: "MacBook Air"}, ""},
		{"shopper without product", Mission{Persona: PersonaShopper}, "needs a product"},
		{"rider without drop", Mission{Persona: PersonaRider, Pickup: "Home"}, "pickup and drop"},
		{"patient", Mission{Persona: PersonaPatient, Medicine: []basket.Item{{Name: "Dolo 650", Qty: 2}}}, ""},
		{"patient blank line", Mission{Persona: PersonaPatient, Medicine: []basket.Item{{Name: " "}}}, "invalid medicine"},
		{"foodie", Mission{Persona: PersonaFoodie, FoodItem: "Biryani", Action: "order"}, ""},
		{"coordinator without guests", Mission{Persona: PersonaCoordinator, EventName: "Party"}, "event name and guests"},
		{"traveller without date", Mission{Persona: PersonaTraveller, Source: "Mumbai", Destination: "Goa"}, "date is required"},
		{"unknown", Mission{Persona: "pilot"}, "unknown persona"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mission.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
	assert.True(t, Mission{Action: " Book "}.Commits())
	assert.False(t, Mission{Action: "compare"}.Commits())
}

func TestRunShopperCompares(t *testing.T) {
	dev := &fakeDevice{payloads: map[string]task.Payload{
		"Amazon":   {"title": "MacBook Air M4", "price": "₹1,14,900"},
		"Flipkart": {"title": "MacBook Air M4", "price": "₹1,09,990"},
	}}
	s := New(dev, nil, quickConfig(t), nil)

	out, err := s.Run(context.Background(), Mission{Persona: PersonaShopper, Product: "MacBook Air M4"})
	require.NoError(t, err)
	require.True(t, out.Comparison.HasWinner())
	assert.Equal(t, "Flipkart", out.Comparison.Winner.Provider)
	assert.Nil(t, out.Commit)
	assert.Equal(t, "Cheapest on Flipkart: MacBook Air M4 at 109990.00.", out.Summary)
	assert.Len(t, dev.goals, 2)
}

func TestRunJournalsPromptDigest(t *testing.T) {
	dev := &fakeDevice{payloads: map[string]task.Payload{
		"Swiggy": {"title": "Paneer Roll", "price": "₹149"},
	}}
	cfg := quickConfig(t)
	cfg.JournalDir = t.TempDir()
	s := New(dev, nil, cfg, nil)

	_, err := s.Run(context.Background(), Mission{Persona: PersonaFoodie, FoodItem: "Paneer Roll"})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(cfg.JournalDir, "comparison_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var rep journal.Report
	require.NoError(t, json.Unmarshal(data, &rep))

	profile, err := compare.Lookup(compare.DomainFood)
	require.NoError(t, err)
	assert.True(t, rep.Success)
	assert.Equal(t, prompt.Digest(profile.Search, profile.Order), rep.PromptDigest)
	assert.Len(t, rep.PromptDigest, 64)
}

func TestRunRiderBooksCheapest(t *testing.T) {
	dev := &fakeDevice{payloads: map[string]task.Payload{
		"Uber": {"ride_type": "Uber Go", "price": "₹240"},
		"Ola":  {"ride_type": "Ola Mini", "price": "₹260"},
	}}
	s := New(dev, nil, quickConfig(t), nil)

	out, err := s.Run(context.Background(), Mission{Persona: PersonaRider, Pickup: "Home", Drop: "MG Road", Action: "book"})
	require.NoError(t, err)
	require.NotNil(t, out.Commit)
	assert.True(t, out.Commit.OK())
	assert.Contains(t, out.Summary, "Placed on Uber.")
	require.Len(t, dev.goals, 3)
	assert.Equal(t, "Uber", dev.goals[2].Target)
}

func TestRunPatientBasket(t *testing.T) {
	dev := &fakeDevice{payloads: map[string]task.Payload{
		"PharmEasy":   {"title": "Dolo 650", "price": "30"},
		"Apollo 24|7": {"title": "Dolo 650", "price": "28"},
	}}
	s := New(dev, nil, quickConfig(t), nil)

	out, err := s.Run(context.Background(), Mission{
		Persona:  PersonaPatient,
		Medicine: []basket.Item{{Name: "Dolo 650", Qty: 2}, {Name: "Paracetamol"}},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Basket)
	require.NotNil(t, out.Basket.Best)
	assert.Equal(t, "Apollo 24|7", out.Basket.Best.Provider)
	assert.InDelta(t, 84, out.Basket.Best.Total, 0.001)
	assert.Equal(t, 1, out.Basket.Items[1].Qty, "missing quantity defaults to one")
	assert.Equal(t, basket.RolePatient, out.Basket.Role)
}

func TestRunTravellerWithoutModel(t *testing.T) {
	dev := &fakeDevice{payloads: map[string]task.Payload{
		"MakeMyTrip":  {"airline": "IndiGo", "flight_number": "6E 201", "arrival_time": "2024-12-20 10:30:00"},
		"Booking.com": {"name": "Sea View", "address": "Calangute, Goa"},
	}}
	s := New(dev, nil, quickConfig(t), nil)

	out, err := s.Run(context.Background(), Mission{Persona: PersonaTraveller, Source: "Mumbai", Destination: "Goa", Date: "2024-12-20"})
	require.NoError(t, err)
	require.NotNil(t, out.Trip)
	assert.Empty(t, out.Trip.DailySchedule)
	assert.True(t, strings.HasPrefix(out.Graph, "graph TD"))
	assert.Equal(t, "Trip planned: IndiGo 6E 201, staying at Sea View, 0-day itinerary.", out.Summary)
}

type holdingDevice struct {
	fakeDevice
	holds  int
	inHold bool
	stray  int
}

func (d *holdingDevice) Hold(ctx context.Context, fn func(ctx context.Context) error) error {
	d.holds++
	d.inHold = true
	defer func() { d.inHold = false }()
	return fn(ctx)
}

func (d *holdingDevice) Dispatch(ctx context.Context, goal task.Goal, opts ...router.Option) task.Result {
	if !d.inHold {
		d.stray++
	}
	return d.fakeDevice.Dispatch(ctx, goal, opts...)
}

func TestRunHoldsDeviceForWholeMission(t *testing.T) {
	dev := &holdingDevice{fakeDevice: fakeDevice{payloads: map[string]task.Payload{
		"Uber": {"ride_type": "Uber Go", "price": "₹240"},
		"Ola":  {"ride_type": "Ola Mini", "price": "₹260"},
	}}}
	s := New(dev, nil, quickConfig(t), nil)

	_, err := s.Run(context.Background(), Mission{Persona: PersonaRider, Pickup: "Home", Drop: "MG Road", Action: "book"})
	require.NoError(t, err)
	assert.Equal(t, 1, dev.holds)
	assert.Zero(t, dev.stray)
	assert.Len(t, dev.goals, 3)
}

func TestRunRejectsInvalidMission(t *testing.T) {
	s := New(&fakeDevice{}, nil, nil, nil)
	_, err := s.Run(context.Background(), Mission{Persona: "pilot"})
	assert.ErrorIs(t, err, ErrUnknownPersona)
}
