package basket

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaadep2008/TrioAgent/pkg/compare"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// priceBook answers "<provider>/<medicine>" lookups; missing entries fail.
type priceBook struct {
	prices map[string]string
	calls  []string
}

func (p *priceBook) Dispatch(ctx context.Context, goal task.Goal, opts ...router.Option) task.Result {
	for key, price := range p.prices {
		provider, med, _ := strings.Cut(key, "/")
		if provider == goal.Target && strings.Contains(goal.Instruction, fmt.Sprintf("Search for '%s'", med)) {
			p.calls = append(p.calls, key)
			return task.Success(task.Payload{"medicine": med, "price": price, "details": "strip of 15"})
		}
	}
	p.calls = append(p.calls, goal.Target+"/?")
	return task.Fail(task.ReasonParse, "no json", "")
}

func (p *priceBook) ResetBaseline(ctx context.Context) task.Result { return task.Success(nil) }

func TestParseItems(t *testing.T) {
	items, err := ParseItems("Dolo 650:2, Crocin ,  Volini:3")
	require.NoError(t, err)
	assert.Equal(t, []Item{{"Dolo 650", 2}, {"Crocin", 1}, {"Volini", 3}}, items)

	_, err = ParseItems("Dolo:two")
	require.Error(t, err)
	_, err = ParseItems(" , ")
	require.Error(t, err)
	_, err = ParseItems(":3")
	require.Error(t, err)
}

func TestCompareBaskets(t *testing.T) {
	book := &priceBook{prices: map[string]string{
		"PharmEasy/Dolo 650":   "₹30",
		"PharmEasy/Volini":     "₹150",
		"Apollo 24|7/Dolo 650": "₹28",
		"Tata 1mg/Dolo 650":    "₹25",
		"Tata 1mg/Volini":      "₹160",
	}}
	var out bytes.Buffer
	c := New(compare.New(book, compare.WithCooldown(0)), WithCooldowns(0, 0), WithStatus(&out))

	items, err := ParseItems("Dolo 650:2, Volini:1")
	require.NoError(t, err)
	res, err := c.Compare(context.Background(), items, "", nil)
	require.NoError(t, err)
	require.Len(t, res.Baskets, 3)

	assert.True(t, res.Baskets[0].Complete)
	assert.Equal(t, 210.0, res.Baskets[0].Total)

	apollo := res.Baskets[1]
	assert.False(t, apollo.Complete)
	assert.Equal(t, "Volini", apollo.Missing)
	assert.Empty(t, apollo.Lines)

	require.NotNil(t, res.Best)
	assert.Equal(t, "PharmEasy", res.Best.Provider, "tie at 210 goes to PharmEasy")
	assert.Equal(t, RolePatient, res.Role)
	assert.Contains(t, out.String(), "basket incomplete")
}

func TestCompareStopsAtFirstMissingItem(t *testing.T) {
	book := &priceBook{prices: map[string]string{"Tata 1mg/B": "₹10"}}
	c := New(compare.New(book, compare.WithCooldown(0)), WithCooldowns(0, 0))

	res, err := c.Compare(context.Background(), []Item{{"A", 1}, {"B", 1}}, RolePharmacist, []string{"tata"})
	require.NoError(t, err)
	assert.Nil(t, res.Best)
	assert.Equal(t, []string{"Tata 1mg/?"}, book.calls)
}

func TestCompareRejectsUnknownRole(t *testing.T) {
	c := New(compare.New(&priceBook{}))
	_, err := c.Compare(context.Background(), []Item{{"A", 1}}, "doctor", nil)
	require.Error(t, err)
}

func TestBest(t *testing.T) {
	baskets := []Basket{
		{Provider: "Tata 1mg", Complete: true, Total: 100},
		{Provider: "Apollo 24|7", Complete: true, Total: 100},
		{Provider: "PharmEasy", Complete: false},
	}
	best := Best(baskets, []string{"PharmEasy", "Apollo 24|7", "Tata 1mg"})
	require.NotNil(t, best)
	assert.Equal(t, "Apollo 24|7", best.Provider)
	assert.Nil(t, Best([]Basket{{Provider: "x"}}, nil))
}
