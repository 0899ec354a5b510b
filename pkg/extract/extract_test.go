package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantKey  string
		wantVal  any
		wantRaw  string
		wantFail task.FailureReason
	}{
		{
			name:    "fenced block wins over later braces",
			raw:     "Done.\n```json\n{\"price\": \"₹120\"}\n```\nextra {\"price\": \"₹999\"}",
			wantOK:  true,
			wantKey: "price",
			wantVal: "₹120",
		},
		{
			name:    "bare object inside prose",
			raw:     "I found it: {\"title\": \"Masala Dosa\", \"price\": 95} hope that helps",
			wantOK:  true,
			wantKey: "title",
			wantVal: "Masala Dosa",
		},
		{
			name:    "pure json",
			raw:     `  {"status":"success"}  `,
			wantOK:  true,
			wantKey: "status",
			wantVal: "success",
		},
		{
			name:     "sentinel tag with non-json body",
			raw:      `<request_accomplished success="true">ride booked</request_accomplished>`,
			wantRaw:  "ride booked",
			wantFail: task.ReasonParse,
		},
		{
			name:     "plain prose",
			raw:      "Could not find the restaurant.",
			wantRaw:  "Could not find the restaurant.",
			wantFail: task.ReasonParse,
		},
		{
			name:     "empty output",
			raw:      "",
			wantRaw:  "",
			wantFail: task.ReasonParse,
		},
		{
			name:     "single quoted object fails strict parse",
			raw:      "{'status': 'success'}",
			wantRaw:  "{'status': 'success'}",
			wantFail: task.ReasonParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw)
			if tt.wantOK {
				require.True(t, res.OK(), "unexpected failure: %v", res.Failure)
				v, ok := res.Payload.Value(tt.wantKey)
				require.True(t, ok)
				assert.Equal(t, tt.wantVal, v)
				return
			}
			require.False(t, res.OK())
			assert.Equal(t, tt.wantFail, res.Failure.Reason)
			assert.Equal(t, tt.wantRaw, res.Failure.Raw)
			assert.NotEmpty(t, res.Failure.Message)
		})
	}
}

func TestExtractRepair(t *testing.T) {
	ex := New(Options{Repair: true})
	res := ex.Extract("{'status': 'new_reply', 'items': ['Pizza',]}")
	require.True(t, res.OK(), "repair should rescue single quotes: %v", res.Failure)
	assert.Equal(t, "new_reply", res.Payload.Status())
	assert.Equal(t, []string{"Pizza"}, res.Payload.Strings("items"))

	res = ex.Extract("nothing structured here")
	require.False(t, res.OK(), "repair must not turn prose into an object")
}

func TestExtractIdempotent(t *testing.T) {
	raw := "Result:\n```json\n{\"title\": \"Paneer Wrap\", \"price\": 149.5, \"tags\": [\"veg\"], \"meta\": {\"rating\": 4.2}}\n```"
	first := Extract(raw)
	require.True(t, first.OK())

	data, err := json.Marshal(map[string]any(first.Payload))
	require.NoError(t, err)
	second := Extract(string(data))
	require.True(t, second.OK())
	assert.Equal(t, first.Payload, second.Payload)
}

func TestFencedObject(t *testing.T) {
	p, ok := FencedObject("Sure!\n```json\n{\"type\": \"execute\", \"app\": \"Uber\"}\n```")
	require.True(t, ok)
	assert.Equal(t, "execute", p.StringOr("type", ""))

	_, ok = FencedObject(`plain {"type": "execute"}`)
	assert.False(t, ok, "unfenced objects are ignored")
}

func TestArray(t *testing.T) {
	var days []struct {
		DayNumber int `json:"day_number"`
	}
	err := Array("Here you go:\n[{\"day_number\": 1}, {\"day_number\": 2},]\nEnjoy", &days)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 2, days[1].DayNumber)

	err = Array("no list", &days)
	assert.Error(t, err)
}
