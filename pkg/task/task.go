package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Goal is a single instruction aimed at one target application or provider.
type Goal struct {
	Target      string
	Instruction string
}

// String returns a short human readable form used in logs.
func (g Goal) String() string {
	instr := g.Instruction
	if len(instr) > 50 {
		instr = instr[:50] + "..."
	}
	return fmt.Sprintf("%s: %q", g.Target, instr)
}

// FailureReason classifies why a dispatch did not produce a payload.
type FailureReason string

const (
	ReasonEngine     FailureReason = "engine_error"
	ReasonParse      FailureReason = "json_parse_error"
	ReasonAgent      FailureReason = "agent_reported_failure"
	ReasonNoTemplate FailureReason = "template_error"
)

// Failure describes an unsuccessful dispatch.
type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message,omitempty"`
	Raw     string        `json:"raw,omitempty"`
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.Message == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// Result is the outcome of one dispatched Goal. Exactly one of Payload and
// Failure is set.
type Result struct {
	Payload Payload  `json:"payload,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Success wraps a parsed payload.
func Success(p Payload) Result {
	if p == nil {
		p = Payload{}
	}
	return Result{Payload: p}
}

// Fail builds a failed result.
func Fail(reason FailureReason, message, raw string) Result {
	return Result{Failure: &Failure{Reason: reason, Message: message, Raw: raw}}
}

// OK reports whether the result carries a payload.
func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Payload is the schema-light mapping extracted from agent output. Readers
// go through the accessors so a missing key is a checked branch.
type Payload map[string]any

// Value returns the raw value stored under key.
func (p Payload) Value(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value under key rendered as a trimmed string. Numbers
// are formatted without exponent. Empty strings count as missing.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Value(key)
	if !ok {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		s = string(data)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// StringOr returns String(key) or def when the key is missing.
func (p Payload) StringOr(key, def string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return def
}

// Strings returns the value under key as a list of non-empty strings. A bare
// string is treated as a one-element list.
func (p Payload) Strings(key string) []string {
	v, ok := p.Value(key)
	if !ok {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := (Payload{"v": item}).String("v"); ok {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s, ok := p.String(key); ok {
			out = append(out, s)
		}
	}
	return out
}

// Status returns the lower-cased "status" field, if any.
func (p Payload) Status() string {
	return strings.ToLower(p.StringOr("status", ""))
}
