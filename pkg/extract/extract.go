// Package extract turns free-form agent output into a typed task.Result.
//
// The agents on the other side are language models and rarely emit pure
// JSON, so the input side is permissive: a fenced ```json block, the first
// brace-delimited substring, or the body of a <request_accomplished> tag are
// all accepted. The output side is strict: every call yields either a parsed
// object or a task.Failure, never a panic or an error value.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

const (
	sentinelOpen  = "<request_accomplished"
	sentinelClose = "</request_accomplished>"
)

var (
	fencedPattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	bracePattern  = regexp.MustCompile(`(?s)(\{.*\})`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// Options tunes the extractor.
type Options struct {
	// Repair runs a JSON repair pass over a candidate that failed strict
	// parsing (single quotes, trailing commas, unquoted keys). Off by default.
	Repair bool
}

// Extractor converts raw agent text into a task.Result.
type Extractor struct {
	opts Options
}

// New returns an Extractor with the given options.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Default is a strict extractor with repair disabled.
var Default = New(Options{})

// Extract runs the candidate search and strict parse.
func (e *Extractor) Extract(raw string) task.Result {
	candidate := Candidate(raw)

	payload, err := parseObject(candidate)
	if err == nil {
		return task.Success(payload)
	}
	if e != nil && e.opts.Repair {
		if fixed, repairErr := jsonrepair.JSONRepair(candidate); repairErr == nil {
			if repaired, perr := parseObject(fixed); perr == nil {
				logx.Infof("extract: repaired malformed agent json (%d bytes)", len(candidate))
				return task.Success(repaired)
			}
		}
	}
	return task.Fail(task.ReasonParse, err.Error(), candidate)
}

// Extract runs the Default extractor.
func Extract(raw string) task.Result {
	return Default.Extract(raw)
}

// Candidate selects the text most likely to hold the structured object,
// first match wins: fenced json block, first brace substring, sentinel tag
// body, trimmed whole text.
func Candidate(raw string) string {
	raw = sanitize(raw)
	if m := fencedPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := bracePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	candidate := strings.TrimSpace(raw)
	if body, ok := sentinelBody(candidate); ok {
		return body
	}
	return candidate
}

// FencedObject returns the object inside a ```json fenced block. Unlike
// Extract it does not fall back to other shapes; it is used where plain
// prose must stay prose (chat replies).
func FencedObject(raw string) (task.Payload, bool) {
	m := fencedPattern.FindStringSubmatch(sanitize(raw))
	if m == nil {
		return nil, false
	}
	payload, err := parseObject(m[1])
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Array decodes the first bracket-delimited JSON array in raw into target,
// applying the repair pass when strict decoding fails.
func Array(raw string, target any) error {
	match := arrayPattern.FindString(sanitize(raw))
	if match == "" {
		return fmt.Errorf("extract: no json array found")
	}
	if err := json.Unmarshal([]byte(match), target); err == nil {
		return nil
	}
	fixed, err := jsonrepair.JSONRepair(match)
	if err != nil {
		return fmt.Errorf("extract: repair json array: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), target); err != nil {
		return fmt.Errorf("extract: decode json array: %w", err)
	}
	return nil
}

func parseObject(candidate string) (task.Payload, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("parse agent output: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("parse agent output: not a json object")
	}
	return task.Payload(payload), nil
}

func sentinelBody(s string) (string, bool) {
	start := strings.Index(s, sentinelOpen)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(sentinelOpen):]
	gt := strings.Index(rest, ">")
	if gt < 0 {
		return "", false
	}
	body := rest[gt+1:]
	if end := strings.Index(body, sentinelClose); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// sanitize performs minimal cleanup prior to parsing.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(s, "\uFEFF")
}
