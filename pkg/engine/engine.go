// Package engine describes the UI-automation execution engine that drives
// the device. Two variants exist: a remote job API (Cloud) and a local,
// in-process agent run (SessionFactory). Both are black boxes that take an
// instruction and return free text.
package engine

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingCredential is returned by the cloud client when no API key is configured.
	ErrMissingCredential = errors.New("engine: cloud credential not set")
	// ErrJobNotCompleted is returned when a cloud job reaches a terminal status other than COMPLETED.
	ErrJobNotCompleted = errors.New("engine: cloud job did not complete")
	// ErrPollTimeout is returned when a cloud job does not finish within the wait budget.
	ErrPollTimeout = errors.New("engine: cloud job wait budget exhausted")
)

// Request is one instruction for the engine.
type Request struct {
	AppID       string `json:"app_id"`
	Instruction string `json:"instruction"`
	Device      string `json:"device,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Output is what an engine run hands back.
type Output struct {
	// Reason is the agent's final free-text answer when the engine reports one.
	Reason string
	// Raw is the full textual output.
	Raw string
}

// Text returns the textual output used for extraction.
func (o Output) Text() string {
	if strings.TrimSpace(o.Reason) != "" {
		return o.Reason
	}
	return o.Raw
}

// Session is a single engine run scoped to exactly one instruction.
type Session interface {
	Run(ctx context.Context) (Output, error)
}

// SessionFactory creates a fresh local session per instruction.
type SessionFactory interface {
	NewSession(req Request) (Session, error)
}

// Cloud submits a job to the remote engine and waits for its result.
type Cloud interface {
	Run(ctx context.Context, req Request) (*JobResult, error)
}

// SessionFunc adapts a plain function to the Session interface.
type SessionFunc func(ctx context.Context) (Output, error)

// Run implements Session.
func (f SessionFunc) Run(ctx context.Context) (Output, error) { return f(ctx) }

// FactoryFunc adapts a plain function to the SessionFactory interface.
type FactoryFunc func(req Request) (Session, error)

// NewSession implements SessionFactory.
func (f FactoryFunc) NewSession(req Request) (Session, error) { return f(req) }
