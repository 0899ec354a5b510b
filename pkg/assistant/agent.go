// Package assistant is the conversational front door: it keeps per-session
// chat history, asks the language model for a reply, and when the reply
// carries an execute block it runs that instruction on the device.
package assistant

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/extract"
	"github.com/adityaadep2008/TrioAgent/pkg/llm"
	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
	"github.com/adityaadep2008/TrioAgent/pkg/router"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

//go:embed templates/persona.tmpl
var templateFS embed.FS

var personaTemplate = prompt.Must(prompt.FromFS(templateFS, "templates/persona.tmpl", template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}))

const (
	actionExecute = "execute"
	// maxHistory caps stored turns per session; older turns are dropped in pairs.
	maxHistory = 40
)

// DefaultCapabilities lists what the persona tells users it can do.
var DefaultCapabilities = []string{
	"Book Rides (Uber, Ola)",
	"Order Food (Zomato, Swiggy)",
	"Buy Medicine (PharmEasy, Apollo 24|7, Tata 1mg)",
	"Book Flights/Hotels (MakeMyTrip, Booking.com)",
	"Send Messages (WhatsApp)",
}

// Action is the execute block the model emits when a task is ready.
type Action struct {
	Type        string `json:"type"`
	App         string `json:"app"`
	Instruction string `json:"instruction"`
	Speak       string `json:"speak,omitempty"`
}

// Reply is what one chat turn returns to the caller.
type Reply struct {
	SessionID string       `json:"session_id"`
	Text      string       `json:"response"`
	Action    *Action      `json:"action_debug,omitempty"`
	Result    *task.Result `json:"result,omitempty"`
}

// Agent answers chat turns.
type Agent struct {
	llm      llm.Completer
	router   router.Dispatcher
	sessions *Sessions
	system   string
}

// Option configures an Agent.
type Option func(*agentOptions)

type agentOptions struct {
	name         string
	capabilities []string
}

// WithPersona sets the assistant's name and advertised capabilities.
func WithPersona(name string, capabilities []string) Option {
	return func(o *agentOptions) {
		if name != "" {
			o.name = name
		}
		if len(capabilities) > 0 {
			o.capabilities = capabilities
		}
	}
}

// NewAgent builds an Agent. The session store is owned by the caller.
func NewAgent(cm llm.Completer, d router.Dispatcher, sessions *Sessions, opts ...Option) (*Agent, error) {
	o := agentOptions{name: "Sanjeevani", capabilities: DefaultCapabilities}
	for _, opt := range opts {
		opt(&o)
	}
	system, err := personaTemplate.Render(struct {
		Name         string
		Capabilities []string
	}{o.name, o.capabilities})
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		if sessions, err = NewSessions(0); err != nil {
			return nil, err
		}
	}
	return &Agent{llm: cm, router: d, sessions: sessions, system: system}, nil
}

// Sessions exposes the store so callers can destroy sessions.
func (a *Agent) Sessions() *Sessions { return a.sessions }

// Chat runs one turn in the session named sessionID, creating it if needed.
// Model and device failures come back as spoken text, not errors; the error
// return is only for an unusable session id.
func (a *Agent) Chat(ctx context.Context, sessionID, text string) (*Reply, error) {
	sess, err := a.sessions.Open(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply := &Reply{SessionID: sess.ID}
	text = strings.TrimSpace(text)
	if text == "" {
		reply.Text = "I didn't catch that. Could you say it again?"
		return reply, nil
	}

	msgs := make([]llm.Message, 0, len(sess.history)+2)
	msgs = append(msgs, llm.System(a.system))
	msgs = append(msgs, sess.history...)
	msgs = append(msgs, llm.User(text))

	answer, err := llm.Complete(ctx, a.llm, msgs...)
	if err != nil {
		logx.WithContext(ctx).Errorf("assistant: llm call failed for session %s: %v", sess.ID, err)
		reply.Text = fmt.Sprintf("I'm sorry, my brain is having trouble connecting. Error: %v", err)
		return reply, nil
	}

	sess.history = append(sess.history, llm.User(text), llm.Assistant(answer))
	if over := len(sess.history) - maxHistory; over > 0 {
		sess.history = append([]llm.Message(nil), sess.history[over+over%2:]...)
	}
	sess.updatedAt = time.Now()

	reply.Text = answer
	action, ok := parseAction(answer)
	if !ok {
		return reply, nil
	}
	reply.Action = action
	res := a.execute(ctx, action)
	reply.Result = &res
	reply.Text = speak(res)
	return reply, nil
}

func (a *Agent) execute(ctx context.Context, action *Action) task.Result {
	logx.WithContext(ctx).Infow("assistant triggering agent", logx.Field("app", action.App))
	a.router.ResetBaseline(ctx)
	res := a.router.Dispatch(ctx, task.Goal{Target: action.App, Instruction: action.Instruction})
	if res.OK() && res.Payload.Status() == "failed" {
		msg := res.Payload.StringOr("error", res.Payload.StringOr("message", "Unknown error"))
		return task.Fail(task.ReasonAgent, msg, "")
	}
	return res
}

// parseAction finds a fenced execute block with both an app and an instruction.
func parseAction(answer string) (*Action, bool) {
	payload, ok := extract.FencedObject(answer)
	if !ok || !strings.EqualFold(payload.StringOr("type", ""), actionExecute) {
		return nil, false
	}
	action := &Action{
		Type:        actionExecute,
		App:         payload.StringOr("app", ""),
		Instruction: payload.StringOr("instruction", ""),
		Speak:       payload.StringOr("speak", ""),
	}
	if action.App == "" || action.Instruction == "" {
		return nil, false
	}
	return action, true
}

func speak(res task.Result) string {
	if !res.OK() {
		msg := res.Failure.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Sprintf("I tried, but ran into an issue: %s.", strings.TrimSuffix(msg, "."))
	}
	text := "Done! " + res.Payload.StringOr("message", "Task completed successfully.")
	if price, ok := res.Payload.String("price"); ok {
		text += fmt.Sprintf(" The price is %s.", price)
	}
	return text
}
