// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

import (
	"time"

	"github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

type ChatRequest struct {
	SessionID string `json:"session_id,optional"`
	Message   string `json:"message"`
}

type ActionDebug struct {
	Type        string `json:"type"`
	App         string `json:"app"`
	Instruction string `json:"instruction"`
}

type ChatResponse struct {
	SessionID   string       `json:"session_id"`
	Response    string       `json:"response"`
	ActionDebug *ActionDebug `json:"action_debug,omitempty"`
}

type EndChatRequest struct {
	SessionID string `path:"session"`
}

type EndChatResponse struct {
	SessionID string `json:"session_id"`
	Ended     bool   `json:"ended"`
}

type MedicineLine struct {
	Name string `json:"name"`
	Qty  int    `json:"qty,optional"`
}

type TaskRequest struct {
	Persona   string   `json:"persona"`
	Action    string   `json:"action,optional"`
	Providers []string `json:"providers,optional"`

	Product    string `json:"product,optional"`
	Pickup     string `json:"pickup,optional"`
	Drop       string `json:"drop,optional"`
	Preference string `json:"preference,optional"`
	FoodItem   string `json:"food_item,optional"`

	Medicine []MedicineLine `json:"medicine,optional"`
	Role     string         `json:"role,optional"`

	EventName     string   `json:"event_name,optional"`
	EventDate     string   `json:"event_date,optional"`
	EventTime     string   `json:"event_time,optional"`
	EventLocation string   `json:"event_location,optional"`
	GuestList     []string `json:"guest_list,optional"`

	Source        string `json:"source,optional"`
	Destination   string `json:"destination,optional"`
	Date          string `json:"date,optional"`
	UserInterests string `json:"user_interests,optional"`
	Days          int    `json:"days,optional"`
}

type TaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type TaskStatusRequest struct {
	TaskID string `path:"id"`
}

type TaskStatusResponse struct {
	TaskID     string            `json:"task_id"`
	Persona    string            `json:"persona"`
	Status     string            `json:"status"`
	Summary    string            `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
	Outcome    *workflow.Outcome `json:"outcome,omitempty"`
	QueuedAt   time.Time         `json:"queued_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

type DispatchRequest struct {
	App         string `json:"app"`
	Instruction string `json:"instruction"`
	// Reset presses Home before dispatching.
	Reset bool `json:"reset,optional"`
}

type DispatchResponse struct {
	Status  string         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Error   string         `json:"error,omitempty"`
}
