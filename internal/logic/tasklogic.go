package logic

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/svc"
	"github.com/adityaadep2008/TrioAgent/internal/types"
	"github.com/adityaadep2008/TrioAgent/internal/worker"
	"github.com/adityaadep2008/TrioAgent/pkg/basket"
	"github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

type TaskLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTaskLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TaskLogic {
	return &TaskLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *TaskLogic) Submit(req *types.TaskRequest) (*types.TaskResponse, error) {
	t, err := l.svcCtx.Tasks.Submit(toMission(req))
	switch {
	case errors.Is(err, worker.ErrQueueFull):
		return nil, newCodeError(http.StatusTooManyRequests, "%v", err)
	case errors.Is(err, worker.ErrStopped):
		return nil, newCodeError(http.StatusServiceUnavailable, "%v", err)
	case err != nil:
		return nil, badRequest(err)
	}
	return &types.TaskResponse{TaskID: t.ID, Status: string(t.Status)}, nil
}

func (l *TaskLogic) Status(req *types.TaskStatusRequest) (*types.TaskStatusResponse, error) {
	t, ok := l.svcCtx.Tasks.Get(req.TaskID)
	if !ok {
		return nil, newCodeError(http.StatusNotFound, "task %s not found", req.TaskID)
	}
	return &types.TaskStatusResponse{
		TaskID:     t.ID,
		Persona:    string(t.Persona),
		Status:     string(t.Status),
		Summary:    t.Summary,
		Error:      t.Error,
		Outcome:    t.Outcome,
		QueuedAt:   t.QueuedAt,
		StartedAt:  optionalTime(t.StartedAt),
		FinishedAt: optionalTime(t.FinishedAt),
	}, nil
}

func toMission(req *types.TaskRequest) workflow.Mission {
	m := workflow.Mission{
		Persona:       workflow.Persona(strings.ToLower(strings.TrimSpace(req.Persona))),
		Action:        req.Action,
		Providers:     req.Providers,
		Product:       req.Product,
		Pickup:        req.Pickup,
		Drop:          req.Drop,
		Preference:    req.Preference,
		FoodItem:      req.FoodItem,
		Role:          req.Role,
		EventName:     req.EventName,
		EventDate:     req.EventDate,
		EventTime:     req.EventTime,
		EventLocation: req.EventLocation,
		GuestList:     req.GuestList,
		Source:        req.Source,
		Destination:   req.Destination,
		Date:          req.Date,
		UserInterests: req.UserInterests,
		Days:          req.Days,
	}
	for _, line := range req.Medicine {
		m.Medicine = append(m.Medicine, basket.Item{Name: strings.TrimSpace(line.Name), Qty: line.Qty})
	}
	return m
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
