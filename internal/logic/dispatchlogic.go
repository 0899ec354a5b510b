package logic

import (
	"context"
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/svc"
	"github.com/adityaadep2008/TrioAgent/internal/types"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

type DispatchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDispatchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DispatchLogic {
	return &DispatchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Dispatch runs one raw instruction. Device failures are reported in the
// body with a 200, matching how workflows see them.
func (l *DispatchLogic) Dispatch(req *types.DispatchRequest) (*types.DispatchResponse, error) {
	if strings.TrimSpace(req.App) == "" || strings.TrimSpace(req.Instruction) == "" {
		return nil, newCodeError(http.StatusBadRequest, "app and instruction are required")
	}
	if req.Reset {
		l.svcCtx.Device.ResetBaseline(l.ctx)
	}
	res := l.svcCtx.Device.Dispatch(l.ctx, task.Goal{Target: req.App, Instruction: req.Instruction})
	if !res.OK() {
		l.Slowf("dispatch to %s failed: %s", req.App, res.Failure.Error())
		return &types.DispatchResponse{
			Status: "failed",
			Reason: string(res.Failure.Reason),
			Error:  res.Failure.Message,
		}, nil
	}
	return &types.DispatchResponse{Status: "success", Payload: res.Payload}, nil
}
