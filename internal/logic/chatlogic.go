package logic

import (
	"context"
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/internal/svc"
	"github.com/adityaadep2008/TrioAgent/internal/types"
)

type ChatLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChatLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatLogic {
	return &ChatLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ChatLogic) Chat(req *types.ChatRequest) (*types.ChatResponse, error) {
	if l.svcCtx.Assistant == nil {
		return nil, newCodeError(http.StatusServiceUnavailable, "assistant unavailable: no language model configured")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, newCodeError(http.StatusBadRequest, "message is required")
	}
	reply, err := l.svcCtx.Assistant.Chat(l.ctx, req.SessionID, req.Message)
	if err != nil {
		return nil, badRequest(err)
	}
	resp := &types.ChatResponse{SessionID: reply.SessionID, Response: reply.Text}
	if reply.Action != nil {
		resp.ActionDebug = &types.ActionDebug{
			Type:        reply.Action.Type,
			App:         reply.Action.App,
			Instruction: reply.Action.Instruction,
		}
		l.Infof("chat %s executed %s", reply.SessionID, reply.Action.App)
	}
	return resp, nil
}

func (l *ChatLogic) EndChat(req *types.EndChatRequest) (*types.EndChatResponse, error) {
	if l.svcCtx.Assistant == nil {
		return nil, newCodeError(http.StatusServiceUnavailable, "assistant unavailable: no language model configured")
	}
	if !l.svcCtx.Assistant.Sessions().Destroy(req.SessionID) {
		return nil, newCodeError(http.StatusNotFound, "session %s not found", req.SessionID)
	}
	return &types.EndChatResponse{SessionID: req.SessionID, Ended: true}, nil
}
