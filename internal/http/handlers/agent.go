package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type AgentHandler struct {
	log   *logger.Logger
	agent services.AgentService
}

func NewAgentHandler(log *logger.Logger, agent services.AgentService) *AgentHandler {
	return &AgentHandler{log: log.With("handler", "AgentHandler"), agent: agent}
}

// POST /api/agent/summary/:project_id/:commit_sha
func (h *AgentHandler) CommitSummary(c *gin.Context) {
	id, err := uuidParam(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	s, err := h.agent.CommitSummary(c.Request.Context(), id, c.Param("commit_sha"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, s)
}

// POST /api/agent/chat/:project_id
//
// Validation and persistence errors are answered as JSON. Once the event
// stream has started, failures are reported in-band as {"error": ...}.
func (h *AgentHandler) Chat(c *gin.Context) {
	id, err := uuidParam(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req services.ChatRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	session, err := h.agent.StartChat(ctx, id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	defer session.Close()

	sse := newSSEWriter(c)
	for {
		frag, err := session.Next()
		if services.IsEndOfStream(err) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				session.Abort(ctx, "client disconnected")
				return
			}
			h.log.Warn("chat stream failed", "conversation_id", session.ConversationID, "error", err)
			_ = sse.send(gin.H{"error": err.Error()})
			session.Abort(ctx, "model error")
			return
		}
		if err := sse.send(gin.H{"text": frag}); err != nil {
			session.Abort(ctx, "client disconnected")
			return
		}
	}

	if _, err := session.Complete(context.WithoutCancel(ctx)); err != nil {
		h.log.Error("store assistant reply failed", "conversation_id", session.ConversationID, "error", err)
		_ = sse.send(gin.H{"error": "failed to store reply"})
		return
	}
	_ = sse.send(gin.H{"done": true, "conversation_id": session.ConversationID.String()})
}

// GET /api/agent/conversations/:id
func (h *AgentHandler) ListConversations(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.agent.ListConversations(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/agent/conversations/:id/messages
func (h *AgentHandler) ListMessages(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.agent.ListMessages(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
