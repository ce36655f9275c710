package chats

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/llm"
	"invoice-backend/internal/shared/metrics"
	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
	"invoice-backend/internal/usage"
)

// Handler exposes the chat surface: the streaming turn endpoint, chat
// deletion, history, and message listing.
type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.turn)
	rg.DELETE("/chat", h.delete)
	rg.GET("/history", h.history)
	rg.GET("/chat/:id/messages", h.messages)
}

type turnRequest struct {
	ID                string    `json:"id" binding:"required"`
	Messages          []Message `json:"messages" binding:"required"`
	SelectedChatModel string    `json:"selectedChatModel" binding:"required"`
}

// streamFrame is one SSE data payload on the turn stream.
type streamFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	ToolName  string `json:"toolName,omitempty"`
	ToolArgs  string `json:"toolArgs,omitempty"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) turn(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("chatId", req.ID)

	events, err := h.Service.StreamTurn(c.Request.Context(), TurnInput{
		ChatID:   req.ID,
		UserID:   userID,
		ModelKey: req.SelectedChatModel,
		Messages: req.Messages,
	})
	if err != nil {
		var rejected *RejectedError
		switch {
		case errors.As(err, &rejected):
			respond.Error(c, http.StatusBadRequest, "document_rejected", rejected.Error(), nil)
		case errors.Is(err, ErrNoUserMessage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "No user message found", nil)
		case errors.Is(err, usage.ErrUnsupportedModel):
			respond.Error(c, http.StatusBadRequest, "unsupported_model", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start chat turn", nil)
		}
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		if ev.Type == llm.EventError {
			metrics.IncTurnFailed()
		}
		writeFrame(c, frameFor(ev))
		return true
	})
}

func frameFor(ev llm.Event) streamFrame {
	frame := streamFrame{Type: string(ev.Type)}
	switch ev.Type {
	case llm.EventText:
		frame.Text = ev.Text
	case llm.EventReasoning:
		frame.Reasoning = ev.Reasoning
	case llm.EventToolCall:
		frame.ToolName = ev.ToolCall.Name
		frame.ToolArgs = ev.ToolCall.Arguments
	case llm.EventToolResult:
		frame.ToolName = ev.ToolCall.Name
		frame.Result = ev.ToolResult
	case llm.EventError:
		frame.Error = ev.Err.Error()
	}
	return frame
}

func writeFrame(c *gin.Context, frame streamFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.Writer.WriteString("data: ")
	c.Writer.Write(payload)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}
	chatID := c.Query("id")
	if chatID == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "Chat not found", nil)
		return
	}

	err := h.Service.Delete(c.Request.Context(), chatID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Chat not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "An error occurred while processing your request", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"message": "Chat deleted"})
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	chats, err := h.Service.Repo.ListChatsByUser(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list chats", nil)
		return
	}
	if chats == nil {
		chats = []Chat{}
	}
	respond.JSON(c, http.StatusOK, chats)
}

func (h *Handler) messages(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}
	chatID := c.Param("id")

	chat, err := h.Service.Repo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Chat not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read chat", nil)
		return
	}
	if chat.UserID != userID {
		respond.Error(c, http.StatusNotFound, "not_found", "Chat not found", nil)
		return
	}

	messages, err := h.Service.Repo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list messages", nil)
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	respond.JSON(c, http.StatusOK, messages)
}
