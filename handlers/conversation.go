package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"agendabot/models"
	"agendabot/services/speech"
	"agendabot/utils"
	"agendabot/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageHandler answers one inbound message for a conversation.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage) (models.AgentReply, error)
}

// PostMessageRequest is the body of an inbound chat message. Either Text or
// AudioBase64 must be set.
type PostMessageRequest struct {
	Text        string `json:"text"`
	ClientName  string `json:"client_name"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

// ConversationHandler exposes the agent over HTTP.
type ConversationHandler struct {
	Sessions MessageHandler
	// Transcriber is optional; without it voice notes are rejected.
	Transcriber speech.Transcriber
	Logger      *zap.Logger
}

func NewConversationHandler(sessions MessageHandler, transcriber speech.Transcriber, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{Sessions: sessions, Transcriber: transcriber, Logger: logger}
}

// PostMessageHandler handles
// POST /api/v1/tenants/:companyID/conversations/:clientID/messages.
func (h *ConversationHandler) PostMessageHandler(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	companyID := c.Param("companyID")
	clientID := c.Param("clientID")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.AbortWithError(c, http.StatusBadRequest, apperr.InvalidArgument("invalid input: %v", err), "")
		return
	}

	text, err := h.inboundText(c.Request.Context(), req)
	if err != nil {
		logger.Info("rejected inbound message", zap.String("company_id", companyID), zap.String("client_id", clientID), zap.Error(err))
		utils.AbortWithError(c, statusFor(err), err, "could not read the message")
		return
	}

	reply, err := h.Sessions.HandleMessage(c.Request.Context(), models.InboundMessage{
		CompanyID:  companyID,
		ClientID:   clientID,
		ClientName: strings.TrimSpace(req.ClientName),
		Text:       text,
	})
	if err != nil {
		logger.Error("conversation turn failed",
			zap.String("company_id", companyID), zap.String("client_id", clientID), zap.Error(err))
		// The only NotFound that reaches here is an unknown tenant.
		if apperr.KindOf(err) == apperr.KindNotFound {
			utils.AbortWithError(c, http.StatusNotFound, apperr.NotFound("tenant not found"), "")
			return
		}
	}
	c.JSON(http.StatusOK, reply)
}

// inboundText returns the message text, transcribing the voice note if one
// was sent. Typed text and a transcript are joined.
func (h *ConversationHandler) inboundText(ctx context.Context, req PostMessageRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if req.AudioBase64 == "" {
		if text == "" {
			return "", apperr.InvalidArgument("text or audio_base64 is required")
		}
		return text, nil
	}

	if h.Transcriber == nil {
		return "", apperr.Precondition("voice notes are not enabled")
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return "", apperr.InvalidArgument("audio_base64 is not valid base64")
	}
	transcript, err := h.Transcriber.Transcribe(ctx, audio, req.Language)
	if err != nil {
		return "", err
	}
	if text == "" {
		return transcript, nil
	}
	return text + "\n" + transcript, nil
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument, apperr.KindInvalidIdentifier:
		return http.StatusBadRequest
	case apperr.KindPrecondition:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTenantMismatch:
		return http.StatusForbidden
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
