package ai

import (
	"context"
	"fmt"
	"time"

	conversationRepo "agendabot/database/repository/conversation"
	tenantRepo "agendabot/database/repository/tenant"
	"agendabot/models"
	"agendabot/services/retry"
	"agendabot/utils"
	"agendabot/utils/apperr"

	"go.uber.org/zap"
)

// TurnState is where a message is in the model/tool loop.
type TurnState int

const (
	AwaitingModel TurnState = iota
	ModelRespondedWithToolCalls
	DispatchingTools
	ToolResultsReady
	ModelRespondedWithText
	Done
)

func (s TurnState) String() string {
	switch s {
	case AwaitingModel:
		return "awaiting_model"
	case ModelRespondedWithToolCalls:
		return "model_responded_with_tool_calls"
	case DispatchingTools:
		return "dispatching_tools"
	case ToolResultsReady:
		return "tool_results_ready"
	case ModelRespondedWithText:
		return "model_responded_with_text"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("turn_state(%d)", int(s))
	}
}

const DefaultFallbackMessage = "Desculpe, tive um problema para responder agora. Pode tentar novamente em instantes?"

// SessionConfig tunes the conversation loop.
type SessionConfig struct {
	// MaxModelCalls caps model calls per inbound message.
	MaxModelCalls   int
	HistoryWindow   int
	ModelTimeout    time.Duration
	Retry           retry.Policy
	FallbackMessage string
	DefaultTimezone string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxModelCalls:   10,
		HistoryWindow:   50,
		ModelTimeout:    30 * time.Second,
		Retry:           retry.DefaultPolicy(),
		FallbackMessage: DefaultFallbackMessage,
		DefaultTimezone: "America/Sao_Paulo",
	}
}

// SessionManager owns conversations: it loads and sanitizes the transcript,
// drives the model/tool loop for one inbound message and stores the result.
type SessionManager struct {
	tenants     tenantRepo.TenantRepository
	transcripts conversationRepo.TranscriptRepository
	provider    ModelProvider
	dispatcher  *Dispatcher
	locker      ConversationLocker
	cfg         SessionConfig
	logger      *zap.Logger
	now         func() time.Time
}

func NewSessionManager(
	tenants tenantRepo.TenantRepository,
	transcripts conversationRepo.TranscriptRepository,
	provider ModelProvider,
	dispatcher *Dispatcher,
	locker ConversationLocker,
	cfg SessionConfig,
	logger *zap.Logger,
) *SessionManager {
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.MaxModelCalls <= 0 {
		cfg.MaxModelCalls = 10
	}
	return &SessionManager{
		tenants:     tenants,
		transcripts: transcripts,
		provider:    provider,
		dispatcher:  dispatcher,
		locker:      locker,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleMessage answers one inbound message. On failure the returned reply
// still carries the fallback text, so callers can always send reply.Text
// unless reply.Silent is set.
func (m *SessionManager) HandleMessage(ctx context.Context, msg models.InboundMessage) (models.AgentReply, error) {
	log := m.logger.With(zap.String("company_id", msg.CompanyID), zap.String("client_id", msg.ClientID))
	fallback := models.AgentReply{Text: m.cfg.FallbackMessage, Fallback: true}

	tenant, err := m.tenants.GetTenant(ctx, msg.CompanyID)
	if err != nil {
		log.Error("failed to load tenant", zap.Error(err))
		return fallback, fmt.Errorf("load tenant: %w", err)
	}
	if !tenant.AgentEnabled {
		log.Debug("agent disabled for tenant; staying silent")
		return models.AgentReply{Silent: true}, nil
	}

	lease, err := m.locker.Acquire(ctx, msg.CompanyID, msg.ClientID)
	if err != nil {
		log.Error("failed to acquire conversation lock", zap.Error(err))
		return fallback, err
	}
	defer lease.Release()

	history, err := m.transcripts.Load(ctx, msg.CompanyID, msg.ClientID, m.cfg.HistoryWindow)
	if err != nil {
		log.Error("failed to load transcript", zap.Error(err))
		return fallback, fmt.Errorf("load transcript: %w", err)
	}
	history = Sanitize(history)

	loc := utils.LoadLocation(tenant.Timezone, m.cfg.DefaultTimezone)
	prompt := SystemPrompt(tenant, loc, m.now(), msg.ClientName)
	chat := m.provider.StartChat(prompt, history, Tools())
	conv := NewConversation(tenant, msg.ClientID)

	text, newTurns, toolCalls, loopErr := m.runLoop(ctx, log, chat, conv, msg.Text)

	if !lease.Held() {
		// Another request may own the transcript now; saving would overwrite it.
		log.Error("conversation lock lost during turn; transcript not saved")
		if loopErr == nil {
			loopErr = ErrLockLost
		}
	} else if err := m.persist(ctx, msg, history, newTurns); err != nil {
		log.Error("failed to save transcript", zap.Error(err))
		if loopErr == nil {
			loopErr = fmt.Errorf("save transcript: %w", err)
		}
	}
	if loopErr != nil {
		log.Error("conversation turn failed", zap.Error(loopErr))
		fallback.ToolCalls = toolCalls
		return fallback, loopErr
	}

	reply := models.AgentReply{Text: text, ToolCalls: toolCalls}
	if reply.Text == "" {
		reply.Text, reply.Fallback = m.cfg.FallbackMessage, true
	}
	return reply, nil
}

// runLoop drives the model until it answers in prose or the call budget is
// spent. It returns the reply text and the turns to append to the transcript.
func (m *SessionManager) runLoop(
	ctx context.Context,
	log *zap.Logger,
	chat ChatSession,
	conv *Conversation,
	userText string,
) (string, []models.Turn, int, error) {
	turns := []models.Turn{models.UserTurn(userText, m.now())}
	var (
		results   []models.ToolResult
		lastText  string
		toolCalls int
		reply     ModelReply
	)

	state := AwaitingModel
	for calls := 0; ; {
		switch state {
		case AwaitingModel:
			if calls >= m.cfg.MaxModelCalls {
				log.Warn("model call budget exhausted", zap.Int("calls", calls))
				if lastText != "" {
					turns = append(turns, models.ModelTurn(lastText, nil, m.now()))
				}
				return lastText, turns, toolCalls, nil
			}
			var err error
			reply, err = m.callModel(ctx, log, chat, calls, userText, results)
			calls++
			if err != nil {
				return "", turns, toolCalls, err
			}
			if reply.Text != "" {
				lastText = reply.Text
			}
			if len(reply.ToolCalls) > 0 {
				state = ModelRespondedWithToolCalls
			} else {
				state = ModelRespondedWithText
			}

		case ModelRespondedWithToolCalls:
			turns = append(turns, models.ModelTurn(reply.Text, reply.ToolCalls, m.now()))
			state = DispatchingTools

		case DispatchingTools:
			toolCalls += len(reply.ToolCalls)
			results = m.dispatcher.DispatchAll(ctx, conv, reply.ToolCalls)
			turns = append(turns, models.ToolTurn(results, m.now()))
			state = ToolResultsReady

		case ToolResultsReady:
			state = AwaitingModel

		case ModelRespondedWithText:
			turns = append(turns, models.ModelTurn(reply.Text, nil, m.now()))
			state = Done

		case Done:
			return reply.Text, turns, toolCalls, nil
		}
	}
}

// callModel sends the user text on the first call and tool results after
// that, retrying rate limits.
func (m *SessionManager) callModel(
	ctx context.Context,
	log *zap.Logger,
	chat ChatSession,
	call int,
	userText string,
	results []models.ToolResult,
) (ModelReply, error) {
	return retry.Do(ctx, m.cfg.Retry, func(ctx context.Context, attempt int) (ModelReply, error) {
		if attempt > 0 {
			log.Warn("retrying model call after rate limit", zap.Int("attempt", attempt), zap.Int("call", call))
		}
		ctx, cancel := context.WithTimeout(ctx, m.cfg.ModelTimeout)
		defer cancel()

		var (
			reply ModelReply
			err   error
		)
		if call == 0 {
			reply, err = chat.GenerateTurn(ctx, userText)
		} else {
			reply, err = chat.ContinueWithToolResults(ctx, results)
		}
		if err != nil && ctx.Err() == context.DeadlineExceeded && apperr.KindOf(err) == "" {
			err = apperr.Wrap(apperr.KindTimeout, err, "model did not answer in time")
		}
		return reply, err
	})
}

// persist appends the new turns and stores the sanitized window. The fallback
// apology is never written, so a failed turn leaves only what really happened.
func (m *SessionManager) persist(ctx context.Context, msg models.InboundMessage, history, newTurns []models.Turn) error {
	full := make([]models.Turn, 0, len(history)+len(newTurns))
	full = append(full, history...)
	full = append(full, newTurns...)
	return m.transcripts.Save(ctx, msg.CompanyID, msg.ClientID, Window(full, m.cfg.HistoryWindow))
}
