package chat

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"jomkira/internal/api"
	"jomkira/internal/logger"
	"jomkira/internal/models"

	"go.uber.org/zap"
)

// ErrTurnInFlight is reported when a send is attempted while another turn is
// still waiting for its response.
var ErrTurnInFlight = errors.New("a message is already being sent")

var errConversationCleared = errors.New("conversation cleared while waiting for response")

const Greeting = "Hello! I'm JomKira AI. How can I assist you today? I can help you with bank transfers, bill payments, or balance inquiries."

// Transport is the chat endpoint as seen by a session.
type Transport interface {
	Chat(ctx context.Context, req api.ChatRequest, sessionID string) (*api.ChatResponse, error)
	Init(ctx context.Context, req api.ChatRequest, sessionID string) (*api.ChatResponse, error)
}

type Options struct {
	InitialBalance float64
	// SeedGreeting makes InitSession append Greeting to an empty transcript
	// before contacting the server.
	SeedGreeting bool
	// OnError receives every failure as a normalized value. It is called
	// without the session lock held.
	OnError func(error)
	Logger  *zap.Logger
	Now     func() time.Time
}

// Session owns the transcript, the live tool calls, the loading flag, the
// server session id and the banking state mirror. It is safe for concurrent
// use; at most one turn is in flight at a time.
type Session struct {
	transport Transport
	opts      Options
	log       *zap.Logger
	stateLog  *zap.Logger

	mu        sync.RWMutex
	messages  []models.ChatMessage
	toolCalls []models.ToolCall
	loading   bool
	sessionID string
	state     models.BankingState
	lastID    int64
	// epoch changes on ClearChat so a response for a cleared conversation is
	// dropped instead of landing in the new one.
	epoch uint64
}

func NewSession(transport Transport, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logger.OrNop(opts.Logger)
	return &Session{
		transport: transport,
		opts:      opts,
		log:       log.Named(logger.Chat),
		stateLog:  log.Named(logger.State),
		state:     models.NewBankingState(opts.InitialBalance),
	}
}

func (s *Session) nextIDLocked() string {
	id := s.opts.Now().UnixNano()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Session) reportError(err error) {
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
}

// SendMessage appends a user message, sends the whole transcript and appends
// the assistant reply. It returns the reply and true on success. Failures are
// logged and passed to OnError; the transcript then holds only the user
// message.
func (s *Session) SendMessage(ctx context.Context, text string, image *models.Image) (models.ChatMessage, bool) {
	reply, err := s.exchange(ctx, text, image)
	if errors.Is(err, errConversationCleared) {
		return models.ChatMessage{}, false
	}
	if err != nil {
		s.reportError(err)
		return models.ChatMessage{}, false
	}
	return reply, true
}

func (s *Session) exchange(ctx context.Context, text string, image *models.Image) (models.ChatMessage, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		s.log.Warn("send rejected, turn in flight")
		return models.ChatMessage{}, ErrTurnInFlight
	}

	user := models.ChatMessage{
		ID:      s.nextIDLocked(),
		Role:    models.RoleUser,
		Content: text,
	}
	if image != nil {
		img := *image
		user.Image = &img
	}
	s.messages = append(s.messages, user)
	s.loading = true

	req := api.ChatRequest{Messages: api.Project(s.messages)}
	sessionID := s.sessionID
	if sessionID == "" {
		balance := s.state.Balance
		req.InitialBalance = &balance
	}
	epoch := s.epoch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	resp, err := s.transport.Chat(ctx, req, sessionID)
	if err != nil {
		apiErr := api.Normalize(err)
		s.log.Error("failed to send message", zap.Error(apiErr), zap.String("kind", string(apiErr.Kind)))
		return models.ChatMessage{}, apiErr
	}

	s.log.Info("received chat response",
		zap.Bool("has_message", resp.Message.Content != ""),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.Bool("has_state", resp.State != nil),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.log.Info("dropping response for cleared conversation")
		return models.ChatMessage{}, errConversationCleared
	}

	if resp.SessionID != "" && resp.SessionID != s.sessionID {
		s.sessionID = resp.SessionID
		s.log.Debug("session adopted", zap.String("session_id", resp.SessionID))
	}

	reply := models.ChatMessage{
		ID:           s.nextIDLocked(),
		Role:         models.RoleAssistant,
		Content:      resp.Message.Content,
		ToolCalls:    models.CloneToolCalls(resp.ToolCalls),
		BankingState: resp.State.Clone(),
	}
	s.messages = append(s.messages, reply)
	s.toolCalls = nil

	if resp.State != nil {
		prev := s.state.Status
		s.state = *resp.State.Clone()
		s.stateLog.Info("banking state updated",
			zap.String("from", string(prev)),
			zap.String("to", string(s.state.Status)),
			zap.Float64("balance", s.state.Balance),
		)
	}

	return reply.Clone(), nil
}

// InitSession asks the server for a session id without any user-visible
// turn. Failures go to OnError only.
func (s *Session) InitSession(ctx context.Context) {
	s.mu.Lock()
	if s.opts.SeedGreeting && len(s.messages) == 0 {
		s.messages = append(s.messages, models.ChatMessage{
			ID:      models.GreetingID,
			Role:    models.RoleAssistant,
			Content: Greeting,
		})
	}
	sessionID := s.sessionID
	balance := s.state.Balance
	epoch := s.epoch
	s.mu.Unlock()

	req := api.ChatRequest{
		Messages:       []api.MessagePayload{},
		InitialBalance: &balance,
		IsInit:         true,
	}
	resp, err := s.transport.Init(ctx, req, sessionID)
	if err != nil {
		apiErr := api.Normalize(err)
		s.log.Error("failed silent initialization", zap.Error(apiErr))
		s.reportError(apiErr)
		return
	}
	if resp.SessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	// A turn that finished first owns the session.
	if s.sessionID != sessionID {
		s.log.Info("ignoring late init session", zap.String("session_id", resp.SessionID), zap.String("current", s.sessionID))
		return
	}
	s.sessionID = resp.SessionID
	s.log.Info("session initialized silently", zap.String("session_id", resp.SessionID))
}

// ClearChat drops the transcript, live tool calls and session id. The banking
// state mirror is kept.
func (s *Session) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.toolCalls = nil
	s.sessionID = ""
	s.epoch++
	s.log.Info("chat cleared")
}

// Messages returns a deep copy of the transcript.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// ToolCalls returns the live tool calls of the current turn.
func (s *Session) ToolCalls() []models.ToolCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneToolCalls(s.toolCalls)
}

// SetToolCalls replaces the live tool calls, e.g. with executing placeholders.
func (s *Session) SetToolCalls(calls []models.ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolCalls = models.CloneToolCalls(calls)
}

func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SessionID returns the server session id, empty when none.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *Session) BankingState() models.BankingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.state.Clone()
}
