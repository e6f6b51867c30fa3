package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jomkira/internal/api"
	"jomkira/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeTransport records requests and answers from a configurable func.
type fakeTransport struct {
	mu       sync.Mutex
	requests []api.ChatRequest
	sessions []string
	chatFunc func(req api.ChatRequest) (*api.ChatResponse, error)
	initFunc func(req api.ChatRequest) (*api.ChatResponse, error)
}

func (f *fakeTransport) record(req api.ChatRequest, sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.sessions = append(f.sessions, sessionID)
}

func (f *fakeTransport) Chat(ctx context.Context, req api.ChatRequest, sessionID string) (*api.ChatResponse, error) {
	f.record(req, sessionID)
	return f.chatFunc(req)
}

func (f *fakeTransport) Init(ctx context.Context, req api.ChatRequest, sessionID string) (*api.ChatResponse, error) {
	f.record(req, sessionID)
	return f.initFunc(req)
}

func reply(content string) *api.ChatResponse {
	return &api.ChatResponse{Message: api.ResponseMessage{Content: content}}
}

func newTestSession(t *testing.T, tr Transport, opts Options) (*Session, *[]error) {
	t.Helper()
	var errs []error
	opts.OnError = func(err error) { errs = append(errs, err) }
	if opts.InitialBalance == 0 {
		opts.InitialBalance = 50.43
	}
	return NewSession(tr, opts), &errs
}

func TestSendMessageAlternatesRoles(t *testing.T) {
	turn := 0
	tr := &fakeTransport{chatFunc: func(req api.ChatRequest) (*api.ChatResponse, error) {
		turn++
		return reply(fmt.Sprintf("answer %d", turn)), nil
	}}
	s, errs := newTestSession(t, tr, Options{})

	for i := 1; i <= 3; i++ {
		_, ok := s.SendMessage(context.Background(), fmt.Sprintf("question %d", i), nil)
		require.True(t, ok)
		assert.Len(t, s.Messages(), 2*i)
	}

	msgs := s.Messages()
	for i, m := range msgs {
		want := models.RoleUser
		if i%2 == 1 {
			want = models.RoleAssistant
		}
		assert.Equal(t, want, m.Role, "message %d", i)
	}
	assert.Equal(t, "answer 3", msgs[5].Content)
	assert.Empty(t, *errs)
	assert.False(t, s.IsLoading())

	// every request carries the full transcript including the new message
	require.Len(t, tr.requests, 3)
	assert.Len(t, tr.requests[2].Messages, 5)
	assert.Equal(t, "question 3", tr.requests[2].Messages[4].Content)
}

func TestSendMessageIDsAreUnique(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) { return reply("ok"), nil }}
	s, _ := newTestSession(t, tr, Options{Now: func() time.Time { return fixed }})

	s.SendMessage(context.Background(), "a", nil)
	s.SendMessage(context.Background(), "b", nil)

	seen := map[string]bool{}
	for _, m := range s.Messages() {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestSendMessageInitialBalanceOnlyWithoutSession(t *testing.T) {
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		r := reply("ok")
		r.SessionID = "sess-1"
		return r, nil
	}}
	s, _ := newTestSession(t, tr, Options{InitialBalance: 75})

	s.SendMessage(context.Background(), "one", nil)
	s.SendMessage(context.Background(), "two", nil)

	require.Len(t, tr.requests, 2)
	require.NotNil(t, tr.requests[0].InitialBalance)
	assert.InDelta(t, 75.0, *tr.requests[0].InitialBalance, 1e-9)
	assert.Equal(t, "", tr.sessions[0])
	assert.Nil(t, tr.requests[1].InitialBalance)
	assert.Equal(t, "sess-1", tr.sessions[1])
}

func TestSessionHeaderIsSticky(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []string
		calls   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get(api.HeaderSessionID))
		calls++
		n := calls
		mu.Unlock()

		body := map[string]any{"message": map[string]any{"content": "ok"}}
		if n == 1 {
			body["session_id"] = "abc-123"
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL+"/api/chat", "terminal", 5*time.Second, nil)
	s, errs := newTestSession(t, client, Options{})

	for i := 0; i < 3; i++ {
		_, ok := s.SendMessage(context.Background(), "hi", nil)
		require.True(t, ok)
	}

	assert.Empty(t, *errs)
	assert.Equal(t, []string{"", "abc-123", "abc-123"}, headers)
	assert.Equal(t, "abc-123", s.SessionID())
}

func TestSendMessageFreezesSnapshotsAndUpdatesMirror(t *testing.T) {
	state := &models.BankingState{
		Balance:            40,
		TransactionHistory: []string{"Transferred RM 10.00 to Ali"},
		Status:             models.StatusCompleted,
	}
	calls := []models.ToolCall{{ToolName: "confirm_transfer", Args: map[string]any{}, Status: models.ToolStatusComplete}}
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		r := reply("Done")
		r.ToolCalls = calls
		r.State = state
		return r, nil
	}}
	s, _ := newTestSession(t, tr, Options{})
	s.SetToolCalls([]models.ToolCall{{ToolName: "confirm_transfer", Status: models.ToolStatusExecuting}})

	got, ok := s.SendMessage(context.Background(), "yes", nil)
	require.True(t, ok)

	require.NotNil(t, got.BankingState)
	assert.Equal(t, models.StatusCompleted, got.BankingState.Status)
	assert.Len(t, got.ToolCalls, 1)
	assert.Empty(t, s.ToolCalls())
	assert.InDelta(t, 40.0, s.BankingState().Balance, 1e-9)

	// mutating the server's values must not reach the stored snapshot
	state.TransactionHistory[0] = "tampered"
	calls[0].ToolName = "tampered"
	stored := s.Messages()[1]
	assert.Equal(t, "Transferred RM 10.00 to Ali", stored.BankingState.TransactionHistory[0])
	assert.Equal(t, "confirm_transfer", stored.ToolCalls[0].ToolName)

	// nor may mutating a returned copy
	got.BankingState.TransactionHistory[0] = "tampered"
	assert.Equal(t, "Transferred RM 10.00 to Ali", s.Messages()[1].BankingState.TransactionHistory[0])
}

func TestSendMessageWithoutStateKeepsMirror(t *testing.T) {
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) { return reply("hi"), nil }}
	s, _ := newTestSession(t, tr, Options{InitialBalance: 99})

	before := s.BankingState()
	s.SendMessage(context.Background(), "hello", nil)
	assert.Equal(t, before, s.BankingState())
	assert.Nil(t, s.Messages()[1].BankingState)
}

func TestSendMessageImageIsForwarded(t *testing.T) {
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) { return reply("seen"), nil }}
	s, _ := newTestSession(t, tr, Options{})

	img := &models.Image{Format: "jpeg", Bytes: "/9j/"}
	s.SendMessage(context.Background(), "", img)

	require.Len(t, tr.requests, 1)
	require.NotNil(t, tr.requests[0].Messages[0].Image)
	assert.Equal(t, "jpeg", tr.requests[0].Messages[0].Image.Format)
	assert.Equal(t, "", s.Messages()[0].Content)
}

func TestSendMessageNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL+"/api/chat", "terminal", 5*time.Second, nil)
	s, errs := newTestSession(t, client, Options{})

	_, ok := s.SendMessage(context.Background(), "hello", nil)
	assert.False(t, ok)

	assert.False(t, s.IsLoading())
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	require.Len(t, *errs, 1)
	assert.True(t, api.IsKind((*errs)[0], api.KindStatus))
}

func TestSendMessageTransportAndMalformedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind api.ErrorKind
	}{
		{"plain error is normalized", errors.New("connection refused"), api.KindTransport},
		{"malformed passes through", &api.Error{Kind: api.KindMalformed, Err: api.ErrMissingContent}, api.KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) { return nil, tt.err }}
			s, errs := newTestSession(t, tr, Options{})

			_, ok := s.SendMessage(context.Background(), "x", nil)
			assert.False(t, ok)
			require.Len(t, *errs, 1)
			assert.True(t, api.IsKind((*errs)[0], tt.kind))
			assert.False(t, s.IsLoading())
		})
	}
}

func TestSendMessageRejectsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		close(started)
		<-release
		return reply("first"), nil
	}}

	var errCount atomic.Int32
	var lastErr atomic.Value
	s := NewSession(tr, Options{OnError: func(err error) {
		errCount.Add(1)
		lastErr.Store(err)
	}})

	done := make(chan bool)
	go func() {
		_, ok := s.SendMessage(context.Background(), "first", nil)
		done <- ok
	}()
	<-started
	assert.True(t, s.IsLoading())

	_, ok := s.SendMessage(context.Background(), "second", nil)
	assert.False(t, ok)
	assert.Equal(t, int32(1), errCount.Load())
	assert.ErrorIs(t, lastErr.Load().(error), ErrTurnInFlight)
	assert.Len(t, s.Messages(), 1)

	close(release)
	assert.True(t, <-done)
	assert.Len(t, s.Messages(), 2)
	assert.False(t, s.IsLoading())
}

func TestClearChat(t *testing.T) {
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		r := reply("ok")
		r.SessionID = "sess"
		r.State = &models.BankingState{Balance: 12.34, Status: models.StatusIdle, TransactionHistory: []string{}}
		return r, nil
	}}
	s, _ := newTestSession(t, tr, Options{})
	s.SendMessage(context.Background(), "hi", nil)
	s.SetToolCalls([]models.ToolCall{{ToolName: "prepare_transfer", Status: models.ToolStatusExecuting}})
	balance := s.BankingState().Balance

	s.ClearChat()

	assert.Empty(t, s.Messages())
	assert.Empty(t, s.ToolCalls())
	assert.Equal(t, "", s.SessionID())
	assert.InDelta(t, balance, s.BankingState().Balance, 1e-9)
}

func TestClearChatDropsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := &fakeTransport{chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		close(started)
		<-release
		r := reply("late")
		r.SessionID = "old"
		return r, nil
	}}
	s, errs := newTestSession(t, tr, Options{})

	done := make(chan bool)
	go func() {
		_, ok := s.SendMessage(context.Background(), "hi", nil)
		done <- ok
	}()
	<-started
	s.ClearChat()
	close(release)

	assert.False(t, <-done)
	assert.Empty(t, s.Messages())
	assert.Equal(t, "", s.SessionID())
	assert.Empty(t, *errs)
}

func TestInitSession(t *testing.T) {
	tests := []struct {
		name         string
		seedGreeting bool
		wantMessages int
	}{
		{"no greeting", false, 0},
		{"seeds greeting", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{initFunc: func(req api.ChatRequest) (*api.ChatResponse, error) {
				return &api.ChatResponse{SessionID: "init-1"}, nil
			}}
			s, errs := newTestSession(t, tr, Options{SeedGreeting: tt.seedGreeting, InitialBalance: 20})

			s.InitSession(context.Background())
			s.InitSession(context.Background())

			assert.Empty(t, *errs)
			assert.Equal(t, "init-1", s.SessionID())
			msgs := s.Messages()
			require.Len(t, msgs, tt.wantMessages)
			if tt.wantMessages == 1 {
				assert.Equal(t, models.GreetingID, msgs[0].ID)
				assert.Equal(t, models.RoleAssistant, msgs[0].Role)
				assert.Equal(t, Greeting, msgs[0].Content)
			}

			require.Len(t, tr.requests, 2)
			req := tr.requests[0]
			assert.True(t, req.IsInit)
			assert.Empty(t, req.Messages)
			require.NotNil(t, req.InitialBalance)
			assert.InDelta(t, 20.0, *req.InitialBalance, 1e-9)
			assert.Equal(t, "init-1", tr.sessions[1])
		})
	}
}

func TestLateInitKeepsTurnSession(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := &fakeTransport{
		initFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
			close(started)
			<-release
			return &api.ChatResponse{SessionID: "from-init"}, nil
		},
		chatFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
			return &api.ChatResponse{SessionID: "from-chat", Message: api.ResponseMessage{Content: "hi"}}, nil
		},
	}
	s, errs := newTestSession(t, tr, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.InitSession(context.Background())
	}()
	<-started

	_, ok := s.SendMessage(context.Background(), "hello", nil)
	require.True(t, ok)
	assert.Equal(t, "from-chat", s.SessionID())

	close(release)
	<-done
	assert.Equal(t, "from-chat", s.SessionID())

	_, ok = s.SendMessage(context.Background(), "again", nil)
	require.True(t, ok)
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, "from-chat", tr.sessions[len(tr.sessions)-1])
	assert.Empty(t, *errs)
}

func TestInitSessionFailureReportsError(t *testing.T) {
	tr := &fakeTransport{initFunc: func(api.ChatRequest) (*api.ChatResponse, error) {
		return nil, &api.Error{Kind: api.KindStatus, StatusCode: 503}
	}}
	core, logs := observer.New(zapcore.InfoLevel)
	var errs []error
	s := NewSession(tr, Options{Logger: zap.New(core), OnError: func(err error) { errs = append(errs, err) }})

	s.InitSession(context.Background())

	require.Len(t, errs, 1)
	assert.True(t, api.IsKind(errs[0], api.KindStatus))
	assert.Equal(t, "", s.SessionID())
	assert.Equal(t, 1, logs.FilterMessage("failed silent initialization").Len())
}
