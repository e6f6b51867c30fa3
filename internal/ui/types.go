package ui

import (
	"database/sql"

	"jomkira/internal/actions"
	"jomkira/internal/chat"
	"jomkira/internal/config"
	"jomkira/internal/models"
	"jomkira/internal/tools"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const (
	HistoryPageSize = 10
	RecentTxLimit   = 5
	MaxImageBytes   = 5 << 20
)

var ModalWidth = 60

// ShortcutPrompts are the canned prompts offered in the shortcuts modal.
var ShortcutPrompts = []string{
	"What can JomKira AI do?",
	"Pay via screenshot",
	"Pay @someone",
	"Upload file and pay",
	"Snap and pay",
	"Show latest transfers",
}

// ErrMsg carries a failure reported by the session.
type ErrMsg struct{ Err error }

// ResponseMsg ends a turn. OK is false when the session rejected or failed
// the send; the reason arrives separately as an ErrMsg.
type ResponseMsg struct {
	Reply models.ChatMessage
	OK    bool
}

type SessionReadyMsg struct{}

type clearStatusMsg struct{ seq int }

// Deps are the collaborators the UI is built from.
type Deps struct {
	Config    *config.Config
	Transport chat.Transport
	DB        *sql.DB
	DBErr     error
	Logger    *zap.Logger
}

type Model struct {
	Viewport  viewport.Model
	TextInput textarea.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer
	Program   *tea.Program

	Config   *config.Config
	Session  *chat.Session
	Mapper   *actions.Mapper
	Registry *tools.Registry
	Money    *Money
	Log      *zap.Logger

	DB                    *sql.DB
	DBErr                 error
	CurrentConversationID int64
	archivedCount         int

	Loading      bool
	Status       string
	StatusIsErr  bool
	statusSeq    int
	WindowWidth  int
	WindowHeight int

	DashboardOpen bool

	ShortcutsOpen bool
	ShortcutIdx   int

	HistoryOpen        bool
	HistorySelectedIdx int
	HistoryChatCount   int
	HistoryChats       []models.ChatListItem
	HistoryErr         error
	HistoryPage        int

	// ArchiveView holds an archived conversation shown read-only in place of
	// the live transcript.
	ArchiveView []models.ChatMessage

	PendingImage string
}
