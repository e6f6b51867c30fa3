package ui

import (
	"context"

	"jomkira/internal/actions"
	"jomkira/internal/chat"
	"jomkira/internal/logger"
	"jomkira/internal/styles"
	"jomkira/internal/tools"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// NewModel wires the session, action mapper and tool registry around the
// given transport.
func NewModel(deps Deps) *Model {
	cfg := deps.Config
	log := logger.OrNop(deps.Logger)

	ti := textarea.New()
	ti.Placeholder = "Ask JomKira to transfer, pay a bill or check your balance..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 4
	ti.SetHeight(1)
	ti.SetWidth(80)
	promptStyle := lipgloss.NewStyle().Foreground(styles.FgPrimary).Bold(true)
	ti.FocusedStyle.Prompt = promptStyle
	ti.BlurredStyle.Prompt = promptStyle
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.FgPrimary)

	m := &Model{
		TextInput:     ti,
		Viewport:      viewport.New(60, 15),
		Spinner:       sp,
		Config:        cfg,
		Money:         NewMoney(cfg.App.Currency, cfg.App.Locale),
		Log:           log.Named(logger.UI),
		DB:            deps.DB,
		DBErr:         deps.DBErr,
		DashboardOpen: !cfg.Features.EnableChat,
	}

	m.Session = chat.NewSession(deps.Transport, chat.Options{
		InitialBalance: cfg.App.InitialBalance,
		SeedGreeting:   cfg.Features.SeedGreeting,
		OnError:        m.reportError,
		Logger:         log,
	})
	m.Mapper = actions.NewMapper(m.Session, log)
	m.Registry = tools.NewBankingRegistry(log, cfg.Features.EnableBillPayment)

	return m
}

// reportError runs on the send goroutine, so it goes through the program's
// message queue rather than touching the model.
func (m *Model) reportError(err error) {
	m.Log.Warn("chat error", zap.Error(err))
	if m.Program != nil {
		m.Program.Send(ErrMsg{Err: err})
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.Spinner.Tick}
	if m.Config.Features.EnableChat {
		cmds = append(cmds, m.initSessionCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) initSessionCmd() tea.Cmd {
	session := m.Session
	return func() tea.Msg {
		session.InitSession(context.Background())
		return SessionReadyMsg{}
	}
}

func NewProgram(deps Deps) (*tea.Program, *Model) {
	m := NewModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.Program = p
	return p, m
}
