package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jomkira/internal/actions"
	"jomkira/internal/api"
	"jomkira/internal/chat"
	"jomkira/internal/db"
	"jomkira/internal/models"
	"jomkira/internal/styles"
	"jomkira/internal/tools"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const statusTTL = 4 * time.Second

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Loading {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.KeyMsg:
		if m.HistoryOpen {
			return m.updateHistoryModal(msg)
		}
		if m.ShortcutsOpen {
			return m.updateShortcutsModal(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.ArchiveView != nil {
				m.ArchiveView = nil
				m.UpdateViewport()
				return m, nil
			}
			if m.DashboardOpen && m.Config.Features.EnableChat {
				m.DashboardOpen = false
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+n":
			m.ResetSession()
			return m, nil

		case "ctrl+d":
			if m.Config.Features.EnableChat {
				m.DashboardOpen = !m.DashboardOpen
			}
			return m, nil

		case "ctrl+s":
			if !m.Config.Features.EnableChat {
				return m, nil
			}
			m.ShortcutsOpen = true
			m.ShortcutIdx = 0
			m.HistoryOpen = false
			return m, nil

		case "ctrl+h":
			if !m.Config.Features.EnableHistory {
				return m, m.setStatus("History is disabled", false)
			}
			m.ShortcutsOpen = false
			m.HistoryOpen = true
			m.HistoryPage = 0
			m.RefreshHistoryFromDB()
			return m, nil

		case "ctrl+y":
			return m, m.cardAction(func(c *tools.PaymentCard) tools.Binding { return c.Approve })
		case "ctrl+x":
			return m, m.cardAction(func(c *tools.PaymentCard) tools.Binding { return c.Decline })
		case "ctrl+e":
			return m, m.cardAction(func(c *tools.PaymentCard) tools.Binding { return c.Edit })

		case "ctrl+o":
			return m, m.copyReceipt()

		case "enter":
			if m.DashboardOpen || m.ArchiveView != nil {
				return m, nil
			}
			input := strings.TrimSpace(m.TextInput.Value())
			if input == "" {
				return m, nil
			}
			if input == "/clear" || input == "/reset" {
				m.ResetSession()
				return m, nil
			}
			cmd := m.submit(input)
			if cmd == nil {
				return m, m.statusCmd()
			}
			return m, tea.Batch(cmd, m.Spinner.Tick)
		}

	case SessionReadyMsg:
		m.UpdateViewport()
		return m, nil

	case ResponseMsg:
		m.Loading = m.Session.IsLoading()
		if msg.OK {
			if err := m.persistNewMessages(); err != nil {
				m.Log.Warn("failed to archive turn", zap.Error(err))
			}
		} else if !m.Loading {
			// Drop placeholders seeded by a card action that never completed.
			m.Session.SetToolCalls(nil)
		}
		m.UpdateViewport()
		return m, nil

	case ErrMsg:
		m.Loading = m.Session.IsLoading()
		m.UpdateViewport()
		return m, m.setStatus(ErrorText(msg.Err), true)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.Status = ""
			m.StatusIsErr = false
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		ModalWidth = msg.Width - 10
		if ModalWidth > 60 {
			ModalWidth = 60
		}
		if ModalWidth < 30 {
			ModalWidth = 30
		}
		styles.ContentWidth = ModalWidth - 6

		chatWidth := msg.Width - 2
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.UpdateViewport()
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Filter out terminal background color queries that leak into the input
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	m.PendingImage = ""
	if m.Config.Features.EnableImageUpload {
		_, m.PendingImage = ExtractImageMention(m.TextInput.Value())
	}

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Model) updateHistoryModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+h":
		m.HistoryOpen = false
		m.HistoryErr = nil
	case "up", "k":
		if len(m.HistoryChats) == 0 {
			return m, nil
		}
		m.HistorySelectedIdx--
		if m.HistorySelectedIdx < 0 {
			m.HistorySelectedIdx = len(m.HistoryChats) - 1
		}
	case "down", "j":
		if len(m.HistoryChats) == 0 {
			return m, nil
		}
		m.HistorySelectedIdx++
		if m.HistorySelectedIdx >= len(m.HistoryChats) {
			m.HistorySelectedIdx = 0
		}
	case "enter":
		if len(m.HistoryChats) == 0 {
			return m, nil
		}
		if err := m.OpenArchivedConversation(m.HistoryChats[m.HistorySelectedIdx].ID); err != nil {
			m.HistoryErr = err
			return m, nil
		}
		m.HistoryOpen = false
		m.HistoryErr = nil
	case "left", "h":
		if m.HistoryPage > 0 {
			m.HistoryPage--
			m.RefreshHistoryFromDB()
		}
	case "right", "l":
		totalPages := (m.HistoryChatCount + HistoryPageSize - 1) / HistoryPageSize
		if m.HistoryPage < totalPages-1 {
			m.HistoryPage++
			m.RefreshHistoryFromDB()
		}
	}
	return m, nil
}

func (m *Model) updateShortcutsModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+s":
		m.ShortcutsOpen = false
	case "up", "k":
		m.ShortcutIdx--
		if m.ShortcutIdx < 0 {
			m.ShortcutIdx = len(ShortcutPrompts) - 1
		}
	case "down", "j":
		m.ShortcutIdx++
		if m.ShortcutIdx >= len(ShortcutPrompts) {
			m.ShortcutIdx = 0
		}
	case "enter":
		m.ShortcutsOpen = false
		m.DashboardOpen = false
		m.ArchiveView = nil
		if cmd := m.submit(ShortcutPrompts[m.ShortcutIdx]); cmd != nil {
			return m, tea.Batch(cmd, m.Spinner.Tick)
		}
		return m, m.statusCmd()
	}
	return m, nil
}

// submit starts a turn for the typed input. It returns nil when the input
// cannot be sent, leaving a status message behind.
func (m *Model) submit(input string) tea.Cmd {
	if m.Loading || m.Session.IsLoading() {
		m.Status, m.StatusIsErr = "Please wait for the current reply", false
		return nil
	}

	text := input
	var image *models.Image
	if m.Config.Features.EnableImageUpload {
		clean, path := ExtractImageMention(input)
		if path != "" {
			img, err := LoadImage(path)
			if err != nil {
				m.Status, m.StatusIsErr = fmt.Sprintf("Cannot attach %s: %v", path, err), true
				return nil
			}
			text, image = clean, img
		}
	}

	m.TextInput.Reset()
	m.PendingImage = ""
	m.updateInputLayout()
	return m.send(text, image)
}

func (m *Model) send(text string, image *models.Image) tea.Cmd {
	m.Loading = true
	m.UpdateViewport()

	session := m.Session
	return func() tea.Msg {
		reply, ok := session.SendMessage(context.Background(), text, image)
		return ResponseMsg{Reply: reply, OK: ok}
	}
}

// ActiveCard is the most recent payment card of the live transcript, if the
// last assistant turn produced one.
func (m *Model) ActiveCard() *tools.PaymentCard {
	msgs := m.Session.Messages()
	i := lastAssistantIndex(msgs)
	if i < 0 {
		return nil
	}
	decisions := m.Registry.Render(msgs[i].ToolCalls, msgs[i].BankingState)
	if j := lastCardIndex(decisions); j >= 0 {
		return decisions[j].Card
	}
	return nil
}

func (m *Model) cardAction(pick func(*tools.PaymentCard) tools.Binding) tea.Cmd {
	if m.ArchiveView != nil || m.DashboardOpen {
		return nil
	}
	card := m.ActiveCard()
	if card == nil {
		return m.setStatus("No payment awaiting confirmation", false)
	}
	if m.Loading || m.Session.IsLoading() {
		return m.setStatus("Please wait for the current reply", false)
	}

	b := pick(card)
	switch b.Action {
	case actions.ApproveTransfer:
		m.Session.SetToolCalls([]models.ToolCall{{ToolName: tools.ConfirmTransferTool, Status: models.ToolStatusExecuting}})
	case actions.ApproveBill:
		m.Session.SetToolCalls([]models.ToolCall{{ToolName: tools.ConfirmBillPaymentTool, Status: models.ToolStatusExecuting}})
	}

	m.Loading = true
	m.UpdateViewport()
	mapper := m.Mapper
	return tea.Batch(func() tea.Msg {
		reply, ok := mapper.Dispatch(context.Background(), b.Action, b.Args)
		return ResponseMsg{Reply: reply, OK: ok}
	}, m.Spinner.Tick)
}

// LastReceipt is the newest completion summary in the live transcript.
func (m *Model) LastReceipt() (tools.Decision, bool) {
	msgs := m.Session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		decisions := m.Registry.Render(msgs[i].ToolCalls, msgs[i].BankingState)
		for j := len(decisions) - 1; j >= 0; j-- {
			if decisions[j].Kind == tools.KindCompletion {
				return decisions[j], true
			}
		}
	}
	return tools.Decision{}, false
}

func (m *Model) copyReceipt() tea.Cmd {
	receipt, ok := m.LastReceipt()
	if !ok {
		return m.setStatus("No receipt to copy", false)
	}
	if err := clipboard.WriteAll(receipt.Title + ": " + receipt.Text); err != nil {
		m.Log.Warn("clipboard write failed", zap.Error(err))
		return m.setStatus("Clipboard unavailable", true)
	}
	return m.setStatus("Receipt copied to clipboard", false)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.Status = text
	m.StatusIsErr = isErr
	return m.statusCmd()
}

func (m *Model) statusCmd() tea.Cmd {
	if m.Status == "" {
		return nil
	}
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

// ErrorText is the status line for a session failure.
func ErrorText(err error) string {
	if errors.Is(err, chat.ErrTurnInFlight) {
		return "Please wait for the current reply"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindStatus:
			return apiErr.Error()
		case api.KindMalformed:
			return "Unexpected response from the assistant"
		default:
			return "Cannot reach the assistant, check your connection"
		}
	}
	return fmt.Sprintf("Error: %v", err)
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > m.TextInput.MaxHeight {
		lineCount = m.TextInput.MaxHeight
	}
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	reserved := m.TextInput.Height() + 2 + 6
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}

// ResetSession clears the live conversation. The next archived turn opens a
// new conversation row.
func (m *Model) ResetSession() {
	m.Session.ClearChat()
	m.CurrentConversationID = 0
	m.archivedCount = 0
	m.ArchiveView = nil
	m.HistoryOpen = false
	m.HistoryErr = nil
	m.Status = ""
	m.TextInput.Reset()
	m.PendingImage = ""
	m.updateInputLayout()
	m.UpdateViewport()
	m.Viewport.GotoTop()
}

func (m *Model) historyReady() error {
	if m.DBErr != nil {
		return m.DBErr
	}
	if m.DB == nil {
		return fmt.Errorf("history database not initialized")
	}
	return nil
}

func (m *Model) RefreshHistoryFromDB() {
	m.HistoryErr = nil
	m.HistoryChats = nil
	m.HistorySelectedIdx = 0

	if err := m.historyReady(); err != nil {
		m.HistoryErr = err
		return
	}

	count, chats, err := db.GetRecentConversations(m.DB, HistoryPageSize, m.HistoryPage*HistoryPageSize)
	if err != nil {
		m.HistoryErr = err
		return
	}
	m.HistoryChatCount = count
	m.HistoryChats = chats
}

// persistNewMessages archives every transcript message not yet stored.
func (m *Model) persistNewMessages() error {
	if !m.Config.Features.EnableHistory {
		return nil
	}
	if err := m.historyReady(); err != nil {
		return err
	}

	msgs := m.Session.Messages()
	if m.archivedCount > len(msgs) {
		m.archivedCount = 0
	}
	pending := msgs[m.archivedCount:]
	if len(pending) == 0 {
		return nil
	}

	nowUnix := time.Now().Unix()
	if m.CurrentConversationID == 0 {
		id, _, err := db.CreateConversation(m.DB, nowUnix)
		if err != nil {
			return err
		}
		m.CurrentConversationID = id
	}

	for _, msg := range pending {
		if err := db.InsertMessage(m.DB, m.CurrentConversationID, msg, nowUnix); err != nil {
			return err
		}
		m.archivedCount++
		if msg.Role == models.RoleUser {
			if err := db.UpdateConversationOnUser(m.DB, m.CurrentConversationID, nowUnix, PromptPreview(msg.Content)); err != nil {
				return err
			}
		}
	}
	return db.TouchConversation(m.DB, m.CurrentConversationID, nowUnix, m.Session.SessionID())
}

// OpenArchivedConversation shows an archived conversation read-only. The live
// session is untouched.
func (m *Model) OpenArchivedConversation(conversationID int64) error {
	if err := m.historyReady(); err != nil {
		return err
	}
	msgs, err := db.GetConversationMessages(m.DB, conversationID)
	if err != nil {
		return err
	}
	m.ArchiveView = msgs
	m.DashboardOpen = false
	m.UpdateViewport()
	m.Viewport.GotoTop()
	return nil
}
