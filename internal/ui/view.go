package ui

import (
	"fmt"
	"strings"
	"time"

	"jomkira/internal/models"
	"jomkira/internal/styles"
	"jomkira/internal/tools"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) RenderHistorySelector() string {
	totalPages := (m.HistoryChatCount + HistoryPageSize - 1) / HistoryPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("Past Conversations (%d) - Page %d/%d", m.HistoryChatCount, m.HistoryPage+1, totalPages))

	var body string
	if m.HistoryErr != nil {
		body = lipgloss.NewStyle().Width(styles.ContentWidth).Render(styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.HistoryErr)))
	} else if len(m.HistoryChats) == 0 {
		body = styles.ModalItemStyle.Render(lipgloss.NewStyle().Foreground(styles.HintColor).Render("No conversations yet"))
	} else {
		items := make([]string, 0, len(m.HistoryChats))
		for i, chat := range m.HistoryChats {
			isSelected := i == m.HistorySelectedIdx
			cursor := "  "
			if isSelected {
				cursor = "> "
			}
			timeStr := RelativeTime(time.Unix(chat.UpdatedAtUnix, 0))
			prompt := PromptPreview(chat.LastUserPrompt)
			if prompt == "" {
				prompt = "(no prompt)"
			}
			availableWidth := styles.ContentWidth - 2 - len(cursor) - 1 - len(timeStr)
			prompt = TruncateRunes(prompt, availableWidth)

			itemContent := fmt.Sprintf("%s%s %s", cursor, prompt, lipgloss.NewStyle().Foreground(styles.HintColor).Render(timeStr))
			if isSelected {
				items = append(items, styles.ModalSelectedStyle.Render(itemContent))
			} else {
				items = append(items, styles.ModalItemStyle.Render(itemContent))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, items...)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return lipgloss.JoinVertical(lipgloss.Left, content, modalHint("↑/↓: navigate • ←/→: page • Enter: open • Esc: close"))
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Quick Actions")

	var items []string
	for i, prompt := range ShortcutPrompts {
		if i == m.ShortcutIdx {
			items = append(items, styles.ModalSelectedStyle.Render("▸ "+prompt))
		} else {
			items = append(items, styles.ModalItemStyle.Render("  "+prompt))
		}
	}

	keys := []struct {
		key  string
		desc string
	}{
		{"Ctrl+D", "Dashboard"},
		{"Ctrl+Y", "Approve payment"},
		{"Ctrl+X", "Decline payment"},
		{"Ctrl+E", "Edit transfer"},
		{"Ctrl+O", "Copy last receipt"},
		{"Ctrl+H", "Past conversations"},
		{"Ctrl+N", "New conversation"},
		{"@path", "Attach an image"},
	}
	keyLines := []string{styles.SectionTitleStyle.Render("Keys")}
	for _, k := range keys {
		keyLines = append(keyLines, styles.ModalItemStyle.Render(styles.KeyStyle.Render(k.key)+" "+k.desc))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinVertical(lipgloss.Left, items...),
		lipgloss.JoinVertical(lipgloss.Left, keyLines...),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, modalHint("↑/↓: navigate • Enter: send • Esc: close"))
}

func modalHint(text string) string {
	return lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render(text)
}

// RenderDashboard is the balance overview: balance card, status, pending
// payment and recent transactions.
func (m *Model) RenderDashboard() string {
	state := m.Session.BankingState()

	balance := styles.BalanceCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.BalanceLabelStyle.Render("Available balance"),
		styles.BalanceAmountStyle.Render(m.Money.Format(state.Balance)),
	))

	status := string(state.Status)
	if status == "" {
		status = string(models.StatusIdle)
	}
	parts := []string{
		balance,
		"Status " + styles.Badge(strings.ToUpper(strings.ReplaceAll(status, "_", " ")), styles.StatusColor(status)),
	}

	if t := state.PendingTransfer; t != nil {
		parts = append(parts,
			styles.SectionTitleStyle.Render("Pending transfer"),
			styles.HistoryItemStyle.Render(fmt.Sprintf("%s to %s (%s %s)", m.Money.Format(t.Amount), t.RecipientName, t.BankName, t.AccountNumber)),
		)
	}
	if b := state.PendingBill; b != nil {
		parts = append(parts,
			styles.SectionTitleStyle.Render("Pending bill"),
			styles.HistoryItemStyle.Render(fmt.Sprintf("%s %s to %s (%s)", tools.CategoryFor(b.BillerName).Icon(), m.Money.Format(b.Amount), b.BillerName, b.AccountNumber)),
		)
	}

	parts = append(parts, styles.SectionTitleStyle.Render("Recent transactions"))
	recent := RecentTransactions(state.TransactionHistory, RecentTxLimit)
	if len(recent) == 0 {
		parts = append(parts, styles.HistoryItemStyle.Foreground(styles.FgMuted).Render("No transactions yet"))
	}
	for _, tx := range recent {
		parts = append(parts, styles.HistoryItemStyle.Render("• "+tx))
	}

	if m.Config.Features.EnableChat {
		parts = append(parts, "", lipgloss.NewStyle().Foreground(styles.HintColor).Render("Ctrl+D or Esc: back to chat"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RecentTransactions returns up to limit entries, newest first.
func RecentTransactions(history []string, limit int) []string {
	out := make([]string, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out
}

func (m *Model) RenderBottomBar() string {
	mode := "CHAT"
	modeColor := styles.FgInfo
	switch {
	case m.ArchiveView != nil:
		mode, modeColor = "ARCHIVE", styles.FgWarning
	case m.DashboardOpen:
		mode, modeColor = "DASHBOARD", styles.FgSecondary
	}
	left := []string{styles.Badge(mode, modeColor)}

	state := m.Session.BankingState()
	left = append(left, lipgloss.NewStyle().Foreground(styles.FgText).Render(m.Money.Format(state.Balance)))

	if m.Status != "" {
		style := styles.StatusStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		left = append(left, style.Render(TruncateRunes(m.Status, max(m.WindowWidth/2, 10))))
	}

	help := lipgloss.NewStyle().Foreground(styles.HintColor).Render("Actions: ^S")
	leftSide := strings.Join(left, "  ")

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(help) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	bar := leftSide + strings.Repeat(" ", availableWidth) + help

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderColor).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int) string {
	art := `
   ╦╔═╗╔╦╗╦╔═╦╦═╗╔═╗
   ║║ ║║║║╠╩╗║╠╦╝╠═╣
  ╚╝╚═╝╩ ╩╩ ╩╩╩╚═╩ ╩
`
	subtitle := "Transfers, bill payments and balance checks, just ask."

	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.WelcomeArtStyle.Render(art),
		"",
		styles.WelcomeSubtitleStyle.Render(subtitle),
		"",
		lipgloss.NewStyle().Foreground(styles.HintColor).Render("Ctrl+S for quick actions"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderMarkdown(content string) string {
	if m.Renderer == nil || content == "" {
		return content
	}
	rendered, err := m.Renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

// RenderTranscript draws messages with their tool-call decisions. Payment
// card buttons are shown only for the active card of a live transcript.
func (m *Model) RenderTranscript(msgs []models.ChatMessage, live bool) []string {
	activeIdx := -1
	if live && !m.Loading {
		activeIdx = lastAssistantIndex(msgs)
	}

	out := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		if msg.Role == models.RoleUser {
			out = append(out, FormatUserMessage(msg, m.Viewport.Width))
			continue
		}
		decisions := m.Registry.Render(msg.ToolCalls, msg.BankingState)
		activeCard := -1
		if i == activeIdx {
			activeCard = lastCardIndex(decisions)
		}
		var extras []string
		for j, d := range decisions {
			extras = append(extras, RenderDecision(d, m.Money, m.Spinner.View(), j == activeCard))
		}
		out = append(out, FormatAIMessage(m.renderMarkdown(msg.Content), extras))
	}
	return out
}

func lastAssistantIndex(msgs []models.ChatMessage) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return i
		}
	}
	return -1
}

func lastCardIndex(decisions []tools.Decision) int {
	for j := len(decisions) - 1; j >= 0; j-- {
		if decisions[j].Card != nil {
			return j
		}
	}
	return -1
}

func (m *Model) UpdateViewport() {
	if m.ArchiveView != nil {
		banner := styles.ReadOnlyBannerStyle.Render("Archived conversation (read only) • Esc to return")
		parts := append([]string{banner}, m.RenderTranscript(m.ArchiveView, false)...)
		m.Viewport.SetContent(strings.Join(parts, "\n\n"))
		return
	}

	msgs := m.Session.Messages()
	if len(msgs) == 0 && !m.Loading {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	parts := m.RenderTranscript(msgs, true)
	if m.Loading {
		var loading []string
		for _, d := range m.Registry.Render(m.Session.ToolCalls(), nil) {
			loading = append(loading, RenderDecision(d, m.Money, m.Spinner.View(), false))
		}
		if len(loading) == 0 {
			loading = append(loading, styles.LoadingStyle.Render(m.Spinner.View()+" Thinking..."))
		}
		parts = append(parts, FormatAIMessage("", loading))
	}
	m.Viewport.SetContent(strings.Join(parts, "\n\n"))
	m.Viewport.GotoBottom()
}

func (m *Model) RenderPendingImage() string {
	if m.PendingImage == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(styles.HintColor).Render("Attached: ") +
		styles.AttachmentStyle.Render("🖼 "+TruncateRunes(m.PendingImage, 40))
}

func (m *Model) View() string {
	title := styles.TitleStyle.Render(strings.ToUpper(m.Config.App.Name))

	var main string
	if m.DashboardOpen {
		main = lipgloss.JoinVertical(lipgloss.Center, title, "", m.RenderDashboard())
	} else {
		inputBox := styles.InputBoxStyle.Width(m.WindowWidth - 4).Render(m.TextInput.View())
		inputParts := []string{}
		if pending := m.RenderPendingImage(); pending != "" {
			inputParts = append(inputParts, pending)
		}
		inputParts = append(inputParts, inputBox)

		main = lipgloss.JoinVertical(lipgloss.Center,
			title,
			"",
			m.Viewport.View(),
			"",
			lipgloss.JoinVertical(lipgloss.Left, inputParts...),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, main),
		m.RenderBottomBar(),
	)

	var modal string
	switch {
	case m.HistoryOpen:
		modal = m.RenderHistorySelector()
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	default:
		return content
	}

	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		styles.ModalStyle.Width(ModalWidth).Render(modal),
	)
}
