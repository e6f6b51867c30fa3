package styles

import "github.com/charmbracelet/lipgloss"

var (
	ContentWidth = 54
	CardWidth    = 46
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(FgPrimary).
			Padding(0, 1)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#336EFF")).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	UserMsgStyle = lipgloss.NewStyle().
			Foreground(FgText).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#336EFF"))

	AiLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(FgPrimary).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	AiMsgStyle = lipgloss.NewStyle().
			Foreground(FgText).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(FgPrimary)

	AttachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7022B4")).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(FgError).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Italic(true)

	LoadingStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			PaddingLeft(2)

	ToolIconStyle = lipgloss.NewStyle().
			Foreground(FgSecondary).
			Bold(true)

	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(FgPrimary).
			Padding(0, 1)

	WelcomeArtStyle = lipgloss.NewStyle().
			Foreground(FgPrimary).
			Bold(true)

	WelcomeSubtitleStyle = lipgloss.NewStyle().
				Foreground(FgMuted).
				Italic(true)

	ReadOnlyBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#09091A")).
				Background(FgWarning).
				Bold(true).
				Padding(0, 1)
)

// Payment cards
var (
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Background(BgSurface).
			Padding(1, 2).
			Width(CardWidth)

	CardHeaderStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Bold(true)

	CardAmountStyle = lipgloss.NewStyle().
			Foreground(FgText).
			Bold(true)

	CardLabelStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Width(12)

	CardValueStyle = lipgloss.NewStyle().
			Foreground(FgText)

	ApproveKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(FgSuccess).
			Bold(true).
			Padding(0, 1)

	DeclineKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(FgError).
			Bold(true).
			Padding(0, 1)

	EditKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(FgInfo).
			Bold(true).
			Padding(0, 1)

	CompletionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(FgSuccess).
			Padding(0, 2).
			Width(CardWidth)

	CompletionTitleStyle = lipgloss.NewStyle().
				Foreground(FgSuccess).
				Bold(true)
)

// Dashboard
var (
	BalanceCardStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(FgPrimary).
				Padding(1, 3)

	BalanceLabelStyle = lipgloss.NewStyle().
				Foreground(FgMuted)

	BalanceAmountStyle = lipgloss.NewStyle().
				Foreground(FgText).
				Bold(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(FgSecondary).
				Bold(true).
				MarginTop(1)

	HistoryItemStyle = lipgloss.NewStyle().
				Foreground(FgText).
				PaddingLeft(2)
)

// Modals
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(FgPrimary).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(FgPrimary).
			Width(ContentWidth).
			MarginBottom(1)

	ModalItemStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Width(ContentWidth)

	ModalSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Width(ContentWidth).
				Background(lipgloss.Color("#475569")).
				Foreground(lipgloss.Color("#FFFFFF"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(FgWarning).
			Bold(true).
			Width(10)

	HintColor = lipgloss.Color("#64748B")
)

// Badge renders a small coloured label.
func Badge(text string, bg Adaptive) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(bg).
		Padding(0, 1).
		Render(text)
}
