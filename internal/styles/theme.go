package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color scheme for the application
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	BgSurface  lipgloss.Color
	BgElevated lipgloss.Color

	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border lipgloss.Color
}

// DarkTheme follows the JomKira chat background: navy surfaces under the
// cyan and azure brand mesh.
var DarkTheme = Theme{
	Primary:   lipgloss.Color("#3A7BD5"),
	Secondary: lipgloss.Color("#00D2FF"),
	Accent:    lipgloss.Color("#7022B4"),

	BgSurface:  lipgloss.Color("#1E293B"),
	BgElevated: lipgloss.Color("#09091A"),

	TextPrimary:   lipgloss.Color("#F1F5F9"),
	TextSecondary: lipgloss.Color("#CBD5E1"),
	TextMuted:     lipgloss.Color("#94A3B8"),

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),
	Info:    lipgloss.Color("#0EA5E9"),

	Border: lipgloss.Color("#334155"),
}

var LightTheme = Theme{
	Primary:   lipgloss.Color("#336EFF"),
	Secondary: lipgloss.Color("#1D4ED8"),
	Accent:    lipgloss.Color("#7022B4"),

	BgSurface:  lipgloss.Color("#FFFFFF"),
	BgElevated: lipgloss.Color("#F8FAFC"),

	TextPrimary:   lipgloss.Color("#0F172A"),
	TextSecondary: lipgloss.Color("#64748B"),
	TextMuted:     lipgloss.Color("#94A3B8"),

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),
	Info:    lipgloss.Color("#0EA5E9"),

	Border: lipgloss.Color("#E2E8F0"),
}

// CurrentTheme holds the active theme (set at runtime based on terminal)
var CurrentTheme = DarkTheme

type Adaptive = lipgloss.AdaptiveColor

var (
	FgPrimary   = Adaptive{Light: string(LightTheme.Primary), Dark: string(DarkTheme.Primary)}
	FgSecondary = Adaptive{Light: string(LightTheme.Secondary), Dark: string(DarkTheme.Secondary)}
	FgText      = Adaptive{Light: string(LightTheme.TextPrimary), Dark: string(DarkTheme.TextPrimary)}
	FgMuted     = Adaptive{Light: string(LightTheme.TextMuted), Dark: string(DarkTheme.TextMuted)}
	FgError     = Adaptive{Light: string(LightTheme.Error), Dark: string(DarkTheme.Error)}
	FgSuccess   = Adaptive{Light: string(LightTheme.Success), Dark: string(DarkTheme.Success)}
	FgWarning   = Adaptive{Light: string(LightTheme.Warning), Dark: string(DarkTheme.Warning)}
	FgInfo      = Adaptive{Light: string(LightTheme.Info), Dark: string(DarkTheme.Info)}

	BgSurface   = Adaptive{Light: string(LightTheme.BgSurface), Dark: string(DarkTheme.BgSurface)}
	BgElevated  = Adaptive{Light: string(LightTheme.BgElevated), Dark: string(DarkTheme.BgElevated)}
	BorderColor = Adaptive{Light: string(LightTheme.Border), Dark: string(DarkTheme.Border)}
)

// StatusColors maps banking status values to badge colors.
var StatusColors = map[string]Adaptive{
	"idle":                FgMuted,
	"confirming_transfer": FgWarning,
	"confirming_bill":     FgWarning,
	"completed":           FgSuccess,
	"error":               FgError,
}

func StatusColor(status string) Adaptive {
	if c, ok := StatusColors[status]; ok {
		return c
	}
	return FgInfo
}

// InitTheme sets the current theme based on terminal background
func InitTheme() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}
