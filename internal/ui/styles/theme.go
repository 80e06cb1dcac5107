// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/markup"
)

// ThemeMode is the light/dark display preference.
type ThemeMode = config.ThemeMode

const (
	ThemeDark  = config.ThemeDark
	ThemeLight = config.ThemeLight
)

// Theme holds every styled component for one mode. Views receive a *Theme
// explicitly; there is no package-level current theme.
type Theme struct {
	Mode         ThemeMode
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER AND HEADER
	// ==========================================================================

	App            lipgloss.Style
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	SectionTitle   lipgloss.Style
	SectionIntro   lipgloss.Style

	// ==========================================================================
	// FEATURE MENU
	// ==========================================================================

	MenuGroup        lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemSelected lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuDesc         lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	MessageMeta     lipgloss.Style
	Reference       lipgloss.Style
	ReferenceHeader lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputDisabled  lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	ToggleOn       lipgloss.Style
	ToggleOff      lipgloss.Style

	// ==========================================================================
	// LOADING
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// ERRORS AND BANNERS
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorTip     lipgloss.Style
	ConfigBanner lipgloss.Style

	// ==========================================================================
	// SECTION DATA
	// ==========================================================================

	RiskHigh      lipgloss.Style
	RiskMedium    lipgloss.Style
	RiskLow       lipgloss.Style
	ItemDone      lipgloss.Style
	ItemTodo      lipgloss.Style
	Cursor        lipgloss.Style
	DateColumn    lipgloss.Style
	OptionLabel   lipgloss.Style
	OptionValue   lipgloss.Style
	ProgressLabel lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	LinkStyle    lipgloss.Style

	// Markup is handed to markup.TerminalRenderer for assistant text.
	Markup markup.TerminalStyles
}

// NewTheme builds every style for mode. Unknown modes render as dark.
func NewTheme(mode ThemeMode) *Theme {
	if mode != ThemeLight {
		mode = ThemeDark
	}
	t := &Theme{
		Mode:         mode,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// Toggled returns a theme for the opposite mode with the same size.
func (t *Theme) Toggled() *Theme {
	next := NewTheme(t.Mode.Toggle())
	next.SetSize(t.Width, t.Height)
	return next
}

// Color resolves a color token against the theme mode.
func (t *Theme) Color(c ColorPair) lipgloss.Color {
	return c.Resolve(t.Mode)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	c := t.Color

	t.App = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Teal)).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Gold))

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Italic(true)

	t.SectionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Teal)).
		MarginBottom(1)

	t.SectionIntro = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	// Menu
	t.MenuGroup = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(Gold)).
		MarginTop(1)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(c(TextPrimary)).
		PaddingLeft(2)

	t.MenuItemSelected = lipgloss.NewStyle().
		Foreground(c(TextInverse)).
		Background(c(Teal)).
		Bold(true).
		PaddingLeft(1).
		PaddingRight(1).
		MarginLeft(1)

	t.MenuItemDisabled = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Strikethrough(true).
		PaddingLeft(2)

	t.MenuDesc = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		PaddingLeft(4)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(c(UserBubbleFg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(UserBubbleBorder)).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(c(AssistantBubbleFg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(AssistantBubbleBorder)).
		Padding(0, 1).
		MarginRight(4)

	t.MessageMeta = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	t.Reference = lipgloss.NewStyle().
		Foreground(c(Link)).
		Underline(true)

	t.ReferenceHeader = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Bold(true)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(c(Overlay)).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(c(Teal)).
		Bold(true)

	t.InputDisabled = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(c(SurfaceDim)).
		Foreground(c(TextSecondary)).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(c(Teal)).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(c(TextMuted))

	t.ToggleOn = lipgloss.NewStyle().
		Foreground(c(Emerald)).
		Bold(true)

	t.ToggleOff = lipgloss.NewStyle().
		Foreground(c(TextMuted))

	// Loading
	t.Spinner = lipgloss.NewStyle().
		Foreground(c(Gold))

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Rose)).
		Padding(0, 1)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(c(Rose)).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(c(TextPrimary))

	t.ErrorTip = lipgloss.NewStyle().
		Foreground(c(Teal)).
		Italic(true)

	t.ConfigBanner = lipgloss.NewStyle().
		Foreground(c(Amber)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(c(Amber)).
		PaddingLeft(1)

	// Section data
	t.RiskHigh = lipgloss.NewStyle().Foreground(c(Rose)).Bold(true)
	t.RiskMedium = lipgloss.NewStyle().Foreground(c(Amber)).Bold(true)
	t.RiskLow = lipgloss.NewStyle().Foreground(c(Emerald)).Bold(true)

	t.ItemDone = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Strikethrough(true)

	t.ItemTodo = lipgloss.NewStyle().
		Foreground(c(TextPrimary))

	t.Cursor = lipgloss.NewStyle().
		Foreground(c(Teal)).
		Bold(true)

	t.DateColumn = lipgloss.NewStyle().
		Foreground(c(Gold)).
		Width(12)

	t.OptionLabel = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Width(14)

	t.OptionValue = lipgloss.NewStyle().
		Foreground(c(Teal)).
		Bold(true)

	t.ProgressLabel = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	// Status
	t.SuccessStyle = lipgloss.NewStyle().Foreground(c(Emerald)).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(c(Rose)).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(c(Amber)).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(c(Link)).Bold(true)
	t.LinkStyle = lipgloss.NewStyle().Foreground(c(Link)).Underline(true)

	// Markup
	chromaStyle := "monokai"
	if t.Mode == ThemeLight {
		chromaStyle = "github"
	}
	formatter := "terminal256"
	switch t.ColorProfile {
	case termenv.TrueColor:
		formatter = "terminal16m"
	case termenv.Ascii:
		formatter = ""
	}
	t.Markup = markup.TerminalStyles{
		Paragraph: lipgloss.NewStyle().Foreground(c(TextPrimary)),
		Bold:      lipgloss.NewStyle().Bold(true).Foreground(c(Gold)),
		Italic:    lipgloss.NewStyle().Italic(true),
		Bullet:    lipgloss.NewStyle().Foreground(c(Teal)),
		Number:    lipgloss.NewStyle().Foreground(c(Teal)),
		CodeBlock: lipgloss.NewStyle().
			Background(c(SurfaceDim)).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(c(Overlay)).
			Padding(0, 1),
		CodeLang: lipgloss.NewStyle().
			Foreground(c(TextMuted)).
			Bold(true),
		Pending:         lipgloss.NewStyle().Foreground(c(TextMuted)),
		ChromaStyle:     chromaStyle,
		ChromaFormatter: formatter,
	}
}

// RenderStatus renders a message with a shape indicator for colorblind users.
func (t *Theme) RenderStatus(success bool, message string) string {
	if success {
		return t.SuccessStyle.Render(StatusIndicators.Success + " " + message)
	}
	return t.ErrorStyle.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning with its indicator.
func (t *Theme) RenderWarning(message string) string {
	return t.WarningStyle.Render(StatusIndicators.Warning + " " + message)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
