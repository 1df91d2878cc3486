package output

import "github.com/charmbracelet/lipgloss"

// Color constants using ANSI 256-color palette.
// These provide a consistent color scheme across all formatters.
const (
	// ColorPrimary is used for primary elements like headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status indicators (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warning findings (orange/yellow).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for error findings (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for less important or secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles for containing grouped content.
var (
	// HeaderBox is the style for the header section containing snapshot info.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FindingBox is the style for the findings section.
	FindingBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles for various content types.
var (
	// TitleStyle is used for major section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for field labels (e.g. "Snapshot:", "Platform:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// KindStyle is used for backend kind names.
	KindStyle = lipgloss.NewStyle().
			Bold(true)

	// ControllableStyle marks backends with a control surface.
	ControllableStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)

	// ObservedStyle marks observation-only backends.
	ObservedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// WarningStyle is used for warning-severity findings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	// DangerStyle is used for error-severity findings.
	DangerStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	// MutedStyle is used for hints and secondary text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// severityStyle returns the text style for a severity name.
func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "error":
		return DangerStyle
	case "warning":
		return WarningStyle
	default:
		return MutedStyle
	}
}
