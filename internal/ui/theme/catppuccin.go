package theme

import "github.com/charmbracelet/lipgloss"

// Flavour is one catppuccin palette.
type Flavour struct {
	Name     string
	Dark     bool
	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Text     lipgloss.Color
	Subtext0 lipgloss.Color
	Lavender lipgloss.Color
	Sapphire lipgloss.Color
	Green    lipgloss.Color
	Peach    lipgloss.Color
	Red      lipgloss.Color
}

var (
	Latte = Flavour{
		Name: "latte", Base: "#eff1f5", Mantle: "#e6e9ef", Surface0: "#ccd0da", Surface1: "#bcc0cc",
		Text: "#4c4f69", Subtext0: "#6c6f85", Lavender: "#7287fd", Sapphire: "#209fb5",
		Green: "#40a02b", Peach: "#fe640b", Red: "#d20f39",
	}
	Frappe = Flavour{
		Name: "frappe", Dark: true, Base: "#303446", Mantle: "#292c3c", Surface0: "#414559", Surface1: "#51576d",
		Text: "#c6d0f5", Subtext0: "#a5adce", Lavender: "#babbf1", Sapphire: "#85c1dc",
		Green: "#a6d189", Peach: "#ef9f76", Red: "#e78284",
	}
	Mocha = Flavour{
		Name: "mocha", Dark: true, Base: "#1e1e2e", Mantle: "#181825", Surface0: "#313244", Surface1: "#45475a",
		Text: "#cdd6f4", Subtext0: "#a6adc8", Lavender: "#b4befe", Sapphire: "#74c7ec",
		Green: "#a6e3a1", Peach: "#fab387", Red: "#f38ba8",
	}
)

var (
	Current Flavour

	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface1 lipgloss.Color
	Text     lipgloss.Color
	Subtext0 lipgloss.Color
	Lavender lipgloss.Color
	Sapphire lipgloss.Color

	App        lipgloss.Style
	Pane       lipgloss.Style
	PaneActive lipgloss.Style
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Hot        lipgloss.Style
	Good       lipgloss.Style
	Bad        lipgloss.Style
)

func init() {
	Use(Latte)
}

// Use swaps the package styles to f. Views read the styles at render time.
func Use(f Flavour) {
	Current = f
	Base, Mantle, Surface1 = f.Base, f.Mantle, f.Surface1
	Text, Subtext0 = f.Text, f.Subtext0
	Lavender, Sapphire = f.Lavender, f.Sapphire

	App = lipgloss.NewStyle().
		Background(f.Base).
		Foreground(f.Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(f.Surface1).
		Background(f.Mantle).
		Foreground(f.Text).
		Padding(1)

	PaneActive = Pane.BorderForeground(f.Lavender)

	Title = lipgloss.NewStyle().Foreground(f.Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(f.Subtext0)
	Hot = lipgloss.NewStyle().Foreground(f.Peach).Bold(true)
	Good = lipgloss.NewStyle().Foreground(f.Green).Bold(true)
	Bad = lipgloss.NewStyle().Foreground(f.Red)
}

// Resolve picks the flavour for a user's theme and dark-mode settings.
// Signed-out sessions always get the default light flavour. With dark mode
// "system" the terminal background decides.
func Resolve(authenticated bool, name, darkMode string, terminalDark bool) Flavour {
	if !authenticated {
		return Latte
	}
	switch darkMode {
	case "on":
		return Mocha
	case "system":
		if terminalDark {
			return Mocha
		}
	}
	switch name {
	case "soft":
		return Frappe
	case "dark":
		return Mocha
	}
	return Latte
}
