package ui

import lipgloss "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Pass         lipgloss.Style
	Fail         lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style
	Locked       lipgloss.Style
	DoorSelected lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("deep_sea")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "retro_terminal":
		return retroTerminalTheme()
	default:
		return deepSeaTheme()
	}
}

func deepSeaTheme() Theme {
	abyss := lipgloss.Color("#02131F")
	slate := lipgloss.Color("#0B2A40")
	foam := lipgloss.Color("#E8F7FF")
	cyan := lipgloss.Color("#5ECFFF")
	kelp := lipgloss.Color("#6FE8A8")
	coral := lipgloss.Color("#FF7A8A")
	sand := lipgloss.Color("#F0CE7E")
	border := lipgloss.Color("#2E5D80")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(abyss).
			Foreground(foam).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(foam).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(border),
		PanelBody: lipgloss.NewStyle().
			Foreground(foam),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Background(abyss).
			Foreground(foam).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		Accent: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		Pass: lipgloss.NewStyle().
			Foreground(kelp).
			Bold(true),
		Fail: lipgloss.NewStyle().
			Foreground(coral).
			Bold(true),
		Pending: lipgloss.NewStyle().
			Foreground(sand),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7FA3BC")),
		Info: lipgloss.NewStyle().
			Foreground(cyan),
		Locked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A9BA8")).
			Bold(true),
		DoorSelected: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
	}
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:       lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelTitle:   lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder:  lipgloss.NewStyle().Foreground(forest),
		PanelBody:    lipgloss.NewStyle().Foreground(glow),
		Overlay:      lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(amber).Background(deep).Foreground(glow).Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(lime).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(amber),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Info:         lipgloss.NewStyle().Foreground(lime),
		Locked:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4F7A58")).Bold(true),
		DoorSelected: lipgloss.NewStyle().Foreground(lime).Bold(true),
	}
}
