package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	styleBar       = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	styleBarKey    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleSubtle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleCursor    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleCorrect   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleIncorrect = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleInfo      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleTile      = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	styleTilePick  = styleTile.BorderForeground(lipgloss.Color("14"))
	styleSide      = lipgloss.NewStyle().Padding(0, 2, 0, 1).Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("8"))
	styleBody      = lipgloss.NewStyle().Padding(1, 2)
	styleHeart     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
