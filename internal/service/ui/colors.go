package ui

import "github.com/charmbracelet/lipgloss"

// Plain ANSI colors so the terminal theme decides the exact shade.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// Chat transcript
	UserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	AssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	NoticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)
