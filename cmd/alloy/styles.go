// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Hex palette for dark terminals. Every style below derives from it.
var (
	purple = lipgloss.Color("#7C3AED")
	gray   = lipgloss.Color("#6B7280")
	silver = lipgloss.Color("#9CA3AF")
	green  = lipgloss.Color("#10B981")
	red    = lipgloss.Color("#EF4444")
	amber  = lipgloss.Color("#F59E0B")
	blue   = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle marks headings and bottle names.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(purple)

	SubtitleStyle = lipgloss.NewStyle().Foreground(gray)
	SuccessStyle  = lipgloss.NewStyle().Foreground(green)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(red)
	WarningStyle  = lipgloss.NewStyle().Foreground(amber)

	// CmdStyle marks things a user may copy: bottle ids, paths, commands.
	CmdStyle = lipgloss.NewStyle().Foreground(blue)

	// VerboseStyle is for runtime descriptions and other secondary detail.
	VerboseStyle = lipgloss.NewStyle().Foreground(silver)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(amber)
)

// okMark and warnMark prefix one-line outcome messages.
func okMark() string   { return SuccessStyle.Render("✓") }
func warnMark() string { return WarningStyle.Render("!") }
