package main

import "github.com/charmbracelet/lipgloss"

// Styling lives entirely in the REPL chrome — the banner and the
// "quill>"/"   ->" prompts. The ASCII result table itself is never styled
// here: spec §6 fixes its exact text contract, byte for byte, in
// internal/resultfmt.
var (
	colorAccent = lipgloss.Color("69")
	colorMuted  = lipgloss.Color("243")

	bannerStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	contStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

func banner() string {
	return bannerStyle.Render("quill") + contStyle.Render(" — type SQL ending in ';', or 'exit' to quit")
}

func prompt() string {
	return promptStyle.Render("quill> ")
}

func continuation() string {
	return contStyle.Render("   -> ")
}
