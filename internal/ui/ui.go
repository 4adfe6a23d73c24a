// Package ui provides the terminal styling for quahog's status output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorPass   = lipgloss.Color("#2CD7C7")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorErr    = lipgloss.Color("#E74C3C")
	colorAccent = lipgloss.Color("#20B9B4")

	stylePass   = lipgloss.NewStyle().Foreground(colorPass)
	styleWarn   = lipgloss.NewStyle().Foreground(colorWarn)
	styleErr    = lipgloss.NewStyle().Bold(true).Foreground(colorErr)
	styleAccent = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted  = lipgloss.NewStyle().Faint(true)
)

// Init applies the color mode: "always" forces true color, "never" strips
// styling, anything else detects the terminal's profile.
func Init(mode string) {
	switch mode {
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		lipgloss.SetColorProfile(termenv.ColorProfile())
	}
}

// RenderPass styles a success line.
func RenderPass(s string) string { return stylePass.Render(s) }

// RenderWarn styles a warning line.
func RenderWarn(s string) string { return styleWarn.Render(s) }

// RenderErr styles an error line.
func RenderErr(s string) string { return styleErr.Render(s) }

// RenderAccent styles an emphasized name or identifier.
func RenderAccent(s string) string { return styleAccent.Render(s) }

// RenderMuted styles secondary detail.
func RenderMuted(s string) string { return styleMuted.Render(s) }
