// Package ui renders command output: a lipgloss [Palette] for status lines and go-pretty tables
// for device listings.
package ui
