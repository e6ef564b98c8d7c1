package lib

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleErrLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Exit prints the error, and an optional hint, and exits the program with code 1
func Exit(err error, hint ...string) {
	fmt.Fprintln(os.Stderr, styleErrLabel.Render("Error:"), err)
	for _, h := range hint {
		fmt.Fprintln(os.Stderr, styleHint.Render(h))
	}
	os.Exit(1)
}
