package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	renderer     = lipgloss.NewRenderer(os.Stdout)
	colorEnabled = true

	headerStyle  = renderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	faultStyle   = renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	outputStyle  = renderer.NewStyle().Foreground(lipgloss.Color("15"))
	haltStyle    = renderer.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	indexStyle   = renderer.NewStyle().Foreground(lipgloss.Color("6"))
	labelStyle   = renderer.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	opcodeStyle  = renderer.NewStyle().Foreground(lipgloss.Color("11"))
	nameStyle    = renderer.NewStyle().Foreground(lipgloss.Color("4"))
	mutedStyle   = renderer.NewStyle().Foreground(lipgloss.Color("8"))
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal() {
		EnableColor(false)
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// EnableColor switches every style between ANSI256 and plain text.
func EnableColor(enable bool) {
	colorEnabled = enable
	if enable {
		renderer.SetColorProfile(termenv.ANSI256)
		return
	}
	renderer.SetColorProfile(termenv.Ascii)
}

func IsColorEnabled() bool {
	return colorEnabled
}

func Header(text string) string {
	return headerStyle.Render(text)
}

func Index(text string) string {
	return indexStyle.Render(text)
}

func Label(text string) string {
	return labelStyle.Render(text)
}

func Opcode(text string) string {
	return opcodeStyle.Render(text)
}

func Name(text string) string {
	return nameStyle.Render(text)
}

func Muted(text string) string {
	return mutedStyle.Render(text)
}

// ConsoleLine styles one line the engine wrote to its console by what it
// starts with. Unknown lines are returned as is.
func ConsoleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "Runtime Error"):
		return faultStyle.Render(line)
	case strings.HasPrefix(line, "Warning:"):
		return warningStyle.Render(line)
	case strings.HasPrefix(line, "Output:"):
		return outputStyle.Render(line)
	case strings.HasPrefix(line, "---"):
		return haltStyle.Render(line)
	default:
		return line
	}
}

func Error(message string) string {
	if !colorEnabled {
		return message
	}
	return faultStyle.Render("Error: ") + message
}

func Warning(message string) string {
	if !colorEnabled {
		return message
	}
	return warningStyle.Render("Warning: ") + message
}
