package color

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	colorEnabled = true
	profile      = termenv.ANSI256
)

func init() {
	if termenv.EnvNoColor() || !isTerminal() {
		colorEnabled = false
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// EnableColor switches styling on or off for every helper in this package.
func EnableColor(enable bool) {
	colorEnabled = enable
}

func IsColorEnabled() bool {
	return colorEnabled
}

func Colorize(c termenv.Color, text string) string {
	if !colorEnabled {
		return text
	}
	return profile.String(text).Foreground(c).String()
}

func RedText(text string) string {
	return Colorize(termenv.ANSIRed, text)
}

func BrightRedText(text string) string {
	return Colorize(termenv.ANSIBrightRed, text)
}

func YellowText(text string) string {
	return Colorize(termenv.ANSIYellow, text)
}

func CyanText(text string) string {
	return Colorize(termenv.ANSICyan, text)
}

func BoldText(text string) string {
	if !colorEnabled {
		return text
	}
	return profile.String(text).Bold().String()
}

func Error(message string) string {
	if !colorEnabled {
		return message
	}
	return BrightRedText("Error: ") + message
}

func Warning(message string) string {
	if !colorEnabled {
		return message
	}
	return YellowText("Warning: ") + message
}

// Header renders a section banner used by verbose output.
func Header(title string) string {
	return BoldText(CyanText("== " + title + " =="))
}
