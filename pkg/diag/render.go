package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rayone121/widow/pkg/color"
)

// Render formats err for a terminal: a red message followed by the yellow
// source position, mirroring how parse errors are reported.
func Render(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		return color.Error(err.Error())
	}
	var b strings.Builder
	b.WriteString(color.BrightRedText(capitalize(de.Kind.String()) + " error: "))
	b.WriteString(color.RedText(de.Msg))
	b.WriteString(" at ")
	if de.Column > 0 {
		b.WriteString(color.YellowText(fmt.Sprintf("Line: %d, Column %d", de.Line, de.Column)))
	} else {
		b.WriteString(color.YellowText(fmt.Sprintf("Line: %d", de.Line)))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
