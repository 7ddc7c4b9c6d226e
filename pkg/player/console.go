package player

import (
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/kmidi/pkg/karaoke"
)

const (
	ansiSung  = "\x1b[1;36m"
	ansiReset = "\x1b[0m"
)

// Console writes each changed frame as a time header and the lyric lines.
// Sung text is highlighted with ANSI colors, or bracketed when color is off.
type Console struct {
	w     io.Writer
	color bool
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

// Render implements Renderer.
func (c *Console) Render(t float64, lines [karaoke.NumLines]karaoke.Line) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %7.2fs ---\n", t)
	for _, l := range lines {
		b.WriteString(c.line(l))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) line(l karaoke.Line) string {
	if l.Sung == "" {
		return l.Pending
	}
	if c.color {
		return ansiSung + l.Sung + ansiReset + l.Pending
	}
	return "[" + l.Sung + "]" + l.Pending
}
