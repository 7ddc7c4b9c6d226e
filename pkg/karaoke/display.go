// Package karaoke lays out .kar lyrics as a three-line display that follows
// playback time.
package karaoke

import (
	"strings"

	"github.com/zurustar/kmidi/pkg/smf"
)

// NumLines is the number of lyric lines shown at once.
const NumLines = 3

// Line is one display line split at the singing position.
type Line struct {
	Sung    string
	Pending string
}

// Text returns the whole line.
func (l Line) Text() string {
	return l.Sung + l.Pending
}

// Empty reports whether the line has no text.
func (l Line) Empty() bool {
	return l.Sung == "" && l.Pending == ""
}

// span is an inclusive range of syllable indexes. end < start is an empty line.
type span struct {
	start, end int
}

var emptySpan = span{start: 0, end: -1}

// Display tracks the syllable being sung and the block of lines around it.
// Update must be called with non-decreasing times; Reset rewinds.
type Display struct {
	syllables []smf.Syllable

	pos    int // first syllable not yet reached, capped at the last one
	cursor int // syllable being sung
	done   bool

	lines     [NumLines]span
	next      int // first syllable after the current block
	blockLast int
}

// New returns a display for the lyrics of f. Files without karaoke data
// give an inert display whose lines stay empty.
func New(f *smf.File) *Display {
	if f == nil || !f.Karaoke {
		return NewFromSyllables(nil)
	}
	return NewFromSyllables(f.Syllables)
}

// NewFromSyllables returns a display for a syllable sequence.
func NewFromSyllables(syllables []smf.Syllable) *Display {
	d := &Display{syllables: syllables}
	d.Reset()
	return d
}

// Reset rewinds to the start of the song and shows the first block.
func (d *Display) Reset() {
	d.pos, d.cursor, d.done = 0, 0, false
	d.next, d.blockLast = 0, -1
	for i := range d.lines {
		d.lines[i] = emptySpan
	}
	if d.Active() {
		d.layout()
	}
}

// Active reports whether there are lyrics to show.
func (d *Display) Active() bool {
	return len(d.syllables) > 0
}

// End returns the time of the last syllable.
func (d *Display) End() float64 {
	if !d.Active() {
		return 0
	}
	return d.syllables[len(d.syllables)-1].Time
}

// Cursor returns the index of the syllable being sung.
func (d *Display) Cursor() int {
	return d.cursor
}

// Done reports whether the last Update reached the final syllable.
func (d *Display) Done() bool {
	return d.done
}

// Update moves the display to playback time t in seconds.
func (d *Display) Update(t float64) {
	if !d.Active() {
		return
	}
	n := len(d.syllables)
	for d.pos < n-1 && d.syllables[d.pos].Time <= t {
		d.pos++
	}
	d.cursor = max(d.pos-1, 0)
	d.done = t >= d.syllables[n-1].Time

	for d.cursor > d.blockLast && d.next < n {
		d.layout()
	}
}

// layout fills the lines from d.next: up to NumLines lines separated by
// line breaks, ending early at a section break.
func (d *Display) layout() {
	n := len(d.syllables)
	for i := range d.lines {
		d.lines[i] = emptySpan
	}

	i := d.next
	for i < n && d.syllables[i].IsBreak() {
		i++
	}
	start, line := i, 0
	for ; i < n; i++ {
		text := d.syllables[i].Text
		if text != smf.LineBreak && text != smf.SectionBreak {
			continue
		}
		d.lines[line] = span{start: start, end: i - 1}
		line++
		start = i + 1
		if text == smf.SectionBreak || line == NumLines {
			break
		}
	}
	if i >= n {
		if line < NumLines {
			d.lines[line] = span{start: start, end: n - 1}
		}
		i = n
	}
	d.next = i
	d.blockLast = i - 1
}

// Lines returns the current block. Syllables before the cursor are sung;
// once the final syllable is reached every line is sung.
func (d *Display) Lines() [NumLines]Line {
	var out [NumLines]Line
	cursor := d.cursor
	if d.done {
		cursor = len(d.syllables)
	}
	for i, sp := range d.lines {
		var sung, pending strings.Builder
		for j := sp.start; j <= sp.end; j++ {
			s := d.syllables[j]
			if s.IsBreak() {
				continue
			}
			if j < cursor {
				sung.WriteString(s.Text)
			} else {
				pending.WriteString(s.Text)
			}
		}
		out[i] = Line{Sung: sung.String(), Pending: pending.String()}
	}
	return out
}
