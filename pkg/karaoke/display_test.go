package karaoke

import (
	"testing"

	"github.com/zurustar/kmidi/pkg/smf"
)

func syllables(texts []string, times []float64) []smf.Syllable {
	out := make([]smf.Syllable, len(texts))
	for i := range texts {
		out[i] = smf.Syllable{Text: texts[i], Time: times[i]}
	}
	return out
}

func happyBirthday() *Display {
	return NewFromSyllables(syllables(
		[]string{"Hap", "py", "/", "Birth", "day", `\`},
		[]float64{0, 0.5, 1, 2, 2.5, 3},
	))
}

func assertLines(t *testing.T, got [NumLines]Line, want [NumLines]Line) {
	t.Helper()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDisplay_Initial(t *testing.T) {
	d := happyBirthday()
	assertLines(t, d.Lines(), [NumLines]Line{
		{Pending: "Happy"},
		{Pending: "Birthday"},
		{},
	})
	if d.End() != 3 || !d.Active() {
		t.Errorf("End=%v Active=%v", d.End(), d.Active())
	}
}

func TestDisplay_Update(t *testing.T) {
	tests := []struct {
		time float64
		want [NumLines]Line
	}{
		{0, [NumLines]Line{{Pending: "Happy"}, {Pending: "Birthday"}, {}}},
		{0.6, [NumLines]Line{{Sung: "Hap", Pending: "py"}, {Pending: "Birthday"}, {}}},
		{1.2, [NumLines]Line{{Sung: "Happy"}, {Pending: "Birthday"}, {}}},
		{2.2, [NumLines]Line{{Sung: "Happy"}, {Pending: "Birthday"}, {}}},
		{2.7, [NumLines]Line{{Sung: "Happy"}, {Sung: "Birth", Pending: "day"}, {}}},
		{3.5, [NumLines]Line{{Sung: "Happy"}, {Sung: "Birthday"}, {}}},
	}
	d := happyBirthday()
	for _, tt := range tests {
		d.Update(tt.time)
		t.Logf("t=%v cursor=%d", tt.time, d.Cursor())
		assertLines(t, d.Lines(), tt.want)
	}
	if !d.Done() {
		t.Error("expected Done after final syllable")
	}
}

func TestDisplay_ThreeLineBlocks(t *testing.T) {
	d := NewFromSyllables(syllables(
		[]string{"one", "/", "two", "/", "three", "/", "four", "/", "five"},
		[]float64{0, 1, 1, 2, 2, 3, 3, 4, 4},
	))
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "one"}, {Pending: "two"}, {Pending: "three"}})

	d.Update(2.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Sung: "one"}, {Sung: "two"}, {Pending: "three"}})

	// Reaching the break after line three turns the page.
	d.Update(3.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "four"}, {Pending: "five"}, {}})

	d.Update(4.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Sung: "four"}, {Sung: "five"}, {}})
}

func TestDisplay_SectionBreakStartsNewBlock(t *testing.T) {
	d := NewFromSyllables(syllables(
		[]string{"a", `\`, "b", "c", "/", "d", `\`, "e"},
		[]float64{0, 1, 1, 2, 3, 3, 4, 4},
	))
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "a"}, {}, {}})

	d.Update(1.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "bc"}, {Pending: "d"}, {}})

	d.Update(2.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Sung: "b", Pending: "c"}, {Pending: "d"}, {}})

	d.Update(10)
	assertLines(t, d.Lines(), [NumLines]Line{{Sung: "e"}, {}, {}})
}

func TestDisplay_EmptyLine(t *testing.T) {
	d := NewFromSyllables(syllables(
		[]string{"x", "/", "/", "y"},
		[]float64{0, 1, 1, 2},
	))
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "x"}, {}, {Pending: "y"}})
	if !d.Lines()[1].Empty() {
		t.Error("middle line should be empty")
	}
}

func TestDisplay_Inert(t *testing.T) {
	for _, d := range []*Display{New(nil), New(&smf.File{}), NewFromSyllables(nil)} {
		d.Update(5)
		if d.Active() || d.Done() || d.End() != 0 {
			t.Errorf("inert display changed state")
		}
		assertLines(t, d.Lines(), [NumLines]Line{})
	}
}

func TestDisplay_Reset(t *testing.T) {
	d := happyBirthday()
	d.Update(3.5)
	d.Reset()
	if d.Cursor() != 0 || d.Done() {
		t.Errorf("cursor=%d done=%v after Reset", d.Cursor(), d.Done())
	}
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "Happy"}, {Pending: "Birthday"}, {}})
}

func TestDisplay_FromFile(t *testing.T) {
	f := &smf.File{
		Karaoke:   true,
		Syllables: syllables([]string{"la", "la"}, []float64{1, 2}),
	}
	d := New(f)
	d.Update(0.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "lala"}, {}, {}})
	d.Update(1.5)
	assertLines(t, d.Lines(), [NumLines]Line{{Pending: "lala"}, {}, {}})
}
