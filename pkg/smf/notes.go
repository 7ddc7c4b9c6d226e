package smf

// Note is one sounded note. End is -1 while no matching note-off was seen.
type Note struct {
	Key      uint8
	Velocity uint8
	Channel  uint8
	Patch    uint8
	Track    int
	Start    float64
	End      float64
}

// Open reports whether the note never received a note-off.
func (n Note) Open() bool {
	return n.End < 0
}

// Duration returns End-Start, or 0 for open notes.
func (n Note) Duration() float64 {
	if n.Open() {
		return 0
	}
	return n.End - n.Start
}

// noteKey identifies notes for on/off pairing. Pairing crosses tracks and
// channels but not patches, so a piano C4 never ends a guitar C4.
type noteKey struct {
	key   uint8
	patch uint8
}

// noteTracker pairs note-on and note-off events. For every key it keeps a
// stack of indexes of open notes; a note-off closes the most recent one.
type noteTracker struct {
	notes []Note
	open  map[noteKey][]int
}

func newNoteTracker() *noteTracker {
	return &noteTracker{open: make(map[noteKey][]int)}
}

// on records a new note. A note struck again on the same track before its
// note-off ends the earlier one at the new start time.
func (t *noteTracker) on(n Note) {
	k := noteKey{key: n.Key, patch: n.Patch}
	stack := t.open[k]
	if top := len(stack) - 1; top >= 0 && t.notes[stack[top]].Track == n.Track {
		t.notes[stack[top]].End = n.Start
		stack = stack[:top]
	}
	n.End = -1
	t.open[k] = append(stack, len(t.notes))
	t.notes = append(t.notes, n)
}

// off closes the most recent open note for key and patch.
// It reports false when no such note is open.
func (t *noteTracker) off(key, patch uint8, at float64) bool {
	k := noteKey{key: key, patch: patch}
	stack := t.open[k]
	top := len(stack) - 1
	if top < 0 {
		return false
	}
	t.notes[stack[top]].End = at
	if top == 0 {
		delete(t.open, k)
	} else {
		t.open[k] = stack[:top]
	}
	return true
}

// pending returns the number of notes still open.
func (t *noteTracker) pending() int {
	n := 0
	for _, stack := range t.open {
		n += len(stack)
	}
	return n
}
