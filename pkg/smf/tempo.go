package smf

import "sort"

// MIDI defaults that hold until the first tempo or time signature event.
const (
	DefaultMicrosPerQuarter = 500000 // 120 BPM
	DefaultNumerator        = 4
	DefaultDenominatorExp   = 2 // 2^2 = 4
)

// TempoPoint is one entry of the tempo/meter timeline.
// Tempo and meter live in the same entry so both timelines always have the
// same length and the same timestamps; a change of one carries the other forward.
type TempoPoint struct {
	Time             float64 // seconds since the start of the song
	MicrosPerQuarter uint32  // microseconds per quarter note
	Numerator        uint8   // time signature numerator
	DenominatorExp   uint8   // time signature denominator as a power of two
}

// BPM returns the tempo in quarter notes per minute.
func (p TempoPoint) BPM() float64 {
	if p.MicrosPerQuarter == 0 {
		return 0
	}
	return 60000000.0 / float64(p.MicrosPerQuarter)
}

// Denominator returns the time signature denominator (2^DenominatorExp).
func (p TempoPoint) Denominator() int {
	if p.DenominatorExp > 30 {
		return 0
	}
	return 1 << p.DenominatorExp
}

// SecondsPerTick returns the duration of one tick at this tempo.
func (p TempoPoint) SecondsPerTick(division int) float64 {
	return float64(p.MicrosPerQuarter) / float64(division) * 1e-6
}

// TempoMap converts tick deltas into seconds.
// The timeline is ordered by Time and only grows.
type TempoMap struct {
	division int
	points   []TempoPoint
}

// NewTempoMap creates a tempo map holding the MIDI default tempo and meter at time 0.
// division is the header's ticks per quarter note and must be positive.
func NewTempoMap(division int) *TempoMap {
	return &TempoMap{
		division: division,
		points: []TempoPoint{{
			Time:             0,
			MicrosPerQuarter: DefaultMicrosPerQuarter,
			Numerator:        DefaultNumerator,
			DenominatorExp:   DefaultDenominatorExp,
		}},
	}
}

// Division returns the ticks per quarter note.
func (m *TempoMap) Division() int {
	return m.division
}

// Points returns the timeline. The slice is owned by the map.
func (m *TempoMap) Points() []TempoPoint {
	return m.points
}

// Len returns the number of timeline entries.
func (m *TempoMap) Len() int {
	return len(m.points)
}

// At returns the entry in effect at time t.
func (m *TempoMap) At(t float64) TempoPoint {
	return m.points[m.indexAt(t)]
}

// indexAt returns the index of the last entry whose time is not after t.
func (m *TempoMap) indexAt(t float64) int {
	i := len(m.points) - 1
	for i > 0 && m.points[i].Time > t {
		i--
	}
	return i
}

// SetTempo records a tempo change at time t, keeping the meter in effect.
func (m *TempoMap) SetTempo(t float64, microsPerQuarter uint32) {
	p := m.At(t)
	p.Time = t
	p.MicrosPerQuarter = microsPerQuarter
	m.insert(p)
}

// SetMeter records a time signature change at time t, keeping the tempo in effect.
func (m *TempoMap) SetMeter(t float64, numerator, denominatorExp uint8) {
	p := m.At(t)
	p.Time = t
	p.Numerator = numerator
	p.DenominatorExp = denominatorExp
	m.insert(p)
}

// insert places p after every entry at or before its time. Tempo events
// normally arrive in order and this is a plain append; a change found on a
// later track at an earlier time still keeps the timeline sorted.
func (m *TempoMap) insert(p TempoPoint) {
	i := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].Time > p.Time
	})
	if i == len(m.points) {
		m.points = append(m.points, p)
		return
	}
	m.points = append(m.points, TempoPoint{})
	copy(m.points[i+1:], m.points[i:])
	m.points[i] = p
}

// Advance returns the number of seconds spanned by ticks starting at time t.
//
// The rate in effect at t is assumed for the whole delta first. If the end
// time computed that way falls into another tempo segment, the delta is
// recomputed one tick at a time, switching to the later rate at the tick
// where the elapsed time reaches the start of that segment.
func (m *TempoMap) Advance(t float64, ticks uint32) float64 {
	if ticks == 0 {
		return 0
	}
	i0 := m.indexAt(t)
	spt0 := m.points[i0].SecondsPerTick(m.division)
	dt := float64(ticks) * spt0

	i1 := m.indexAt(t + dt)
	if i1 == i0 {
		return dt
	}

	spt1 := m.points[i1].SecondsPerTick(m.division)
	boundary := m.points[i1].Time
	dt = 0
	for range ticks {
		if t+dt < boundary {
			dt += spt0
		} else {
			dt += spt1
		}
	}
	return dt
}
