// Package smf reads Standard MIDI Files and the .kar karaoke convention built
// on them. Loading produces the tempo/meter timeline, notes with timestamps in
// seconds, per-track metadata and the lyric syllables of karaoke files.
// Rewrite produces a copy of a file without selected tracks or patches.
package smf

import (
	"sort"
	"strings"
)

// KaraokeMarker is the text event that marks a .kar file. The track after the
// one carrying it holds the lyrics.
const KaraokeMarker = "@KMIDI KARAOKE FILE"

// Lyric sentinels. In .kar text events a leading "/" starts a new line and a
// leading "\" starts a new section (page) of lyrics.
const (
	LineBreak    = "/"
	SectionBreak = `\`
)

// TrackInfo describes one track.
type TrackInfo struct {
	Index  int
	Name   string
	Events int
	End    float64 // time of the last event in seconds
}

// PatchUse is one program change.
type PatchUse struct {
	Track int
	Patch uint8
	Time  float64
}

// Syllable is a piece of lyric text or a break sentinel, with the time it is sung.
type Syllable struct {
	Text string
	Time float64
}

// IsBreak reports whether s is a line or section break.
func (s Syllable) IsBreak() bool {
	return s.Text == LineBreak || s.Text == SectionBreak
}

// KaraokeInfo holds the "@" tags of a .kar file.
type KaraokeInfo struct {
	Version  string   // @V
	Language string   // @L
	Title    []string // @T, usually song title then artist
	Info     []string // @I
	Other    []string // @W and unrecognized tags, tag letter included
}

func (k *KaraokeInfo) add(tag string) {
	body := strings.TrimPrefix(tag, "@")
	if body == "" {
		return
	}
	value := strings.TrimSpace(body[1:])
	switch body[0] {
	case 'V':
		k.Version = value
	case 'L':
		k.Language = value
	case 'T':
		k.Title = append(k.Title, value)
	case 'I':
		k.Info = append(k.Info, value)
	default:
		k.Other = append(k.Other, body)
	}
}

// File is a loaded MIDI file. All lists are filled once by Load and are
// not modified afterwards.
type File struct {
	Header    Header
	Tracks    []TrackInfo
	PatchUses []PatchUse
	Notes     []Note

	// Karaoke is set when the karaoke marker was found. KaraokeTrack is the
	// index of the lyric track and Syllables its lyrics in time order.
	Karaoke      bool
	KaraokeTrack int
	Syllables    []Syllable
	KaraokeInfo  KaraokeInfo

	tempo    *TempoMap
	duration float64
}

// Tempo returns the tempo/meter map, or nil when the file could not be timed.
func (f *File) Tempo() *TempoMap {
	return f.tempo
}

// TempoPoints returns the tempo/meter timeline; empty for unsupported files.
func (f *File) TempoPoints() []TempoPoint {
	if f.tempo == nil {
		return nil
	}
	return f.tempo.Points()
}

// Duration returns the time of the latest end of track in seconds.
func (f *File) Duration() float64 {
	return f.duration
}

// TrackName returns the name of track i, or "" if it has none.
func (f *File) TrackName(i int) string {
	if i < 0 || i >= len(f.Tracks) {
		return ""
	}
	return f.Tracks[i].Name
}

// Patches returns the distinct patches selected by program changes, in ascending order.
func (f *File) Patches() []uint8 {
	seen := make(map[uint8]bool)
	var patches []uint8
	for _, u := range f.PatchUses {
		if !seen[u.Patch] {
			seen[u.Patch] = true
			patches = append(patches, u.Patch)
		}
	}
	sort.Slice(patches, func(i, j int) bool { return patches[i] < patches[j] })
	return patches
}

// NotesOn returns the notes started on track i.
func (f *File) NotesOn(i int) []Note {
	var notes []Note
	for _, n := range f.Notes {
		if n.Track == i {
			notes = append(notes, n)
		}
	}
	return notes
}

// LyricEnd returns the time of the last syllable, or 0 without lyrics.
func (f *File) LyricEnd() float64 {
	if len(f.Syllables) == 0 {
		return 0
	}
	return f.Syllables[len(f.Syllables)-1].Time
}
