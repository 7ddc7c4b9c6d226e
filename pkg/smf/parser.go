package smf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"

	"github.com/zurustar/kmidi/pkg/logger"
)

// Option configures Load.
type Option func(*options)

type options struct {
	log     *slog.Logger
	decoder *TextDecoder
}

// WithLogger sets the logger used while loading.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDecoder sets the decoder for text, lyric and track name events.
func WithDecoder(d *TextDecoder) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithEncoding is WithDecoder for a named encoding. Unknown names keep the default.
func WithEncoding(name string) Option {
	return func(o *options) {
		if d, err := NewTextDecoder(name); err == nil {
			o.decoder = d
		} else {
			o.log.Warn("Ignoring text encoding", "encoding", name, "error", err)
		}
	}
}

// Load parses a MIDI file in one pass.
//
// Files with an SMPTE division return the File with only its Header set
// together with an error matching ErrUnsupportedFormat.
func Load(src Source, opts ...Option) (*File, error) {
	o := options{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.decoder == nil {
		o.decoder = &TextDecoder{name: EncodingAuto}
	}

	r, release, err := src.open()
	if err != nil {
		return nil, err
	}
	defer release()

	f, err := load(r, &o)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return f, fmt.Errorf("%s: %w", src, err)
		}
		return nil, fmt.Errorf("failed to load %s: %w", src, err)
	}
	return f, nil
}

// LoadFile is Load(FromPath(path)).
func LoadFile(path string, opts ...Option) (*File, error) {
	return Load(FromPath(path), opts...)
}

func load(r io.Reader, o *options) (*File, error) {
	l := &loader{
		f:           &File{KaraokeTrack: -1},
		opts:        o,
		notes:       newNoteTracker(),
		markerTrack: -1,
	}
	if err := newWalker(r, l).walk(); err != nil {
		return l.f, err
	}
	l.f.Notes = l.notes.notes

	o.log.Debug("MIDI file loaded",
		"format", l.f.Header.Format,
		"tracks", len(l.f.Tracks),
		"division", l.f.Header.Division,
		"tempo_points", l.f.tempo.Len(),
		"notes", len(l.f.Notes),
		"open_notes", l.notes.pending(),
		"karaoke", l.f.Karaoke,
		"syllables", len(l.f.Syllables),
		"duration", l.f.duration)
	return l.f, nil
}

// loader is the visitor that builds a File.
type loader struct {
	f           *File
	opts        *options
	notes       *noteTracker
	markerTrack int
}

func (l *loader) header(h Header, _ []byte) error {
	l.f.Header = h
	if h.Division > 0 {
		l.f.tempo = NewTempoMap(int(h.Division))
	}
	return nil
}

func (l *loader) beginTrack(ts *trackState, _ []byte) error {
	l.f.Tracks = append(l.f.Tracks, TrackInfo{Index: ts.index})
	return nil
}

func (l *loader) event(ts *trackState, ev *rawEvent) error {
	ts.time += l.f.tempo.Advance(ts.time, ev.delta)

	info := &l.f.Tracks[ts.index]
	info.Events = ts.events
	info.End = ts.time

	switch ev.kind {
	case kindMeta:
		l.meta(ts, ev)
	case kindChannel:
		l.channel(ts, ev)
	}
	return nil
}

func (l *loader) endTrack(ts *trackState, trailing []byte) error {
	if ts.time > l.f.duration {
		l.f.duration = ts.time
	}
	l.opts.log.Debug("Track parsed",
		"track", ts.index,
		"name", l.f.Tracks[ts.index].Name,
		"events", ts.events,
		"end", ts.time,
		"trailing_bytes", len(trailing))
	return nil
}

func (l *loader) meta(ts *trackState, ev *rawEvent) {
	switch ev.metaType {
	case MetaTempo:
		if len(ev.data) < 3 {
			l.opts.log.Warn("Short tempo event ignored", "track", ts.index, "length", len(ev.data))
			return
		}
		micros := uint32(ev.data[0])<<16 | uint32(ev.data[1])<<8 | uint32(ev.data[2])
		l.f.tempo.SetTempo(ts.time, micros)

	case MetaTimeSignature:
		if len(ev.data) < 2 {
			l.opts.log.Warn("Short time signature ignored", "track", ts.index, "length", len(ev.data))
			return
		}
		l.f.tempo.SetMeter(ts.time, ev.data[0], ev.data[1])

	case MetaTrackName:
		l.f.Tracks[ts.index].Name = l.opts.decoder.Decode(ev.data)

	case MetaText:
		l.text(ts, l.opts.decoder.Decode(ev.data))
	}
}

// text handles karaoke detection, "@" tags and lyric syllables.
func (l *loader) text(ts *trackState, text string) {
	if strings.TrimSpace(text) == KaraokeMarker {
		if !l.f.Karaoke {
			l.f.Karaoke = true
			l.markerTrack = ts.index
			l.f.KaraokeTrack = ts.index + 1
		}
		return
	}
	if !l.f.Karaoke {
		return
	}

	onLyricTrack := ts.index == l.f.KaraokeTrack
	if strings.HasPrefix(text, "@") && (onLyricTrack || ts.index == l.markerTrack) {
		l.f.KaraokeInfo.add(text)
		return
	}
	if onLyricTrack {
		l.f.Syllables = append(l.f.Syllables, splitSyllable(text, ts.time)...)
	}
}

// splitSyllable turns one lyric event into syllables. Break characters
// become sentinels of their own that share the event's time.
func splitSyllable(text string, at float64) []Syllable {
	var out []Syllable
	if strings.Contains(text, SectionBreak) {
		out = append(out, Syllable{Text: SectionBreak, Time: at})
		text = strings.ReplaceAll(text, SectionBreak, "")
	}
	if strings.Contains(text, LineBreak) {
		out = append(out, Syllable{Text: LineBreak, Time: at})
		text = strings.ReplaceAll(text, LineBreak, "")
	}
	if text != "" {
		out = append(out, Syllable{Text: text, Time: at})
	}
	return out
}

func (l *loader) channel(ts *trackState, ev *rawEvent) {
	msg := midi.Message(append([]byte{ev.status}, ev.data...))
	log := l.opts.log
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("Channel event", "track", ts.index, "time", ts.time, "running", ev.running, "msg", msg.String())
	}

	var channel, key, velocity, program uint8
	switch {
	case msg.GetProgramChange(&channel, &program):
		l.f.PatchUses = append(l.f.PatchUses, PatchUse{Track: ts.index, Patch: program, Time: ts.time})

	case msg.GetNoteStart(&channel, &key, &velocity):
		l.notes.on(Note{
			Key:      key,
			Velocity: velocity,
			Channel:  channel,
			Patch:    ts.patch,
			Track:    ts.index,
			Start:    ts.time,
		})

	case msg.GetNoteEnd(&channel, &key):
		if !l.notes.off(key, ts.patch, ts.time) {
			log.Debug("Unmatched note-off", "track", ts.index, "key", key, "patch", ts.patch, "time", ts.time)
		}
	}
}
