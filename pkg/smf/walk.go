package smf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Meta event types the engine acts on.
const (
	MetaText          = 0x01
	MetaTrackName     = 0x03
	MetaEndOfTrack    = 0x2F
	MetaTempo         = 0x51
	MetaTimeSignature = 0x58
)

// Channel message types (high nibble of the status byte).
const (
	NoteOff         = 0x8
	NoteOn          = 0x9
	PolyPressure    = 0xA
	ControlChange   = 0xB
	ProgramChange   = 0xC
	ChannelPressure = 0xD
	PitchBend       = 0xE
)

const (
	statusMeta        = 0xFF
	statusSysex       = 0xF0
	statusSysexEscape = 0xF7

	headerChunkSize = 8
	minHeaderLength = 6
	maxHeaderLength = 1 << 16

	readChunk = 64 << 10
)

// Header is the decoded MThd chunk.
type Header struct {
	Format    uint16
	NumTracks uint16
	Division  int16 // ticks per quarter note; negative for SMPTE time code
}

// SMPTE reports whether the division is an SMPTE time code.
func (h Header) SMPTE() bool {
	return h.Division < 0
}

type eventKind int

const (
	kindChannel eventKind = iota
	kindMeta
	kindSysex
)

// rawEvent is one decoded track event together with the exact bytes it
// occupied in the stream (delta time included).
type rawEvent struct {
	kind     eventKind
	delta    uint32
	status   byte // effective status, after running status
	running  bool // status byte was omitted in the stream
	metaType byte
	data     []byte // meta/sysex payload or channel data bytes
	raw      []byte
}

// trackState is the parse state of one track. It is created per track so
// nothing carries over from the previous one.
type trackState struct {
	index    int
	length   uint32
	consumed uint32
	time     float64 // seconds; advanced by the loader
	patch    uint8
	running  byte // last channel status, 0 before the first channel event
	events   int
	ended    bool
}

func (ts *trackState) remaining() uint32 {
	return ts.length - ts.consumed
}

// visitor receives the walker's traversal. Every byte of the input is handed
// to exactly one callback, in stream order.
type visitor interface {
	header(h Header, raw []byte) error
	beginTrack(ts *trackState, raw []byte) error
	event(ts *trackState, ev *rawEvent) error
	endTrack(ts *trackState, trailing []byte) error
}

// walker drives the chunk and event state machine over a stream.
// Loading and rewriting share it so both see the stream the same way.
type walker struct {
	r *recorder
	v visitor
}

func newWalker(r io.Reader, v visitor) *walker {
	return &walker{r: &recorder{br: bufio.NewReader(r)}, v: v}
}

func (w *walker) walk() error {
	h, err := w.readHeader()
	if err != nil {
		return err
	}
	if err := w.v.header(h, w.r.take()); err != nil {
		return err
	}
	if h.SMPTE() {
		return ErrUnsupportedFormat
	}
	if h.Division == 0 {
		return fmt.Errorf("%w: zero division", ErrInvalidHeader)
	}

	for i := 0; i < int(h.NumTracks); i++ {
		if err := w.walkTrack(i); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	return nil
}

func (w *walker) readHeader() (Header, error) {
	chunk, err := w.r.readN(headerChunkSize)
	if err != nil {
		return Header{}, err
	}
	if string(chunk[:4]) != "MThd" {
		return Header{}, fmt.Errorf("%w: chunk id %q", ErrInvalidHeader, chunk[:4])
	}
	length := binary.BigEndian.Uint32(chunk[4:])
	if length < minHeaderLength || length > maxHeaderLength {
		return Header{}, fmt.Errorf("%w: length %d", ErrInvalidHeader, length)
	}
	body, err := w.r.readN(int(length))
	if err != nil {
		return Header{}, err
	}
	return Header{
		Format:    binary.BigEndian.Uint16(body[0:]),
		NumTracks: binary.BigEndian.Uint16(body[2:]),
		Division:  int16(binary.BigEndian.Uint16(body[4:])),
	}, nil
}

func (w *walker) walkTrack(index int) error {
	chunk, err := w.r.readN(headerChunkSize)
	if err != nil {
		return err
	}
	if string(chunk[:4]) != "MTrk" {
		return fmt.Errorf("%w: chunk id %q", ErrInvalidTrack, chunk[:4])
	}
	ts := &trackState{index: index, length: binary.BigEndian.Uint32(chunk[4:])}
	if err := w.v.beginTrack(ts, w.r.take()); err != nil {
		return err
	}

	for !ts.ended && ts.consumed < ts.length {
		ev, err := w.readEvent(ts)
		if err != nil {
			return fmt.Errorf("event %d: %w", ts.events, err)
		}
		ts.consumed += uint32(len(ev.raw))
		ts.events++
		if err := w.v.event(ts, ev); err != nil {
			return err
		}
		switch {
		case ev.kind == kindChannel && ev.status>>4 == ProgramChange:
			ts.patch = ev.data[0]
		case ev.kind == kindMeta && ev.metaType == MetaEndOfTrack:
			ts.ended = true
		}
	}

	// Anything declared after end-of-track is passed through untouched.
	var trailing []byte
	if n := ts.remaining(); n > 0 {
		if _, err := w.r.readN(int(n)); err != nil {
			return err
		}
		trailing = w.r.take()
		ts.consumed = ts.length
	}
	return w.v.endTrack(ts, trailing)
}

// readEvent reads delta time, status and body of the next event.
func (w *walker) readEvent(ts *trackState) (*rawEvent, error) {
	delta, _, _, err := ReadVarLen(w.r)
	if err != nil {
		return nil, err
	}
	status, err := w.r.ReadByte()
	if err != nil {
		return nil, err
	}
	ev := &rawEvent{delta: delta, status: status}

	switch {
	case status == statusMeta:
		ev.kind = kindMeta
		if ev.metaType, err = w.r.ReadByte(); err != nil {
			return nil, err
		}
		if ev.data, err = w.readPayload(ts); err != nil {
			return nil, err
		}

	case status == statusSysex || status == statusSysexEscape:
		ev.kind = kindSysex
		if ev.data, err = w.readPayload(ts); err != nil {
			return nil, err
		}

	case status >= 0xF0:
		return nil, fmt.Errorf("%w: status 0x%02X", ErrMalformedTrack, status)

	default:
		ev.kind = kindChannel
		if status < 0x80 {
			// A data byte: reuse the previous status and read this byte again as data.
			if ts.running == 0 {
				return nil, ErrNoRunningStatus
			}
			if err := w.r.UnreadByte(); err != nil {
				return nil, err
			}
			ev.status = ts.running
			ev.running = true
		}
		var n int
		switch ev.status >> 4 {
		case NoteOff, NoteOn, PolyPressure, ControlChange, PitchBend:
			n = 2
		case ProgramChange, ChannelPressure:
			n = 1
		}
		if ev.data, err = w.r.readN(n); err != nil {
			return nil, err
		}
		ts.running = ev.status
	}

	ev.raw = w.r.take()
	if uint32(len(ev.raw)) > ts.remaining() {
		return nil, fmt.Errorf("%w: event of %d bytes overruns track end (%d left)",
			ErrMalformedTrack, len(ev.raw), ts.remaining())
	}
	return ev, nil
}

// readPayload reads a length-prefixed meta or sysex body.
func (w *walker) readPayload(ts *trackState) ([]byte, error) {
	n, _, _, err := ReadVarLen(w.r)
	if err != nil {
		return nil, err
	}
	if used := uint32(w.r.pending()); uint64(n)+uint64(used) > uint64(ts.remaining()) {
		return nil, fmt.Errorf("%w: payload of %d bytes overruns track end", ErrMalformedTrack, n)
	}
	return w.r.readN(int(n))
}

// recorder reads from the stream and keeps every byte consumed since the
// last take, so callers can mirror the exact input.
type recorder struct {
	br  *bufio.Reader
	buf []byte
}

func (r *recorder) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, eofError(err)
	}
	r.buf = append(r.buf, b)
	return b, nil
}

// UnreadByte steps back over the byte just read.
func (r *recorder) UnreadByte() error {
	if err := r.br.UnreadByte(); err != nil {
		return err
	}
	r.buf = r.buf[:len(r.buf)-1]
	return nil
}

// readN reads n bytes in pieces of at most readChunk, so a length taken
// from the file only costs memory for the bytes that actually arrive.
func (r *recorder) readN(n int) ([]byte, error) {
	start := len(r.buf)
	for n > 0 {
		k := min(n, readChunk)
		at := len(r.buf)
		r.buf = append(r.buf, make([]byte, k)...)
		if _, err := io.ReadFull(r.br, r.buf[at:]); err != nil {
			r.buf = r.buf[:start]
			return nil, eofError(err)
		}
		n -= k
	}
	return r.buf[start:], nil
}

func (r *recorder) pending() int {
	return len(r.buf)
}

func (r *recorder) take() []byte {
	b := r.buf
	r.buf = nil
	return b
}

func eofError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return err
}
