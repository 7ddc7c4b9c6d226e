package smf

import "errors"

var (
	// ErrUnsupportedFormat is returned for files whose header division is an
	// SMPTE time code instead of ticks per quarter note.
	ErrUnsupportedFormat = errors.New("unsupported MIDI time division (SMPTE)")

	// ErrInvalidHeader is returned when the MThd chunk is missing or malformed.
	ErrInvalidHeader = errors.New("invalid MIDI header")

	// ErrInvalidTrack is returned when a track does not start with an MTrk chunk.
	ErrInvalidTrack = errors.New("invalid MIDI track chunk")

	// ErrMalformedTrack is returned when an event does not fit the declared track length
	// or uses a status byte that cannot appear in a file.
	ErrMalformedTrack = errors.New("malformed MIDI track")

	// ErrNoRunningStatus is returned when a data byte appears before any channel status.
	ErrNoRunningStatus = errors.New("data byte without running status")

	// ErrUnexpectedEOF is returned when the stream ends inside a chunk or event.
	ErrUnexpectedEOF = errors.New("unexpected end of MIDI data")

	// ErrVarLenTooLong is returned for variable-length quantities longer than four bytes.
	ErrVarLenTooLong = errors.New("variable-length quantity exceeds 4 bytes")

	// ErrSameFile is returned when WriteFile would overwrite its own source.
	ErrSameFile = errors.New("output is the input file")
)
