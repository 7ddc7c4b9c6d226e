package smf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	gosmf "gitlab.com/gomidi/midi/v2/smf"
)

// Hand-assembled files, for byte-level cases an encoder would never produce.

func ev(delta uint32, b ...byte) []byte {
	return append(AppendVarLen(nil, delta), b...)
}

func endOfTrack() []byte {
	return ev(0, 0xFF, MetaEndOfTrack, 0x00)
}

func metaText(delta uint32, typ byte, text string) []byte {
	b := ev(delta, 0xFF, typ)
	b = AppendVarLen(b, uint32(len(text)))
	return append(b, text...)
}

func headerChunk(format, tracks uint16, division int16) []byte {
	b := []byte("MThd")
	b = binary.BigEndian.AppendUint32(b, 6)
	b = binary.BigEndian.AppendUint16(b, format)
	b = binary.BigEndian.AppendUint16(b, tracks)
	return binary.BigEndian.AppendUint16(b, uint16(division))
}

func trackChunk(events ...[]byte) []byte {
	body := bytes.Join(events, nil)
	b := []byte("MTrk")
	b = binary.BigEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

func rawFile(division int16, tracks ...[]byte) []byte {
	b := headerChunk(1, uint16(len(tracks)), division)
	for _, t := range tracks {
		b = append(b, t...)
	}
	return b
}

// Files written by gomidi, an independent encoder.

type fixtureEvent struct {
	delta uint32
	msg   []byte
}

func encode(t *testing.T, ticks uint16, tracks ...[]fixtureEvent) []byte {
	t.Helper()
	s := gosmf.NewSMF1()
	s.TimeFormat = gosmf.MetricTicks(ticks)
	for _, events := range tracks {
		var tr gosmf.Track
		for _, e := range events {
			tr.Add(e.delta, e.msg)
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			t.Fatalf("failed to add track: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

// karaokeFixture is a small .kar file: a conductor track with the marker and
// tags, the lyric track, and a melody track with two patches. 120 BPM, 480
// ticks per quarter, so 480 ticks are half a second.
func karaokeFixture(t *testing.T) []byte {
	t.Helper()
	conductor := []fixtureEvent{
		{0, gosmf.MetaTempo(120)},
		{0, gosmf.MetaMeter(3, 4)},
		{0, gosmf.MetaText(KaraokeMarker)},
		{0, gosmf.MetaText("@LENG")},
		{0, gosmf.MetaText("@THappy Birthday")},
		{0, gosmf.MetaText("@TTraditional")},
	}
	lyrics := []fixtureEvent{
		{0, gosmf.MetaTrackSequenceName("Words")},
		{0, gosmf.MetaText("@IKaraoke test")},
		{0, gosmf.MetaText("Hap")},
		{480, gosmf.MetaText("py")},
		{480, gosmf.MetaText("/Birth")},
		{960, gosmf.MetaText("day")},
		{480, gosmf.MetaText("\\")},
	}
	melody := []fixtureEvent{
		{0, gosmf.MetaTrackSequenceName("Melody")},
		{0, midi.ProgramChange(0, 0)},
		{0, midi.NoteOn(0, 60, 100)},
		{480, midi.NoteOff(0, 60)},
		{0, midi.ProgramChange(0, 24)},
		{0, midi.NoteOn(0, 62, 90)},
		{960, midi.NoteOff(0, 62)},
	}
	return encode(t, 480, conductor, lyrics, melody)
}
