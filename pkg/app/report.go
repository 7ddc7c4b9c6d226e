package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/kmidi/pkg/smf"
)

// runInfo ファイルの概要を表示
func (app *Application) runInfo() error {
	f, err := app.load()
	if err != nil {
		return err
	}
	writeInfo(app.out, app.config.InputPath, f)
	return nil
}

// runLyrics 歌詞の音節をタイムスタンプ付きで表示
func (app *Application) runLyrics() error {
	f, err := app.load()
	if err != nil {
		return err
	}
	if !f.Karaoke {
		app.log.Warn("No karaoke lyrics found", "file", app.config.InputPath)
		return nil
	}
	writeLyrics(app.out, f)
	return nil
}

func writeInfo(w io.Writer, name string, f *smf.File) {
	h := f.Header
	fmt.Fprintf(w, "File:     %s\n", name)
	fmt.Fprintf(w, "Format:   %d\n", h.Format)
	fmt.Fprintf(w, "Tracks:   %d\n", h.NumTracks)
	fmt.Fprintf(w, "Division: %d ticks/quarter\n", h.Division)
	fmt.Fprintf(w, "Duration: %.3fs\n", f.Duration())

	fmt.Fprintln(w, "\nTempo map:")
	for _, p := range f.TempoPoints() {
		fmt.Fprintf(w, "  %9.3fs  %7.2f BPM  %d/%d\n", p.Time, p.BPM(), p.Numerator, p.Denominator())
	}

	fmt.Fprintln(w, "\nTracks:")
	for _, t := range f.Tracks {
		fmt.Fprintf(w, "  %3d  %-24q events=%-6d notes=%-5d end=%.3fs\n",
			t.Index, t.Name, t.Events, len(f.NotesOn(t.Index)), t.End)
	}

	fmt.Fprintln(w, "\nPatch changes:")
	for _, u := range f.PatchUses {
		fmt.Fprintf(w, "  track %3d  patch %3d  at %.3fs\n", u.Track, u.Patch, u.Time)
	}
	fmt.Fprintf(w, "Patches used: %v\n", f.Patches())

	open := 0
	for _, n := range f.Notes {
		if n.Open() {
			open++
		}
	}
	fmt.Fprintf(w, "\nNotes: %d (%d without note-off)\n", len(f.Notes), open)

	if !f.Karaoke {
		fmt.Fprintln(w, "Karaoke: no")
		return
	}
	fmt.Fprintf(w, "Karaoke: yes (lyric track %d, %d syllables, last at %.3fs)\n",
		f.KaraokeTrack, len(f.Syllables), f.LyricEnd())
	info := f.KaraokeInfo
	if len(info.Title) > 0 {
		fmt.Fprintf(w, "  Title:    %s\n", strings.Join(info.Title, " / "))
	}
	if info.Language != "" {
		fmt.Fprintf(w, "  Language: %s\n", info.Language)
	}
	if info.Version != "" {
		fmt.Fprintf(w, "  Version:  %s\n", info.Version)
	}
	for _, s := range info.Info {
		fmt.Fprintf(w, "  Info:     %s\n", s)
	}
}

func writeLyrics(w io.Writer, f *smf.File) {
	for _, s := range f.Syllables {
		switch s.Text {
		case smf.LineBreak:
			fmt.Fprintf(w, "%9.3f  [line]\n", s.Time)
		case smf.SectionBreak:
			fmt.Fprintf(w, "%9.3f  [section]\n", s.Time)
		default:
			fmt.Fprintf(w, "%9.3f  %s\n", s.Time, s.Text)
		}
	}
}
