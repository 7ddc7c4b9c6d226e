package smf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Filter selects what Rewrite leaves out. Nil slices remove nothing.
type Filter struct {
	Tracks  []int // track indexes to drop
	Patches []int // patches whose channel events are muted
}

// Empty reports whether the filter removes nothing.
func (f Filter) Empty() bool {
	return len(f.Tracks) == 0 && len(f.Patches) == 0
}

// Rewrite copies the MIDI stream r to w byte for byte, except that the
// filtered tracks are left out entirely and two-data-byte channel events
// played with a filtered patch get their second data byte set to zero.
// The header's track count is lowered by the number of tracks dropped.
// Meta events and timing are never changed.
func Rewrite(r io.Reader, w io.Writer, f Filter) error {
	bw := bufio.NewWriter(w)
	rw := newRewriter(bw, f)
	if err := newWalker(r, rw).walk(); err != nil {
		return err
	}
	if rw.err != nil {
		return rw.err
	}
	return bw.Flush()
}

// WriteFile writes the filtered copy of srcPath to dstPath.
// The copy goes to a temporary file next to dstPath that replaces dstPath
// only once the rewrite succeeds, so a failure leaves dstPath as it was.
func WriteFile(srcPath, dstPath string, f Filter) (err error) {
	r, release, err := FromPath(srcPath).open()
	if err != nil {
		return err
	}
	defer release()

	if err := checkDistinct(r, dstPath); err != nil {
		return err
	}

	out, err := os.CreateTemp(filepath.Dir(dstPath), "."+filepath.Base(dstPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	tmp := out.Name()
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	if err := out.Chmod(0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	if err := Rewrite(r, out, f); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", srcPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dstPath, err)
	}
	if err := os.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", dstPath, err)
	}
	return nil
}

// checkDistinct fails with ErrSameFile when dstPath names the open source.
func checkDistinct(src io.Reader, dstPath string) error {
	sf, ok := src.(interface{ Stat() (os.FileInfo, error) })
	if !ok {
		return nil
	}
	si, err := sf.Stat()
	if err != nil {
		return err
	}
	di, err := os.Stat(dstPath)
	if err != nil {
		return nil
	}
	if os.SameFile(si, di) {
		return fmt.Errorf("%w: %s", ErrSameFile, dstPath)
	}
	return nil
}

// rewriter is the visitor that mirrors the walked bytes to an output.
type rewriter struct {
	w       io.Writer
	tracks  map[int]bool
	patches map[uint8]bool
	skip    bool
	err     error
}

func newRewriter(w io.Writer, f Filter) *rewriter {
	rw := &rewriter{
		w:       w,
		tracks:  make(map[int]bool, len(f.Tracks)),
		patches: make(map[uint8]bool, len(f.Patches)),
	}
	for _, t := range f.Tracks {
		rw.tracks[t] = true
	}
	for _, p := range f.Patches {
		if p >= 0 && p < 128 {
			rw.patches[uint8(p)] = true
		}
	}
	return rw
}

func (rw *rewriter) write(b []byte) error {
	if rw.err != nil {
		return rw.err
	}
	if _, err := rw.w.Write(b); err != nil {
		rw.err = fmt.Errorf("write failed: %w", err)
	}
	return rw.err
}

func (rw *rewriter) header(h Header, raw []byte) error {
	removed := 0
	for t := range rw.tracks {
		if t >= 0 && t < int(h.NumTracks) {
			removed++
		}
	}
	out := append([]byte(nil), raw...)
	binary.BigEndian.PutUint16(out[10:12], h.NumTracks-uint16(removed))
	return rw.write(out)
}

func (rw *rewriter) beginTrack(ts *trackState, raw []byte) error {
	rw.skip = rw.tracks[ts.index]
	if rw.skip {
		return nil
	}
	return rw.write(raw)
}

func (rw *rewriter) event(ts *trackState, ev *rawEvent) error {
	if rw.skip {
		return nil
	}
	if ev.kind == kindChannel && len(ev.data) == 2 && rw.patches[ts.patch] {
		out := append([]byte(nil), ev.raw...)
		out[len(out)-1] = 0
		return rw.write(out)
	}
	return rw.write(ev.raw)
}

func (rw *rewriter) endTrack(_ *trackState, trailing []byte) error {
	if rw.skip || len(trailing) == 0 {
		return nil
	}
	return rw.write(trailing)
}
