package smf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// EncodingAuto keeps valid UTF-8 as is and reads anything else as Windows-1252,
// the code page most .kar files were authored in.
const EncodingAuto = "auto"

// TextDecoder converts the bytes of text meta events into strings.
type TextDecoder struct {
	name string
	enc  encoding.Encoding // nil: bytes are taken as UTF-8
}

// NewTextDecoder returns a decoder for the named character set.
// Besides "auto" and "utf-8" it knows the common karaoke code pages by their
// short names and falls back to WHATWG labels ("koi8-r", "gbk", ...).
func NewTextDecoder(name string) (*TextDecoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", EncodingAuto:
		return &TextDecoder{name: EncodingAuto}, nil
	case "utf-8", "utf8":
		return &TextDecoder{name: "utf-8"}, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return &TextDecoder{name: "latin1", enc: charmap.ISO8859_1}, nil
	case "windows-1252", "cp1252":
		return &TextDecoder{name: "windows-1252", enc: charmap.Windows1252}, nil
	case "shift_jis", "shift-jis", "sjis":
		return &TextDecoder{name: "shift_jis", enc: japanese.ShiftJIS}, nil
	case "euc-jp", "eucjp":
		return &TextDecoder{name: "euc-jp", enc: japanese.EUCJP}, nil
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}
	return &TextDecoder{name: key, enc: enc}, nil
}

// Name returns the normalized encoding name.
func (d *TextDecoder) Name() string {
	return d.name
}

// Decode converts b to a string. Bytes the encoding cannot map are kept as they are.
func (d *TextDecoder) Decode(b []byte) string {
	enc := d.enc
	if enc == nil {
		if d.name != EncodingAuto || utf8.Valid(b) {
			return string(b)
		}
		enc = charmap.Windows1252
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
