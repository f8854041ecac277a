// Package encoding normalises uploaded text files to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO885915   = "ISO-8859-15"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decoders maps chardet charset names to the decoder used for them.
// Spreadsheet exports from Excel on Windows are the common non-UTF-8 case.
var decoders = map[string]struct {
	name string
	enc  encoding.Encoding
}{
	"ISO-8859-1":   {Windows1252, charmap.Windows1252},
	"windows-1252": {Windows1252, charmap.Windows1252},
	"ISO-8859-15":  {ISO885915, charmap.ISO8859_15},
	"UTF-16LE":     {UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"UTF-16BE":     {UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

// Reader yields the UTF-8 decoded content of an upload and remembers which
// charset it was decoded from.
type Reader struct {
	io.Reader
	Charset string
}

// NewReader detects the charset of r and returns a reader producing UTF-8.
//
// A byte order mark wins. Otherwise content that is already valid UTF-8 is
// passed through, chardet is consulted, and windows-1252 is the fallback.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return &Reader{Reader: br, Charset: UTF8}, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decode(br, UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decode(br, UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), nil
	}

	if validUTF8Prefix(buf) {
		return &Reader{Reader: br, Charset: UTF8}, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == UTF8 {
			return &Reader{Reader: br, Charset: UTF8}, nil
		}

		if d, ok := decoders[result.Charset]; ok {
			return decode(br, d.name, d.enc), nil
		}
	}

	return decode(br, Windows1252, charmap.Windows1252), nil
}

func decode(r io.Reader, name string, enc encoding.Encoding) *Reader {
	return &Reader{Reader: transform.NewReader(r, enc.NewDecoder()), Charset: name}
}

// validUTF8Prefix is utf8.Valid that tolerates a rune cut off by the sniff window.
func validUTF8Prefix(buf []byte) bool {
	if utf8.Valid(buf) {
		return true
	}

	if len(buf) < sniffLen {
		return false
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(buf); cut++ {
		if utf8.Valid(buf[:len(buf)-cut]) {
			return true
		}
	}

	return false
}
