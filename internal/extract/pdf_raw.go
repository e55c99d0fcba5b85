// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/ledongthuc/pdf"
)

// encodedSignature checks that undecoded stream bytes are a complete image
// file of the given extension.
var encodedSignature = map[string]func([]byte) bool{
	"jpg": func(b []byte) bool { return bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}) },
	"jp2": func(b []byte) bool {
		return bytes.HasPrefix(b, []byte("\x00\x00\x00\x0cjP  \r\n\x87\n")) ||
			bytes.HasPrefix(b, []byte{0xff, 0x4f, 0xff, 0x51})
	},
}

// streamOffset matches the data offset the parser prints after a stream
// header, e.g. "<</Length 3>>@412".
var streamOffset = regexp.MustCompile(`@(\d+)$`)

// rawStream returns the undecoded bytes of the image stream x, named name
// in the xobjects dictionary. The parser only exposes decoded streams, so
// the bytes are read from the file: first at the offset the parser reports
// for the stream, then by locating the object by number. Candidates that
// fail valid are rejected, which also covers encrypted files.
func (p *pdfSource) rawStream(x, xobjects pdf.Value, name string, valid func([]byte) bool) ([]byte, error) {
	length := x.Key("Length").Int64()
	if length <= 0 || length > p.size {
		return nil, fmt.Errorf("invalid stream length %d", length)
	}

	if m := streamOffset.FindStringSubmatch(x.String()); m != nil {
		off, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil && off >= 0 && off+length <= p.size {
			buf := make([]byte, length)
			if _, err := p.f.ReadAt(buf, off); err == nil && valid(buf) {
				return buf, nil
			}
		}
	}

	data, err := p.streamByReference(xobjects, name, length)
	if err != nil {
		return nil, err
	}
	if !valid(data) {
		return nil, errors.New("stream bytes do not match the image encoding")
	}
	return data, nil
}

// streamByReference finds the object that xobjects maps name to and returns
// length bytes following its stream keyword. The last definition wins, as
// with incremental updates.
func (p *pdfSource) streamByReference(xobjects pdf.Value, name string, length int64) ([]byte, error) {
	ref := regexp.MustCompile(`/` + regexp.QuoteMeta(name) + `\s+(\d+)\s+(\d+)\s+R`).FindStringSubmatch(xobjects.String())
	if ref == nil {
		return nil, fmt.Errorf("no object reference for %s", name)
	}

	if p.raw == nil {
		raw, err := io.ReadAll(io.NewSectionReader(p.f, 0, p.size))
		if err != nil {
			return nil, err
		}
		p.raw = raw
	}

	header := regexp.MustCompile(`(?:^|\s)` + ref[1] + `\s+` + ref[2] + `\s+obj\b`)
	locs := header.FindAllIndex(p.raw, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("object %s %s not found", ref[1], ref[2])
	}
	rest := p.raw[locs[len(locs)-1][1]:]

	i := bytes.Index(rest, []byte("stream"))
	if i < 0 {
		return nil, fmt.Errorf("object %s %s has no stream", ref[1], ref[2])
	}
	rest = rest[i+len("stream"):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		rest = rest[2:]
	case bytes.HasPrefix(rest, []byte("\n")), bytes.HasPrefix(rest, []byte("\r")):
		rest = rest[1:]
	}
	if int64(len(rest)) < length {
		return nil, fmt.Errorf("object %s %s: stream truncated", ref[1], ref[2])
	}
	return append([]byte(nil), rest[:length]...), nil
}
