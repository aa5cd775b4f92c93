package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

const (
	// RecordSize is x, y, width and height as little endian int32.
	RecordSize = 16

	DefaultHeaderSkip    = 0x200
	DefaultTailGuard     = 100
	DefaultStride        = 4
	DefaultContextBefore = 200
	DefaultContextAfter  = 1000

	labelPrefix    = "Button"
	labelPrefixLen = 6
)

// Bounds are the inclusive ranges a record must fall in to be
// considered a button position.
type Bounds struct {
	MinX, MaxX int32
	MinY, MaxY int32
	MinW, MaxW int32
	MinH, MaxH int32
}

func DefaultBounds() Bounds {
	return Bounds{
		MinX: 0, MaxX: 2000,
		MinY: -200, MaxY: 2000,
		MinW: 20, MaxW: 200,
		MinH: 20, MaxH: 200,
	}
}

func (b Bounds) Contains(c Candidate) bool {
	return c.X >= b.MinX && c.X <= b.MaxX &&
		c.Y >= b.MinY && c.Y <= b.MaxY &&
		c.Width >= b.MinW && c.Width <= b.MaxW &&
		c.Height >= b.MinH && c.Height <= b.MaxH
}

type Candidate struct {
	Offset int
	X      int32
	Y      int32
	Width  int32
	Height int32
}

func (c Candidate) String() string {
	return fmt.Sprintf("Offset %#x: X=%d, Y=%d, W=%d, H=%d", c.Offset, c.X, c.Y, c.Width, c.Height)
}

// Decode reads the record at off. It returns false when fewer than
// RecordSize bytes remain.
func Decode(buf []byte, off int) (Candidate, bool) {
	if off < 0 || off > len(buf)-RecordSize {
		return Candidate{}, false
	}
	le := binary.LittleEndian
	return Candidate{
		Offset: off,
		X:      int32(le.Uint32(buf[off:])),
		Y:      int32(le.Uint32(buf[off+4:])),
		Width:  int32(le.Uint32(buf[off+8:])),
		Height: int32(le.Uint32(buf[off+12:])),
	}, true
}

// DeriveLabel swaps the first six runes of name for "Button".
// "ButtonDot" maps to itself, "MenuXXDot" maps to "ButtonDot".
func DeriveLabel(name string) string {
	r := []rune(name)
	if len(r) <= labelPrefixLen {
		return labelPrefix
	}
	return labelPrefix + string(r[labelPrefixLen:])
}

// EncodeLabel returns s as UTF-16LE without a byte order mark.
func EncodeLabel(s string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding label %q: %w", s, err)
	}
	return b, nil
}

type Scanner struct {
	Name   string
	Label  []byte
	Bounds Bounds

	HeaderSkip    int
	TailGuard     int
	Stride        int
	ContextBefore int
	ContextAfter  int
}

// NewScanner builds a scanner for the label derived from name.
func NewScanner(name string, b Bounds) (*Scanner, error) {
	label, err := EncodeLabel(DeriveLabel(name))
	if err != nil {
		return nil, err
	}
	return &Scanner{
		Name:          name,
		Label:         label,
		Bounds:        b,
		HeaderSkip:    DefaultHeaderSkip,
		TailGuard:     DefaultTailGuard,
		Stride:        DefaultStride,
		ContextBefore: DefaultContextBefore,
		ContextAfter:  DefaultContextAfter,
	}, nil
}

// Scan walks buf and returns every plausible record with the label
// nearby, in ascending offset order. Neighbouring offsets that match
// the same record are all returned.
func (s *Scanner) Scan(buf []byte) []Candidate {
	var out []Candidate
	stride := s.Stride
	if stride <= 0 {
		stride = DefaultStride
	}
	end := len(buf) - s.TailGuard
	for off := s.HeaderSkip; off < end; off += stride {
		c, ok := Decode(buf, off)
		if !ok || !s.Bounds.Contains(c) {
			continue
		}
		if s.labelNear(buf, off) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Scanner) labelNear(buf []byte, off int) bool {
	if len(s.Label) == 0 {
		return false
	}
	start := max(0, off-s.ContextBefore)
	stop := min(len(buf), off+s.ContextAfter)
	if start >= stop {
		return false
	}
	return bytes.Contains(buf[start:stop], s.Label)
}
