package record

import (
	"encoding/binary"
	"fmt"
)

// Window is an exact byte range inside a buffer that a patch rewrites.
type Window struct {
	Offset int
	Size   int
}

// PositionWindow covers the x and y fields of the record at c.
func PositionWindow(c Candidate) Window {
	return Window{Offset: c.Offset, Size: 8}
}

func (w Window) String() string {
	return fmt.Sprintf("%d bytes @ %#x", w.Size, w.Offset)
}

func (w Window) check(buf []byte) error {
	if w.Offset < 0 || w.Size < 0 || w.Offset+w.Size > len(buf) {
		return fmt.Errorf("%w: %s, buffer is %d bytes", ErrShortWindow, w, len(buf))
	}
	return nil
}

// Read returns a copy of the window's bytes.
func (w Window) Read(buf []byte) ([]byte, error) {
	if err := w.check(buf); err != nil {
		return nil, err
	}
	out := make([]byte, w.Size)
	copy(out, buf[w.Offset:])
	return out, nil
}

// Write replaces the window's bytes with data, which must be exactly
// w.Size long. Nothing is written on error.
func (w Window) Write(buf, data []byte) error {
	if err := w.check(buf); err != nil {
		return err
	}
	if len(data) != w.Size {
		return fmt.Errorf("%w: %d bytes for %s", ErrInvalidArgument, len(data), w)
	}
	copy(buf[w.Offset:], data)
	return nil
}

// Select returns cands[index] or ErrIndexOutOfRange.
func Select(cands []Candidate, index int) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, ErrNoCandidates
	}
	if index < 0 || index >= len(cands) {
		return Candidate{}, fmt.Errorf("%w: index %d not in 0-%d", ErrIndexOutOfRange, index, len(cands)-1)
	}
	return cands[index], nil
}

// Patch overwrites x and y of the selected candidate in buf and returns
// the record as it now reads.
func Patch(buf []byte, cands []Candidate, index int, x, y int32) (Candidate, error) {
	c, err := Select(cands, index)
	if err != nil {
		return Candidate{}, err
	}
	var xy [8]byte
	binary.LittleEndian.PutUint32(xy[0:], uint32(x))
	binary.LittleEndian.PutUint32(xy[4:], uint32(y))
	if err := PositionWindow(c).Write(buf, xy[:]); err != nil {
		return Candidate{}, err
	}
	after, ok := Decode(buf, c.Offset)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: record at %#x", ErrShortWindow, c.Offset)
	}
	return after, nil
}
