package record

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBuffer returns size bytes of fill with the label at labelAt and
// each record at its offset.
func buildBuffer(t *testing.T, size int, fill byte, labelAt int, recs ...Candidate) []byte {
	t.Helper()
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = fill
	}
	if labelAt >= 0 {
		label, err := EncodeLabel("ButtonDot")
		require.NoError(t, err)
		copy(buf[labelAt:], label)
	}
	for _, r := range recs {
		putRecord(buf, r)
	}
	return buf
}

func putRecord(buf []byte, c Candidate) {
	le := binary.LittleEndian
	le.PutUint32(buf[c.Offset:], uint32(c.X))
	le.PutUint32(buf[c.Offset+4:], uint32(c.Y))
	le.PutUint32(buf[c.Offset+8:], uint32(c.Width))
	le.PutUint32(buf[c.Offset+12:], uint32(c.Height))
}

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := NewScanner("ButtonDot", DefaultBounds())
	require.NoError(t, err)
	return s
}

func TestEncodeLabel(t *testing.T) {
	b, err := EncodeLabel("ButtonDot")
	require.NoError(t, err)
	assert.Equal(t, []byte("B\x00u\x00t\x00t\x00o\x00n\x00D\x00o\x00t\x00"), b)
}

func TestDeriveLabel(t *testing.T) {
	tests := map[string]string{
		"ButtonDot":   "ButtonDot",
		"MenuXXClose": "ButtonClose",
		"Dot":         "Button",
		"":            "Button",
		"ButtonÄrger": "ButtonÄrger",
	}
	for in, want := range tests {
		assert.Equal(t, want, DeriveLabel(in), in)
	}
}

func TestBoundsContains(t *testing.T) {
	b := DefaultBounds()
	assert.True(t, b.Contains(Candidate{X: 0, Y: -200, Width: 20, Height: 20}))
	assert.True(t, b.Contains(Candidate{X: 2000, Y: 2000, Width: 200, Height: 200}))
	assert.False(t, b.Contains(Candidate{X: -1, Y: 0, Width: 60, Height: 60}))
	assert.False(t, b.Contains(Candidate{X: 0, Y: -201, Width: 60, Height: 60}))
	assert.False(t, b.Contains(Candidate{X: 0, Y: 0, Width: 19, Height: 60}))
	assert.False(t, b.Contains(Candidate{X: 0, Y: 0, Width: 60, Height: 201}))
}

func TestDecode(t *testing.T) {
	buf := make([]byte, 32)
	putRecord(buf, Candidate{Offset: 8, X: -5, Y: 7, Width: 60, Height: 61})

	c, ok := Decode(buf, 8)
	require.True(t, ok)
	assert.Equal(t, Candidate{Offset: 8, X: -5, Y: 7, Width: 60, Height: 61}, c)

	_, ok = Decode(buf, 17)
	assert.False(t, ok)
	_, ok = Decode(buf, -1)
	assert.False(t, ok)
	_, ok = Decode(nil, 0)
	assert.False(t, ok)
}

func TestScanFindsEmbeddedRecord(t *testing.T) {
	want := Candidate{Offset: 720, X: 100, Y: 50, Width: 60, Height: 60}
	buf := buildBuffer(t, 2048, 0xff, 600, want)

	got := newTestScanner(t).Scan(buf)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestScanSkipsHeader(t *testing.T) {
	buf := buildBuffer(t, 2048, 0xff, 300, Candidate{Offset: 420, X: 100, Y: 50, Width: 60, Height: 60})
	assert.Empty(t, newTestScanner(t).Scan(buf))

	s := newTestScanner(t)
	s.HeaderSkip = 0
	got := s.Scan(buf)
	require.Len(t, got, 1)
	assert.Equal(t, 420, got[0].Offset)
}

func TestScanKeepsOverlappingMatches(t *testing.T) {
	// Zero filler lets the words ahead of the record line up into
	// plausible records of their own.
	buf := buildBuffer(t, 2048, 0x00, 600, Candidate{Offset: 720, X: 100, Y: 50, Width: 60, Height: 60})

	got := newTestScanner(t).Scan(buf)
	require.Len(t, got, 3)
	assert.Equal(t, Candidate{Offset: 712, X: 0, Y: 0, Width: 100, Height: 50}, got[0])
	assert.Equal(t, Candidate{Offset: 716, X: 0, Y: 100, Width: 50, Height: 60}, got[1])
	assert.Equal(t, Candidate{Offset: 720, X: 100, Y: 50, Width: 60, Height: 60}, got[2])
}

func TestScanLabelOutsideContext(t *testing.T) {
	rec := Candidate{Offset: 1600, X: 100, Y: 50, Width: 60, Height: 60}

	// label ends more than ContextBefore bytes ahead of the record
	buf := buildBuffer(t, 4096, 0xff, 1200, rec)
	assert.Empty(t, newTestScanner(t).Scan(buf))

	// label starts too far after the record
	buf = buildBuffer(t, 4096, 0xff, 2600, rec)
	assert.Empty(t, newTestScanner(t).Scan(buf))

	// label after the record, inside the window
	buf = buildBuffer(t, 4096, 0xff, 2400, rec)
	got := newTestScanner(t).Scan(buf)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestScanWithoutLabel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 20; n++ {
		buf := make([]byte, 1024+rng.Intn(8192))
		rng.Read(buf)
		for i := 0; i < 30; i++ {
			off := (512 + rng.Intn(len(buf)-640)) &^ 3
			putRecord(buf, Candidate{
				Offset: off,
				X:      int32(rng.Intn(2001)),
				Y:      int32(rng.Intn(2201) - 200),
				Width:  int32(20 + rng.Intn(181)),
				Height: int32(20 + rng.Intn(181)),
			})
		}
		assert.Empty(t, newTestScanner(t).Scan(buf))
	}
}

func TestScanRandomPlacements(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 50; n++ {
		labelAt := 520 + rng.Intn(2000)
		want := Candidate{
			Offset: (labelAt + 40 + rng.Intn(160)) &^ 3,
			X:      int32(rng.Intn(2001)),
			Y:      int32(rng.Intn(2201) - 200),
			Width:  int32(20 + rng.Intn(181)),
			Height: int32(20 + rng.Intn(181)),
		}
		buf := buildBuffer(t, 4096, 0xff, labelAt, want)

		got := newTestScanner(t).Scan(buf)
		assert.Contains(t, got, want)
	}
}

func TestScanShortBuffers(t *testing.T) {
	s := newTestScanner(t)
	assert.Empty(t, s.Scan(nil))
	assert.Empty(t, s.Scan([]byte{}))
	assert.Empty(t, s.Scan(make([]byte, 600)))
}

func TestScanCustomBounds(t *testing.T) {
	rec := Candidate{Offset: 720, X: 3000, Y: 50, Width: 60, Height: 60}
	buf := buildBuffer(t, 2048, 0xff, 600, rec)
	assert.Empty(t, newTestScanner(t).Scan(buf))

	b := DefaultBounds()
	b.MaxX = 4000
	s, err := NewScanner("ButtonDot", b)
	require.NoError(t, err)
	assert.Equal(t, []Candidate{rec}, s.Scan(buf))
}

func TestCandidateString(t *testing.T) {
	c := Candidate{Offset: 0x1a4, X: 100, Y: -5, Width: 60, Height: 61}
	assert.Equal(t, "Offset 0x1a4: X=100, Y=-5, W=60, H=61", c.String())
	assert.Equal(t, "  [2] Offset 0x1a4: X=100, Y=-5, W=60, H=61", Line(2, c))
}
