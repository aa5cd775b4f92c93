package record

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints scan and patch progress for a human.
type Reporter struct {
	Out  io.Writer
	Name string

	head *color.Color
	ok   *color.Color
	warn *color.Color
	dim  *color.Color
}

func NewReporter(out io.Writer, name string) *Reporter {
	return &Reporter{
		Out:  out,
		Name: name,
		head: color.New(color.FgCyan, color.Bold),
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		dim:  color.New(color.FgHiBlack),
	}
}

// Line formats one candidate the way every listing shows it.
func Line(i int, c Candidate) string {
	return fmt.Sprintf("  [%d] %s", i, c)
}

func (r *Reporter) lines(cands []Candidate) {
	for i, c := range cands {
		fmt.Fprintln(r.Out, Line(i, c))
	}
}

// List prints the candidates in scan order.
func (r *Reporter) List(path string, cands []Candidate) {
	r.head.Fprintf(r.Out, "\n%s positions in '%s':\n", r.Name, path)
	r.lines(cands)
}

// Found prints the candidates ahead of a modification.
func (r *Reporter) Found(path string, cands []Candidate) {
	r.head.Fprintf(r.Out, "\nFound %d %s position(s) in '%s':\n", len(cands), r.Name, path)
	r.lines(cands)
}

func (r *Reporter) NotFound(path string) {
	r.warn.Fprintf(r.Out, "No %s found in '%s'\n", r.Name, path)
}

func (r *Reporter) Selected(index int, c Candidate, x, y int32) {
	r.head.Fprintf(r.Out, "\nModifying position [%d] at offset %#x\n", index, c.Offset)
	fmt.Fprintf(r.Out, "  Old position: X=%d, Y=%d\n", c.X, c.Y)
	fmt.Fprintf(r.Out, "  New position: X=%d, Y=%d\n", x, y)
}

func (r *Reporter) Backup(path string) {
	r.dim.Fprintf(r.Out, "  Backup created: %s\n", path)
}

func (r *Reporter) RemoteBackup(location string) {
	r.dim.Fprintf(r.Out, "  Remote backup: %s\n", location)
}

func (r *Reporter) Success(path string) {
	r.ok.Fprintf(r.Out, "\n✓ Successfully modified '%s'\n", path)
}

func (r *Reporter) Verified(res *Result) {
	v := res.Verified
	line := fmt.Sprintf("  Verified: X=%d, Y=%d, W=%d, H=%d\n", v.X, v.Y, v.Width, v.Height)
	if res.Match() {
		fmt.Fprint(r.Out, line)
		return
	}
	r.warn.Fprint(r.Out, line)
	r.warn.Fprintf(r.Out, "  Warning: expected X=%d, Y=%d on disk\n", res.After.X, res.After.Y)
}
