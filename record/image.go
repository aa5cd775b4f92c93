package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultBackupSuffix = ".data.bak"

// Image is a resource file held entirely in memory.
type Image struct {
	Path string
	// Target is Path with symlinks resolved; writes go here.
	Target  string
	Data    []byte
	Mode    fs.FileMode
	ModTime time.Time
}

func Load(path string) (*Image, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: '%s'", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is a directory", ErrFileNotFound, path)
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Image{
		Path:    path,
		Target:  target,
		Data:    data,
		Mode:    st.Mode().Perm(),
		ModTime: st.ModTime(),
	}, nil
}

// BackupPath replaces the last extension of path with suffix, so
// "MirrorAndroid.data" becomes "MirrorAndroid.data.bak".
func BackupPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	dir, base := filepath.Split(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(dir, base+suffix)
}

// WriteBackup stores the current buffer next to the original, keeping
// its mode and modification time.
func (im *Image) WriteBackup(suffix string) (string, error) {
	bp := BackupPath(im.Path, suffix)
	if err := os.WriteFile(bp, im.Data, im.Mode); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", bp, err)
	}
	if err := os.Chmod(bp, im.Mode); err != nil {
		return "", fmt.Errorf("chmod backup %s: %w", bp, err)
	}
	if !im.ModTime.IsZero() {
		if err := os.Chtimes(bp, im.ModTime, im.ModTime); err != nil {
			return "", fmt.Errorf("chtimes backup %s: %w", bp, err)
		}
	}
	return bp, nil
}

// Save rewrites the whole file. With atomic set the data goes to a
// temporary sibling of the resolved target that is renamed over it, so
// a symlinked resource is updated through its link.
func (im *Image) Save(atomic bool) error {
	target := im.Target
	if target == "" {
		target = im.Path
	}
	if !atomic {
		if err := os.WriteFile(target, im.Data, im.Mode); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		return nil
	}
	if err := replaceFile(target, im.Data, im.Mode); err != nil {
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	return nil
}

// Verify reads the file back from disk and decodes the record at off.
func (im *Image) Verify(off int) (Candidate, error) {
	data, err := os.ReadFile(im.Path)
	if err != nil {
		return Candidate{}, fmt.Errorf("re-reading %s: %w", im.Path, err)
	}
	c, ok := Decode(data, off)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: record at %#x, file is %d bytes", ErrShortWindow, off, len(data))
	}
	return c, nil
}

type Options struct {
	Index        int
	X, Y         int32
	Backup       bool
	BackupSuffix string
	Atomic       bool
	Log          logrus.FieldLogger
}

type Result struct {
	Before     Candidate
	After      Candidate
	Verified   Candidate
	BackupPath string
}

// Match reports whether the record on disk carries the requested values.
func (r *Result) Match() bool {
	return r.Verified == r.After
}

// Modify backs up, patches, saves and re-reads the selected candidate.
// The index is checked before anything is written.
func (im *Image) Modify(cands []Candidate, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	before, err := Select(cands, opts.Index)
	if err != nil {
		return nil, err
	}
	res := &Result{Before: before}

	if opts.Backup {
		res.BackupPath, err = im.WriteBackup(opts.BackupSuffix)
		if err != nil {
			return nil, err
		}
		log.WithField("path", res.BackupPath).Debug("backup written")
	}

	res.After, err = Patch(im.Data, cands, opts.Index, opts.X, opts.Y)
	if err != nil {
		return res, err
	}
	log.WithFields(logrus.Fields{
		"window": PositionWindow(before).String(),
		"x":      opts.X,
		"y":      opts.Y,
	}).Debug("patched buffer")

	if err = im.Save(opts.Atomic); err != nil {
		return res, err
	}
	log.WithFields(logrus.Fields{"path": im.Target, "atomic": opts.Atomic}).Debug("file rewritten")

	res.Verified, err = im.Verify(before.Offset)
	if err != nil {
		return res, err
	}
	return res, nil
}
