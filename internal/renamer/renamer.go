// Package renamer turns a directory of images into the canonical frame sequence.
//
// Files are moved in two phases: first into a hidden staging namespace that cannot
// collide with any final name, then from staging to frame_NNNN.png. A single pass
// could overwrite a source that has not been moved yet whenever a source already
// carries a canonical name.
//
// Concurrent runs against the same directory are not supported and no lock is taken.
package renamer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/stnderror/firefly/internal/frames"
)

const stagingPrefix = ".__temp__"

// Swapped in tests to simulate failures between the phases.
var renameFunc = os.Rename

var ErrNegativeStart = errors.New("start index must not be negative")

// ConflictError reports a rename target that already exists and was not created by this run.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("refusing to overwrite %q", e.Path)
}

func (e *ConflictError) Unwrap() error { return os.ErrExist }

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

type Options struct {
	Start   int
	Reverse bool
	// Convert re-encodes non-PNG sources as PNG instead of only renaming them.
	Convert bool
	// Progress receives a progress bar for the final pass when set.
	Progress io.Writer
}

// Frame is a recognized image file found by Scan.
type Frame struct {
	Name     string
	Ext      string
	Position int
}

type Mapping struct {
	From string
	To   string
}

type Result struct {
	Dir     string
	Start   int
	Reverse bool
	Renamed []Mapping
}

func (r Result) Count() int {
	return len(r.Renamed)
}

// Scan lists the recognized image files in dir sorted by name. Staging leftovers and
// directories are never reported.
func Scan(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isStaging(e.Name()) || !frames.IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	res := make([]Frame, len(names))
	for i, name := range names {
		res[i] = Frame{Name: name, Ext: strings.ToLower(filepath.Ext(name)), Position: i}
	}
	return res, nil
}

// Plan returns the mapping Rename would apply without touching the filesystem.
func Plan(dir string, opts Options) ([]Mapping, error) {
	if opts.Start < 0 {
		return nil, ErrNegativeStart
	}
	if err := checkNoStaging(dir); err != nil {
		return nil, err
	}
	found, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	ordered(found, opts.Reverse)

	plan := make([]Mapping, len(found))
	for i, f := range found {
		plan[i] = Mapping{From: f.Name, To: frames.Name(opts.Start + i)}
	}
	return plan, nil
}

func Rename(dir string, opts Options) (Result, error) {
	res := Result{Dir: dir, Start: opts.Start, Reverse: opts.Reverse}
	if opts.Start < 0 {
		return res, ErrNegativeStart
	}

	if err := checkNoStaging(dir); err != nil {
		return res, err
	}

	found, err := Scan(dir)
	if err != nil {
		return res, err
	}
	ordered(found, opts.Reverse)

	origins := make(map[int]string, len(found))
	for i, f := range found {
		tmp := stagingName(i, f.Ext)
		if err := move(dir, f.Name, tmp); err != nil {
			return res, err
		}
		origins[i] = f.Name
		log.WithFields(log.Fields{"phase": 1, "from": f.Name, "to": tmp}).Debug("Staged frame.")
	}

	staged, err := scanStaging(dir)
	if err != nil {
		return res, err
	}

	bar := newBar(opts.Progress, len(staged))
	for rank, s := range staged {
		final := frames.Name(opts.Start + rank)
		if opts.Convert && s.ext != frames.Ext {
			err = convert(dir, s.name, final)
		} else {
			err = move(dir, s.name, final)
		}
		if err != nil {
			return res, err
		}
		res.Renamed = append(res.Renamed, Mapping{From: origins[s.position], To: final})
		log.WithFields(log.Fields{"phase": 2, "from": s.name, "to": final}).Debug("Renamed frame.")
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return res, nil
}

func ordered(found []Frame, reverse bool) {
	if !reverse {
		return
	}
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
}

type staged struct {
	name     string
	ext      string
	position int
}

func stagingName(position int, ext string) string {
	return stagingPrefix + strconv.Itoa(position) + ext
}

func isStaging(name string) bool {
	_, _, ok := parseStaging(name)
	return ok
}

// parseStaging splits ".__temp__12.jpg" into 12 and ".jpg".
func parseStaging(name string) (int, string, bool) {
	rest, ok := strings.CutPrefix(name, stagingPrefix)
	if !ok {
		return 0, "", false
	}
	digits, ext := rest, ""
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		digits, ext = rest[:i], rest[i:]
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || strconv.Itoa(n) != digits {
		return 0, "", false
	}
	return n, ext, true
}

func scanStaging(dir string) ([]staged, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	res := []staged{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ext, ok := parseStaging(e.Name())
		if !ok {
			continue
		}
		res = append(res, staged{name: e.Name(), ext: ext, position: n})
	}

	// Listing order is filesystem dependent; the embedded position restores the phase 1 order.
	sort.Slice(res, func(i, j int) bool { return res[i].position < res[j].position })
	return res, nil
}

func checkNoStaging(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if isStaging(e.Name()) {
			return &ConflictError{Path: filepath.Join(dir, e.Name())}
		}
	}
	return nil
}

// move renames within dir and never replaces an existing entry.
func move(dir, from, to string) error {
	dst := filepath.Join(dir, to)
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	if err := renameFunc(filepath.Join(dir, from), dst); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}
	return nil
}

func convert(dir, from, to string) error {
	src := filepath.Join(dir, from)
	dst := filepath.Join(dir, to)
	if err := ensureAbsent(dst); err != nil {
		return err
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("decode %s: %w", from, err)
	}
	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("encode %s: %w", to, err)
	}
	return os.Remove(src)
}

func ensureAbsent(path string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return &ConflictError{Path: path}
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Renaming frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
