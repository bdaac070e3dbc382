package encoder

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/stnderror/firefly/internal/frames"
)

const (
	DefaultFPS = 10
	gifWidth   = 640
)

var (
	ErrUnsupportedFormat = errors.New("output must end with .gif or .mp4")
	ErrMissingFirstFrame = errors.New("first frame not found")
	ErrInvalidFPS        = errors.New("fps must be a positive integer")
)

type Format int

const (
	FormatGIF Format = iota + 1
	FormatMP4
)

func (f Format) String() string {
	switch f {
	case FormatGIF:
		return "gif"
	case FormatMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

type FormatError struct {
	Output string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%q: %v", e.Output, ErrUnsupportedFormat)
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

type MissingFrameError struct {
	Path string
}

func (e *MissingFrameError) Error() string {
	return fmt.Sprintf("cannot find %s; frames must be named %s", e.Path, frames.Pattern)
}

func (e *MissingFrameError) Unwrap() error { return ErrMissingFirstFrame }

// ProcessError wraps any failure of the external encoder, whether it could not be
// started or exited with a non-zero status.
type ProcessError struct {
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// NotFound reports whether the encoder binary could not be located.
func (e *ProcessError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound) || errors.Is(e.Err, fs.ErrNotExist)
}

// FormatFromPath derives the output format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return FormatGIF, nil
	case ".mp4":
		return FormatMP4, nil
	default:
		return 0, &FormatError{Output: path}
	}
}

type Job struct {
	Dir    string
	Output string
	FPS    int
}

func (j Job) Format() (Format, error) {
	return FormatFromPath(j.Output)
}

func (j Job) InputPattern() string {
	return filepath.Join(j.Dir, frames.Pattern)
}

// Validate checks everything that can be checked before ffmpeg is started.
func (j Job) Validate() error {
	if _, err := j.Format(); err != nil {
		return err
	}
	if j.FPS <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, j.FPS)
	}
	first := filepath.Join(j.Dir, frames.First)
	if _, err := os.Stat(first); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingFrameError{Path: first}
		}
		return err
	}
	return nil
}

type Encoder struct {
	FFmpegPath string
	Stdout     io.Writer
	Stderr     io.Writer

	// run executes the stream; replaced in tests.
	run func(*ffmpeg.Stream) error
}

func New(ffmpegPath string) *Encoder {
	return &Encoder{
		FFmpegPath: ffmpegPath,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		run: func(s *ffmpeg.Stream) error {
			return s.Run()
		},
	}
}

// Stream builds the ffmpeg invocation for job. The job must be valid.
func (e *Encoder) Stream(job Job) (*ffmpeg.Stream, error) {
	format, err := job.Format()
	if err != nil {
		return nil, err
	}

	var out ffmpeg.KwArgs
	switch format {
	case FormatGIF:
		out = ffmpeg.KwArgs{"vf": fmt.Sprintf("scale=%d:-1:flags=lanczos", gifWidth)}
	case FormatMP4:
		out = ffmpeg.KwArgs{"c:v": "libx264", "pix_fmt": "yuv420p"}
	}

	s := ffmpeg.Input(job.InputPattern(), ffmpeg.KwArgs{"framerate": job.FPS}).
		Output(job.Output, out).
		OverWriteOutput().
		Silent(true).
		WithOutput(e.Stdout, e.Stderr)
	if e.FFmpegPath != "" {
		s = s.SetFfmpegPath(e.FFmpegPath)
	}
	return s, nil
}

// Encode validates job and runs ffmpeg synchronously until it exits.
func (e *Encoder) Encode(job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	return e.Run(job)
}

// Run starts ffmpeg for a job the caller has already validated and waits for it to exit.
func (e *Encoder) Run(job Job) error {
	s, err := e.Stream(job)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"input":  job.InputPattern(),
		"output": job.Output,
		"args":   strings.Join(s.GetArgs(), " "),
	}).Debug("Running ffmpeg.")

	if err := e.run(s); err != nil {
		return &ProcessError{Err: err}
	}
	return nil
}
