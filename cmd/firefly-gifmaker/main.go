package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stnderror/firefly/internal/config"
	"github.com/stnderror/firefly/internal/encoder"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	config.SetupLogger(cfg, os.Stderr)

	enc := encoder.New(cfg.FFmpegPath)
	if err := newCommand(os.Stdout, os.Stderr, enc).Execute(); err != nil {
		var pe *encoder.ProcessError
		if errors.As(err, &pe) {
			log.WithError(pe.Err).WithField("not_found", pe.NotFound()).Error("ffmpeg failed.")
		} else {
			log.Error(err)
		}
		os.Exit(1)
	}
}

type options struct {
	output string
	dir    string
	fps    int
}

func newCommand(stdout, stderr io.Writer, enc *encoder.Encoder) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "firefly-gifmaker",
		Short:         "Convert frame_####.png files into a GIF or MP4 video using ffmpeg",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(stdout, enc, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output file name (e.g., output.mp4 or output.gif)")
	flags.StringVarP(&opts.dir, "dir", "d", ".", "Directory containing frames")
	flags.IntVarP(&opts.fps, "fps", "f", encoder.DefaultFPS, "Frame rate")
	_ = cmd.MarkFlagRequired("output")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func run(stdout io.Writer, enc *encoder.Encoder, opts options) error {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return err
	}
	job := encoder.Job{Dir: dir, Output: opts.output, FPS: opts.fps}

	if err := job.Validate(); err != nil {
		return err
	}
	format, _ := job.Format()

	fmt.Fprintf(stdout, "Creating %s at %d fps: %s\n", strings.ToUpper(format.String()), job.FPS, job.Output)
	if err := enc.Run(job); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Done: %s\n", job.Output)
	return nil
}
