package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stnderror/firefly/internal/config"
	"github.com/stnderror/firefly/internal/renamer"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	config.SetupLogger(cfg, os.Stderr)

	if err := newCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	dir      string
	start    int
	reverse  bool
	dryRun   bool
	convert  bool
	progress bool
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "rename-frames",
		Short:         "Rename all image files in a folder to frame_####.png format",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(stdout, stderr, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "d", ".", "Directory containing images")
	flags.IntVarP(&opts.start, "start", "s", 0, "Starting number for frame index")
	flags.BoolVarP(&opts.reverse, "reverse", "r", false, "Reverse the file order before renaming")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the planned renames without touching any file")
	flags.BoolVar(&opts.convert, "convert", false, "Re-encode non-PNG images as PNG instead of only renaming them")
	flags.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func run(stdout, stderr io.Writer, opts options) error {
	ropts := renamer.Options{
		Start:   opts.start,
		Reverse: opts.reverse,
		Convert: opts.convert,
	}
	if opts.progress {
		ropts.Progress = stderr
	}

	if opts.dryRun {
		plan, err := renamer.Plan(opts.dir, ropts)
		if err != nil {
			return err
		}
		for _, m := range plan {
			fmt.Fprintf(stdout, "%s -> %s\n", m.From, m.To)
		}
		fmt.Fprintf(stdout, "Would rename %d files in '%s'.\n", len(plan), opts.dir)
		return nil
	}

	res, err := renamer.Rename(opts.dir, ropts)
	if err != nil {
		return err
	}

	suffix := ""
	if res.Reverse {
		suffix = " in reverse order"
	}
	fmt.Fprintf(stdout, "Renamed %d files in '%s' starting from %d%s.\n", res.Count(), res.Dir, res.Start, suffix)
	return nil
}
