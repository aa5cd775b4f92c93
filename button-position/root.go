package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zveinn/buttonpatch/config"
	"github.com/zveinn/buttonpatch/record"
	"github.com/zveinn/buttonpatch/remote"
)

const usageText = `Usage:
  button-position <filename> <new_x> <new_y> [--index INDEX] [--no-backup]
  button-position <filename> --list

Examples:
  button-position MirrorAndroid.data 100 100
  button-position AndroidAuto.data 500 200 --index 0
  button-position MirrorAndroid.data --list
`

type options struct {
	list         bool
	indexArg     string
	noBackup     bool
	label        string
	configPath   string
	inPlace      bool
	remoteBackup bool
	envFile      string
	verbose      bool
	noColor      bool
}

// newUploader is swapped out in tests.
var newUploader = func(cfg config.Remote) (remote.Uploader, error) {
	return remote.New(cfg)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "button-position <filename> <new_x> <new_y>",
		Short: "Move the ButtonDot overlay button inside an Android .data resource",
		Long: `button-position finds the ButtonDot coordinate record in an opaque .data
resource file and rewrites its X and Y fields in place.

Candidates are records of four little endian int32 (x, y, width, height)
that fall inside the configured bounds and sit near the UTF-16 label.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return record.ErrMissingArgument
			}
			if !opts.list && len(args) < 3 {
				return fmt.Errorf("%w: <new_x> and <new_y> are required", record.ErrMissingArgument)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), opts, args, stdout, stderr)
		},
	}
	cmd.SetUsageTemplate(usageText)
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.BoolVarP(&opts.list, "list", "l", false, "list candidate positions and exit")
	f.StringVarP(&opts.indexArg, "index", "i", "0", "which candidate to modify")
	f.BoolVar(&opts.noBackup, "no-backup", false, "do not write a .data.bak copy before modifying")
	f.StringVar(&opts.label, "label", "", "label the record sits next to (default from config, ButtonDot)")
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	f.BoolVar(&opts.inPlace, "in-place", false, "truncate and rewrite the file instead of replacing it atomically")
	f.BoolVar(&opts.remoteBackup, "remote-backup", false, "also upload the original to the configured S3 bucket")
	f.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile(), "env file with remote backup credentials")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")
	f.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	return cmd
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.InitDefaultHelpFlag()
	cmd.SetArgs(normalizeArgs(cmd.Flags(), args))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	if errors.Is(err, record.ErrMissingArgument) {
		if err != record.ErrMissingArgument {
			color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		}
		fmt.Fprint(stderr, usageText)
		return 1
	}
	color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func parseCoord(name, s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", record.ErrInvalidArgument, name, s)
	}
	return int32(v), nil
}

func execute(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	if opts.noColor {
		color.NoColor = true
	}
	log := newLogger(stderr, opts.verbose)

	// coordinates and index are checked before any file is touched
	var x, y int32
	var index int
	if !opts.list {
		var err error
		if x, err = parseCoord("X", args[1]); err != nil {
			return err
		}
		if y, err = parseCoord("Y", args[2]); err != nil {
			return err
		}
		if index, err = strconv.Atoi(opts.indexArg); err != nil {
			return fmt.Errorf("%w: --index must be an integer, got %q", record.ErrInvalidArgument, opts.indexArg)
		}
	}

	// list mode reports every failure and still exits 0
	fail := func(err error) error {
		if !opts.list {
			return err
		}
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fail(err)
	}
	if opts.label != "" {
		cfg.Label = opts.label
	}
	if opts.inPlace {
		cfg.Atomic = false
	}
	scanner, err := cfg.Scanner()
	if err != nil {
		return fail(err)
	}
	rep := record.NewReporter(stdout, cfg.Label)
	path := args[0]

	if opts.list {
		listPositions(path, scanner, rep, log, stderr)
		return nil
	}

	var up remote.Uploader
	if opts.remoteBackup {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return fmt.Errorf("loading %s: %w", opts.envFile, err)
		}
		cfg.ApplyEnv(os.LookupEnv)
		if up, err = newUploader(cfg.Remote); err != nil {
			return err
		}
	}

	return modifyPosition(ctx, path, x, y, index, opts, cfg, scanner, rep, up, log)
}

func listPositions(path string, scanner *record.Scanner, rep *record.Reporter, log logrus.FieldLogger, stderr io.Writer) {
	im, err := record.Load(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return
	}
	log.WithField("size", humanize.Bytes(uint64(len(im.Data)))).Debugf("loaded %s", path)

	cands := scanner.Scan(im.Data)
	if len(cands) == 0 {
		rep.NotFound(path)
		return
	}
	rep.List(path, cands)
}

func modifyPosition(
	ctx context.Context,
	path string,
	x, y int32,
	index int,
	opts *options,
	cfg *config.Config,
	scanner *record.Scanner,
	rep *record.Reporter,
	up remote.Uploader,
	log logrus.FieldLogger,
) error {
	im, err := record.Load(path)
	if err != nil {
		return err
	}
	log.WithField("size", humanize.Bytes(uint64(len(im.Data)))).Debugf("loaded %s", path)

	cands := scanner.Scan(im.Data)
	if len(cands) == 0 {
		return fmt.Errorf("%w: no %s in '%s'", record.ErrNoCandidates, cfg.Label, path)
	}
	rep.Found(path, cands)

	selected, err := record.Select(cands, index)
	if err != nil {
		return err
	}
	rep.Selected(index, selected, x, y)

	if up != nil {
		uctx := ctx
		if d := cfg.Remote.Timeout.Duration; d > 0 {
			var cancel context.CancelFunc
			uctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		location, err := up.Upload(uctx, path, im.Data)
		if err != nil {
			return err
		}
		rep.RemoteBackup(location)
	}

	res, err := im.Modify(cands, record.Options{
		Index:        index,
		X:            x,
		Y:            y,
		Backup:       !opts.noBackup,
		BackupSuffix: cfg.BackupSuffix,
		Atomic:       cfg.Atomic,
		Log:          log,
	})
	if res != nil && res.BackupPath != "" {
		rep.Backup(res.BackupPath)
	}
	if err != nil {
		return err
	}
	rep.Success(path)
	rep.Verified(res)
	return nil
}
