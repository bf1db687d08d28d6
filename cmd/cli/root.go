package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/patchwork/internal/apply"
	"github.com/sevigo/patchwork/internal/config"
	"github.com/sevigo/patchwork/internal/diffstat"
	"github.com/sevigo/patchwork/internal/fetch"
	"github.com/sevigo/patchwork/internal/logger"
	"github.com/sevigo/patchwork/internal/patch"
)

// Color definitions
var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

type rootFlags struct {
	strip         int
	directory     string
	dryRun        bool
	revert        bool
	showDiffstat  bool
	fuzz          int
	allowAbsolute bool
	verbose       bool
	configPath    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "patchwork [flags] PATCH",
		Short: "patchwork applies unified-diff patches to local files",
		Long: `patchwork parses unified-diff patches in the plain, git, mercurial and
subversion flavors and applies them to local files.

The PATCH argument is a file path, "-" for standard input, or an
http(s) URL that is downloaded first.

Examples:
  patchwork fix.patch
  patchwork -p 1 -d ./src fix.patch
  patchwork --dry-run https://example.org/fix.patch
  patchwork --revert fix.patch
  patchwork --diffstat fix.patch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], flags, fetch.NewHTTPFetcher(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&flags.strip, "strip", "p", 0, "remove N leading path components from patch filenames")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "resolve target filenames relative to DIR")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "match hunks but do not modify any file")
	cmd.Flags().BoolVar(&flags.revert, "revert", false, "apply the patch with source and target swapped, undoing a prior apply")
	cmd.Flags().BoolVar(&flags.showDiffstat, "diffstat", false, "print the change histogram and exit without applying")
	cmd.Flags().IntVar(&flags.fuzz, "fuzz", 0, "maximum positional offset when a hunk does not match at its declared line")
	cmd.Flags().BoolVar(&flags.allowAbsolute, "allow-absolute", false, "permit absolute target paths after stripping")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log per-hunk matching details")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to the config file")

	return cmd
}

func runApply(cmd *cobra.Command, src string, flags *rootFlags, fetcher fetch.Fetcher, out io.Writer) error {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	log := logger.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	opts := apply.Options{
		Strip:         cfg.Apply.Strip,
		Fuzz:          cfg.Apply.Fuzz,
		Root:          cfg.Apply.Root,
		AllowAbsolute: cfg.Apply.AllowAbsolute,
		DryRun:        flags.dryRun,
		Revert:        flags.revert,
		Logger:        log,
	}
	if flags.directory != "" {
		opts.Root = flags.directory
	}

	// a .patchwork.yml next to the target tree pins strip/fuzz for that
	// tree; explicit flags still win
	if tree, terr := config.LoadTreeConfig(opts.Root); terr == nil || errors.Is(terr, config.ErrTreeConfigNotFound) {
		if tree.Strip != nil {
			opts.Strip = *tree.Strip
		}
		if tree.Fuzz != nil {
			opts.Fuzz = *tree.Fuzz
		}
	} else {
		log.Warn("ignoring unreadable tree config", "error", terr)
	}
	if cmd.Flags().Changed("strip") {
		opts.Strip = flags.strip
	}
	if cmd.Flags().Changed("fuzz") {
		opts.Fuzz = flags.fuzz
	}
	if flags.allowAbsolute {
		opts.AllowAbsolute = true
	}

	data, err := fetch.Read(cmd.Context(), src, fetcher)
	if err != nil {
		if fetch.IsURL(src) || errors.Is(err, fetch.ErrFetchFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadInput, err)
	}

	ps, err := patch.Parse(data, log)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadInput, err)
	}
	if n := ps.Errors(); n > 0 {
		warnColor.Fprintf(out, "%d file patch(es) could not be parsed and were skipped\n", n)
	}
	if flags.verbose {
		for _, ev := range ps.Events {
			dimColor.Fprintf(out, "  %s\n", ev)
		}
	}

	if flags.showDiffstat {
		return diffstat.Render(out, diffstat.FromPatchSet(ps), diffstat.TerminalWidth())
	}

	res := apply.Apply(ps, opts)
	reportResult(out, res, flags)
	if res.OK() {
		return nil
	}
	for _, fr := range res.Files {
		if errors.Is(fr.Err, os.ErrPermission) {
			return fmt.Errorf("%s: %w", fr.Name, os.ErrPermission)
		}
	}
	return errApplyFailed
}

func reportResult(out io.Writer, res *apply.Result, flags *rootFlags) {
	verb := "applied"
	switch {
	case flags.dryRun:
		verb = "would apply"
	case flags.revert:
		verb = "reverted"
	}
	for _, fr := range res.Files {
		switch {
		case fr.Err != nil:
			errorColor.Fprintf(out, "FAILED %s: %v\n", fr.Name, fr.Err)
		case fr.AlreadyApplied:
			successColor.Fprintf(out, "%s: already applied\n", fr.Name)
		default:
			successColor.Fprintf(out, "%s %s\n", verb, fr.Name)
		}
	}
}
