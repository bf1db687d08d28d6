package apply

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sevigo/patchwork/internal/lineio"
	"github.com/sevigo/patchwork/internal/patch"
	"github.com/sevigo/patchwork/internal/pathutil"
)

var (
	// ErrTargetNotFound is returned when the file a patch names does
	// not exist under the resolved root.
	ErrTargetNotFound = errors.New("apply: target file not found")
	// ErrUnsupported is returned for file creation and deletion
	// patches, which the core parses but never executes.
	ErrUnsupported = errors.New("apply: file creation and deletion are not supported")
)

// Options are the recognized apply knobs.
type Options struct {
	// Strip removes N leading path components from each filename
	// before resolving it.
	Strip int
	// Root resolves filenames relative to this directory instead of
	// the process working directory.
	Root string
	// Fuzz is the maximum positional offset the matcher may search
	// when a hunk does not match at its declared location.
	Fuzz int
	// DryRun performs matching and rendering but never writes.
	DryRun bool
	// Revert applies the patch with source and target roles swapped.
	Revert bool
	// AllowAbsolute permits absolute target paths after stripping,
	// which are otherwise rejected as a security error.
	AllowAbsolute bool

	Logger *slog.Logger
}

// FileResult is the outcome for one file patch.
type FileResult struct {
	Name           string
	Err            error
	AlreadyApplied bool  // every hunk matched in reverse; nothing was written
	Offsets        []int // per-hunk distance from the declared position
}

// Result is the outcome of applying a whole PatchSet. Per-file failures
// leave that file byte-identical to its pre-call state and do not abort
// sibling files.
type Result struct {
	Files []FileResult
}

// OK reports whether every file applied (or was already applied).
func (r *Result) OK() bool {
	for _, fr := range r.Files {
		if fr.Err != nil {
			return false
		}
	}
	return true
}

// Apply runs the matcher and rewriter over every item of the set. The
// set itself is only read, never mutated, so concurrent Apply calls on
// disjoint target trees are safe.
func Apply(ps *patch.PatchSet, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := &Result{Files: make([]FileResult, 0, len(ps.Items))}
	for _, fp := range ps.Items {
		fr := applyFile(fp, opts, logger)
		if fr.Err != nil {
			logger.Debug("file patch failed", "file", fr.Name, "error", fr.Err)
		}
		res.Files = append(res.Files, fr)
	}
	return res
}

func applyFile(fp *patch.FilePatch, opts Options, logger *slog.Logger) FileResult {
	fr := FileResult{Name: string(fp.Name())}

	if fp.IsCreate() || fp.IsDelete() {
		fr.Err = ErrUnsupported
		return fr
	}

	path, err := resolveTarget(fp, opts)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Name = path

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fr.Err = fmt.Errorf("%s: %w", path, ErrTargetNotFound)
		} else {
			fr.Err = fmt.Errorf("stat %s: %w", path, err)
		}
		return fr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fr.Err = fmt.Errorf("read %s: %w", path, err)
		return fr
	}
	lines := lineio.Split(data)

	hunks := fp.Hunks
	if opts.Revert {
		hunks = reversed(hunks)
	}

	matches, err := matchHunks(hunks, lines, opts.Fuzz)
	if err != nil {
		// reverse-probe: a file already in its post-state matches the
		// swapped hunks at their declared positions
		if _, rerr := matchHunks(reversed(hunks), lines, 0); rerr == nil {
			logger.Debug("patch already applied", "file", path)
			fr.AlreadyApplied = true
			return fr
		}
		fr.Err = err
		return fr
	}
	for _, m := range matches {
		fr.Offsets = append(fr.Offsets, m.offset)
		if m.offset != 0 {
			logger.Debug("hunk matched at offset", "file", path, "declared", m.hunk.StartSrc, "offset", m.offset)
		}
	}

	out, err := render(matches, lines)
	if err != nil {
		fr.Err = err
		return fr
	}
	if opts.DryRun {
		return fr
	}
	if err := writeAtomic(path, out, info.Mode().Perm()); err != nil {
		fr.Err = err
	}
	return fr
}

// resolveTarget applies strip and root to the patch's chosen filename.
func resolveTarget(fp *patch.FilePatch, opts Options) (string, error) {
	name, err := pathutil.StripComponents(fp.Name(), opts.Strip)
	if err != nil {
		return "", fmt.Errorf("strip %d from %q: %w", opts.Strip, fp.Name(), err)
	}
	return pathutil.SecureJoin(opts.Root, name, opts.AllowAbsolute)
}
