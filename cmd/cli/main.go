package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sevigo/patchwork/internal/fetch"
	"github.com/sevigo/patchwork/internal/patch"
)

// Exit codes of the patchwork CLI.
const (
	exitOK          = 0
	exitApplyFailed = 1
	exitBadInput    = 2
	exitPermission  = 3
	exitFetchFailed = 4
	exitUsage       = 5
)

var (
	// errApplyFailed marks a partial or full application failure.
	errApplyFailed = errors.New("patch did not apply cleanly")
	// errBadInput marks a patch source that could not be read or parsed.
	errBadInput = errors.New("unreadable patch input")
	// errUsage marks invalid arguments or configuration.
	errUsage = errors.New("invalid invocation")
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "patchwork: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the CLI exit code contract. Errors that
// match none of the known kinds are argument errors surfaced by cobra.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, os.ErrPermission):
		return exitPermission
	case errors.Is(err, errApplyFailed):
		return exitApplyFailed
	case errors.Is(err, fetch.ErrFetchFailed):
		return exitFetchFailed
	case errors.Is(err, errBadInput),
		errors.Is(err, fetch.ErrEmptyInput),
		errors.Is(err, patch.ErrEmptyPatch),
		errors.Is(err, patch.ErrNoPatch):
		return exitBadInput
	default:
		return exitUsage
	}
}
