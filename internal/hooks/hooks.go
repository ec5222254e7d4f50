// SPDX-License-Identifier: MPL-2.0

// Package hooks builds lifecycle callbacks from user-declared shell scripts.
//
// Scripts run through the embedded POSIX shell interpreter rather than an
// external /bin/sh, so hook behavior is identical across platforms. A hook's
// failure is reported to its caller and goes no further: the reconciler logs
// it and moves on.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"plugman-cli/pkg/plugspec"
)

// ErrBadScript is the sentinel error wrapped when a hook script fails to
// parse.
var ErrBadScript = errors.New("invalid hook script")

// Shell compiles script into a hook that executes in dir with the current
// process environment, stdout, and stderr. The script is parsed eagerly so a
// syntax error surfaces at declaration time, not mid-reconciliation.
func Shell(script, dir string) (plugspec.Hook, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "hook")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScript, err)
	}

	return func(ctx context.Context) error {
		runner, err := interp.New(
			interp.Dir(dir),
			interp.Env(expand.ListEnviron(os.Environ()...)),
			interp.StdIO(nil, os.Stdout, os.Stderr),
		)
		if err != nil {
			return fmt.Errorf("creating hook interpreter: %w", err)
		}

		if err := runner.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return fmt.Errorf("hook exited with status %d", int(status))
			}
			return fmt.Errorf("hook execution failed: %w", err)
		}
		return nil
	}, nil
}
