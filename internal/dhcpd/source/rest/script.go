package rest

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/AdguardTeam/golibs/log"
	"github.com/pkg/errors"
)

// RunScript executes cfg's command with stdout/stderr captured, the way the
// teacher's ExecRes.CheckApply shells out and captures output
// (purpleidea-mgmt engine/resources/exec.go). exec and args are assumed to
// already be template-expanded by the caller.
//
// wait=true blocks until the process exits, bounded by cfg.Timeout if set,
// and returns an error on a non-zero exit code, a timeout, or a launch
// failure. wait=false starts the process and returns immediately without
// waiting for it to finish; the process is still killed once cfg.Timeout
// (if set) elapses, and its eventual exit is only logged.
func RunScript(ctx context.Context, cfg Script, exe string, args []string) error {
	cancel := context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	cmd := exec.CommandContext(ctx, exe, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if !cfg.Wait {
		if err := cmd.Start(); err != nil {
			cancel()
			return errors.Wrapf(err, "starting script %s", exe)
		}
		go func() {
			defer cancel()
			if err := cmd.Wait(); err != nil {
				log.Error("rest source: script %s exited with error: %s (stderr: %s)", exe, err, stderr.String())
				return
			}
			log.Info("rest source: script %s completed: %s", exe, stdout.String())
		}()
		return nil
	}
	defer cancel()

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running script %s (stderr: %s)", exe, stderr.String())
	}

	log.Info("rest source: script %s completed: %s", exe, stdout.String())
	return nil
}

// scriptTimeout returns cfg.Timeout, or defaultScriptTimeout if unset, for
// callers that want a bound even when the configuration leaves it at zero.
func scriptTimeout(cfg Script) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return defaultScriptTimeout
}

// defaultScriptTimeout bounds a script run by the REST source when the
// configuration doesn't specify its own timeout.
const defaultScriptTimeout = 30 * time.Second
