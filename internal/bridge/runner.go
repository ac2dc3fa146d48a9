package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	domrepo "MacroPipe/internal/domain/repository"
	xlogger "MacroPipe/pkg/logger"
)

const sampleLimit = 512

// Runner resolves capability names to executable scripts and runs them.
// It accumulates stdout/stderr fully, waits for exit, and parses stdout as a
// single JSON document. The runner never interprets the parsed shape; callers
// do that per capability. One invocation is at-most-once: no retries here.
type Runner struct {
	interpreter string            // e.g. "python3"; empty runs the script directly
	scriptDir   string
	scripts     map[string]string // capability -> script filename override
	timeout     time.Duration     // 0 disables the deadline
	logger      *xlogger.Logger
	metrics     domrepo.Metrics
}

// Option configures Runner.
type Option func(*Runner)

// WithInterpreter sets the interpreter binary used to run scripts.
func WithInterpreter(bin string) Option {
	return func(r *Runner) { r.interpreter = bin }
}

// WithScript maps a capability name to a script filename inside the script dir.
func WithScript(capability, filename string) Option {
	return func(r *Runner) { r.scripts[capability] = filename }
}

// WithTimeout bounds a single invocation. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a Runner rooted at scriptDir.
func NewRunner(scriptDir string, lgr *xlogger.Logger, opts ...Option) *Runner {
	r := &Runner{
		scriptDir: scriptDir,
		scripts:   make(map[string]string),
		logger:    lgr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the on-disk path for a capability, or a
// CapabilityNotFoundError when no executable exists there.
func (r *Runner) Resolve(capability string) (string, error) {
	filename, ok := r.scripts[capability]
	if !ok {
		filename = capability + ".py"
	}
	path := filepath.Join(r.scriptDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", &CapabilityNotFoundError{Capability: capability, Path: path}
	}
	return path, nil
}

// Invoke runs a capability with argv and returns the parsed JSON output.
func (r *Runner) Invoke(ctx context.Context, capability string, argv []string) (interface{}, error) {
	start := time.Now()
	out, err := r.invoke(ctx, capability, argv)
	if r.metrics != nil {
		r.metrics.RecordBridgeInvocation(capability, time.Since(start).Seconds(), err != nil)
	}
	return out, err
}

func (r *Runner) invoke(ctx context.Context, capability string, argv []string) (interface{}, error) {
	path, err := r.Resolve(capability)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if r.interpreter != "" {
		cmd = exec.CommandContext(ctx, r.interpreter, append([]string{path}, argv...)...)
	} else {
		cmd = exec.CommandContext(ctx, path, argv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.logger != nil {
		r.logger.Debug("bridge invoke",
			xlogger.String("capability", capability),
			xlogger.String("args", strings.Join(argv, " ")),
		)
	}

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, &TimeoutError{Capability: capability, Timeout: r.timeout.String()}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &ProcessExecutionError{
				Capability: capability,
				ExitCode:   exitErr.ExitCode(),
				Stderr:     strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("spawn %q: %w", capability, runErr)
	}

	raw := strings.TrimSpace(stdout.String())
	if raw == "" {
		// Empty stdout with a clean exit is treated as an empty document.
		return map[string]interface{}{}, nil
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &OutputParseError{
			Capability: capability,
			Reason:     err.Error(),
			Sample:     truncate(raw, sampleLimit),
		}
	}
	return parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
