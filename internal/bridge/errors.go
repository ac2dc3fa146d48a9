package bridge

import "fmt"

// CapabilityNotFoundError means the capability could not be resolved to an
// executable on disk. Checked before anything is spawned.
type CapabilityNotFoundError struct {
	Capability string
	Path       string
}

func (e *CapabilityNotFoundError) Error() string {
	return fmt.Sprintf("capability %q not found at %s", e.Capability, e.Path)
}

// ProcessExecutionError means the process ran but exited non-zero.
type ProcessExecutionError struct {
	Capability string
	ExitCode   int
	Stderr     string
}

func (e *ProcessExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("capability %q exited with code %d: %s", e.Capability, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("capability %q exited with code %d", e.Capability, e.ExitCode)
}

// OutputParseError means the process exited cleanly but its stdout was not a
// single JSON document. Sample holds a truncated slice of the raw output.
type OutputParseError struct {
	Capability string
	Reason     string
	Sample     string
}

func (e *OutputParseError) Error() string {
	return fmt.Sprintf("capability %q produced unparsable output: %s (sample: %q)", e.Capability, e.Reason, e.Sample)
}

// TimeoutError means the invocation deadline elapsed before the process
// exited. The process is killed by the context.
type TimeoutError struct {
	Capability string
	Timeout    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("capability %q timed out after %s", e.Capability, e.Timeout)
}
