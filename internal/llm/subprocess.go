package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// subprocessTimeout is a hard wall-clock bound; the process is killed on
// expiry rather than waited on.
const subprocessTimeout = 30 * time.Second

// SubprocessGenerator shells out to a local generation CLI. It is the last
// fallback in the degraded chain and the only path with an explicit timeout.
type SubprocessGenerator struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func NewSubprocessGenerator(command string, args ...string) *SubprocessGenerator {
	return &SubprocessGenerator{Command: command, Args: args, Timeout: subprocessTimeout}
}

func (g *SubprocessGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g.Command == "" {
		return "", fmt.Errorf("subprocess generator command not configured")
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = subprocessTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, g.Args...), "--system", system, "--prompt", prompt)
	cmd := exec.CommandContext(runCtx, g.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out after %s", g.Command, timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s", g.Command, msg)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%s produced no output", g.Command)
	}
	return out, nil
}
