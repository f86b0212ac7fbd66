// Package launcher runs the external gateway binary: either as a detached
// background process or as a short-lived helper that delivers one message.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"xmppctl/internal/audit"
	"xmppctl/internal/metrics"
)

const (
	// TargetPlaceholder is replaced by the destination address in send arguments.
	TargetPlaceholder = "{target}"
	// MessagePlaceholder is replaced by the message body in send arguments.
	MessagePlaceholder = "{message}"
)

// ExternalResult is the outcome of one helper process run.
type ExternalResult struct {
	Code   int
	Stdout string
	Stderr string
	// Err is set when the process could not be started or waited on.
	Err error
}

// OK reports whether the helper ran and exited zero.
func (r ExternalResult) OK() bool {
	return r.Err == nil && r.Code == 0
}

// Launcher starts gateway processes from a configured binary.
type Launcher struct {
	Bin       string
	StartArgs []string
	SendArgs  []string
	// Env is appended to the caller's environment for every spawn.
	Env []string
	log zerolog.Logger
}

// New returns a Launcher for bin.
func New(bin string, startArgs, sendArgs []string, log zerolog.Logger) *Launcher {
	return &Launcher{
		Bin:       bin,
		StartArgs: startArgs,
		SendArgs:  sendArgs,
		log:       log.With().Str("component", "launcher").Logger(),
	}
}

// StartBackground spawns the gateway detached from the caller and returns
// its pid without waiting for it to become ready.
func (l *Launcher) StartBackground() (int, error) {
	cmd := exec.Command(l.Bin, l.StartArgs...)
	if wd, err := os.Getwd(); err == nil {
		cmd.Dir = wd
	}
	cmd.Env = append(os.Environ(), l.Env...)
	// nil stdio is connected to the null device
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		metrics.GatewaySpawnFailures.Inc()
		return 0, fmt.Errorf("start gateway %s: %w", l.Bin, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		l.log.Warn().Err(err).Int("pid", pid).Msg("release gateway process")
	}
	l.log.Info().Int("pid", pid).Str("bin", l.Bin).Strs("args", l.StartArgs).Msg("gateway started in background")
	return pid, nil
}

// SendViaExternal runs the gateway's own send command for one message and
// waits for it to exit. It never returns an error: spawn failures are
// reported through ExternalResult.Err.
func (l *Launcher) SendViaExternal(ctx context.Context, address, body string) ExternalResult {
	args := l.sendArgs(address, body)
	cmd := exec.CommandContext(ctx, l.Bin, args...)
	cmd.Env = append(os.Environ(), l.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	audit.Log("gateway send: %s %s", l.Bin, strings.Join(args, " "))
	err := cmd.Run()
	res := ExternalResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Code = 0
	case ctx.Err() != nil:
		res.Code = -1
		res.Err = ctx.Err()
	case errors.As(err, &exitErr):
		res.Code = exitErr.ExitCode()
	default:
		res.Code = -1
		res.Err = err
		metrics.GatewaySpawnFailures.Inc()
	}

	l.log.Debug().Int("code", res.Code).Err(res.Err).Str("target", address).Msg("gateway send finished")
	return res
}

// sendArgs substitutes the placeholders in SendArgs. When neither
// placeholder is present the address and body are appended positionally.
func (l *Launcher) sendArgs(address, body string) []string {
	r := strings.NewReplacer(TargetPlaceholder, address, MessagePlaceholder, body)
	args := make([]string, 0, len(l.SendArgs)+2)
	templated := false
	for _, arg := range l.SendArgs {
		if strings.Contains(arg, TargetPlaceholder) || strings.Contains(arg, MessagePlaceholder) {
			templated = true
		}
		args = append(args, r.Replace(arg))
	}
	if !templated {
		args = append(args, address, body)
	}
	return args
}
