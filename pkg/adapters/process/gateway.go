// Package process submits applications through a local executable.
//
// The command receives the application as JSON on stdin and the session id
// in GOVFORM_SESSION_ID. It answers on stdout with either a bare
// confirmation number or {"confirmationNumber": "...", "submittedAt": "..."}.
// A non-zero exit rejects the submission.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/sanitize"
)

// ErrNoConfirmation is returned when the command succeeded without printing
// a confirmation number.
var ErrNoConfirmation = errors.New("process gateway: no confirmation number in output")

// Config describes the command to run. Args are fixed at configuration time;
// nothing from the application is ever passed as a flag.
type Config struct {
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args" json:"args"`
	Env     map[string]string `yaml:"env" json:"env"`
	Dir     string            `yaml:"dir" json:"dir"`
	Timeout time.Duration     `yaml:"timeout" json:"timeout"`
}

// Gateway implements submission.Gateway with an external process.
type Gateway struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithClock sets the time used when the command reports none.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New validates cfg and returns a Gateway.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("process gateway: command is required")
	}
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return nil, fmt.Errorf("process gateway: %w", err)
	}
	g := &Gateway{cfg: cfg, now: time.Now, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type receipt struct {
	ConfirmationNumber string    `json:"confirmationNumber"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// Submit runs the command once per application.
func (g *Gateway) Submit(ctx context.Context, sessionID string, data domain.FormData) (domain.Receipt, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return domain.Receipt{}, err
	}

	cmd := exec.CommandContext(ctx, g.cfg.Command, g.cfg.Args...)
	cmd.Dir = g.cfg.Dir
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(cmd.Environ(), "GOVFORM_SESSION_ID="+sessionID)
	for k, v := range g.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	// Give the child a chance to exit on its own before it is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Receipt{}, ctxErr
		}
		return domain.Receipt{}, fmt.Errorf("process gateway: execution failed: %w. Stderr: %s",
			err, strings.TrimSpace(stderr.String()))
	}
	g.logger.Debug("process gateway finished", "session_id", sessionID, "command", g.cfg.Command, "duration", time.Since(start))

	return g.parse(stdout.String())
}

func (g *Gateway) parse(output string) (domain.Receipt, error) {
	trimmed := strings.TrimSpace(output)

	var r receipt
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
			return domain.Receipt{}, fmt.Errorf("process gateway: invalid receipt: %w", err)
		}
	} else if lines := strings.Fields(trimmed); len(lines) > 0 {
		r.ConfirmationNumber = lines[len(lines)-1]
	}

	number, err := sanitize.Input(strings.TrimSpace(r.ConfirmationNumber))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("process gateway: %w", err)
	}
	if number == "" {
		return domain.Receipt{}, ErrNoConfirmation
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = g.now()
	}
	return domain.Receipt{ConfirmationNumber: number, SubmittedAt: r.SubmittedAt.UTC()}, nil
}
