package sms

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
)

// DefaultInviteMessage is the text sent to a collaborator who is not yet
// on the shared schedule.
const DefaultInviteMessage = "I'd like to share my calendar with you on Calhub. Install the app and sign in to see our combined schedule."

// Gateway sends SMS invites through an external command such as
// termux-sms-send. Hosts without the command get a no-op gateway: invites
// are logged and dropped rather than failing the caller.
type Gateway struct {
	command string
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// run is swapped out by tests.
	run func(ctx context.Context, name string, args ...string) (stderr string, err error)
	// lookPath is swapped out by tests.
	lookPath func(name string) (string, error)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway creates a gateway backed by the given command. The command's
// presence is checked per send, not at construction, so installing it
// later takes effect without a restart.
func NewGateway(command string, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		command:  command,
		logger:   logger,
		metrics:  &instrumentation.Metrics{},
		run:      runCommand,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available reports whether the SMS command is present on this host.
func (g *Gateway) Available() bool {
	_, err := g.lookPath(g.command)
	return err == nil
}

// SendInvite sends the default invite text to number. An unavailable
// gateway is not an error: the invite is logged as skipped and the caller
// proceeds.
func (g *Gateway) SendInvite(ctx context.Context, number string) error {
	return g.Send(ctx, number, DefaultInviteMessage)
}

// Send delivers message to number. The number must be in international
// format starting with +.
func (g *Gateway) Send(ctx context.Context, number, message string) error {
	if number == "" {
		return &SMSError{Op: "send", Err: fmt.Errorf("recipient cannot be empty")}
	}
	if !strings.HasPrefix(number, "+") {
		return &SMSError{Op: "send", Err: fmt.Errorf("recipient must be a phone number starting with + (e.g., +15551234567)")}
	}
	if message == "" {
		return &SMSError{Op: "send", Err: fmt.Errorf("message cannot be empty")}
	}

	log := logging.WithOperation(g.logger, "sendInvite")
	if !g.Available() {
		g.metrics.RecordInviteSent(ctx, instrumentation.StatusSkipped)
		log.Info("sms gateway unavailable, invite skipped",
			slog.String("command", g.command),
			logging.Status(logging.StatusSkipped))
		return nil
	}

	// termux-sms-send -n NUMBER MESSAGE
	stderr, err := g.run(ctx, g.command, "-n", number, message)
	if err != nil {
		g.metrics.RecordInviteSent(ctx, instrumentation.StatusError)
		return &SMSError{Op: "send", Err: fmt.Errorf("failed to send invite: %w (stderr: %s)", err, stderr)}
	}

	g.metrics.RecordInviteSent(ctx, instrumentation.StatusSuccess)
	log.Info("invite sent", logging.Status(logging.StatusSuccess))
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
