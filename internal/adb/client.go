package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultServerPort is the port the adb server listens on
const DefaultServerPort = 5037

// ErrNoDevice is returned when a command targets an empty serial
var ErrNoDevice = errors.New("no device serial")

// Runner executes one adb invocation and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs the real executable
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Client talks to one adb server through the adb executable
type Client struct {
	path      string
	port      int
	timeout   time.Duration
	tapSettle time.Duration
	run       Runner
}

// NewClient creates a client for the adb executable at path
func NewClient(path string, port int) *Client {
	if port <= 0 {
		port = DefaultServerPort
	}
	return &Client{
		path:      path,
		port:      port,
		timeout:   15 * time.Second,
		tapSettle: 50 * time.Millisecond,
		run:       execRunner,
	}
}

// WithRunner swaps the process runner (used by tests)
func (c *Client) WithRunner(run Runner) *Client {
	c.run = run
	return c
}

// WithTimeout sets the per-command timeout
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithTapSettle sets the pause after every tap
func (c *Client) WithTapSettle(d time.Duration) *Client {
	c.tapSettle = d
	return c
}

// Path returns the adb executable path
func (c *Client) Path() string {
	return c.path
}

// exec runs adb with the server port prepended. A cancelled ctx stops a
// command from being dispatched; once dispatched, it runs to completion or
// to the per-command timeout.
func (c *Client) exec(ctx context.Context, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	full := append([]string{"-P", strconv.Itoa(c.port)}, args...)
	out, err := c.run(ctx, c.path, full...)
	if err != nil {
		return out, fmt.Errorf("adb %s failed: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Shell runs a shell command on a device and returns its trimmed output
func (c *Client) Shell(ctx context.Context, serial, command string) (string, error) {
	if serial == "" {
		return "", ErrNoDevice
	}
	out, err := c.exec(ctx, "-s", serial, "shell", command)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// StartServer starts the adb server if it is not running
func (c *Client) StartServer(ctx context.Context) error {
	_, err := c.exec(ctx, "start-server")
	return err
}

// KillServer stops the adb server
func (c *Client) KillServer(ctx context.Context) error {
	_, err := c.exec(ctx, "kill-server")
	return err
}

// Restart force-restarts the adb server. A kill failure is ignored because
// the server may already be down.
func (c *Client) Restart(ctx context.Context) error {
	_ = c.KillServer(ctx)
	if err := c.StartServer(ctx); err != nil {
		return fmt.Errorf("failed to restart adb server: %w", err)
	}
	return nil
}

// IsHealthy reports whether the server answers a device listing
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.exec(ctx, "devices")
	return err == nil
}
