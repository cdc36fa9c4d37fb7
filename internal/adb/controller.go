package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrNotConnected is returned by device commands before Connect succeeds
var ErrNotConnected = errors.New("adb device not connected")

// CommandRunner runs the adb binary with args and returns combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs real processes. stdout and stderr are kept apart for
// exec-out, which streams binary data.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// Controller drives one device through the adb binary
type Controller struct {
	path           string
	device         string // serial, or host:port for network devices
	run            CommandRunner
	defaultTimeout time.Duration
	mu             sync.Mutex
	connected      bool
}

// NewController creates a controller for device using the adb binary at adbPath
func NewController(adbPath, device string) *Controller {
	return &Controller{
		path:           adbPath,
		device:         device,
		run:            execRunner,
		defaultTimeout: 10 * time.Second,
	}
}

// DeviceForPort returns the network device address for a local emulator port
func DeviceForPort(port string) string {
	return fmt.Sprintf("127.0.0.1:%s", port)
}

// WithRunner replaces the process runner, mainly for tests
func (c *Controller) WithRunner(run CommandRunner) *Controller {
	c.run = run
	return c
}

// WithTimeout sets the timeout applied to Shell
func (c *Controller) WithTimeout(timeout time.Duration) *Controller {
	c.defaultTimeout = timeout
	return c
}

// Device returns the device identifier
func (c *Controller) Device() string {
	return c.device
}

func (c *Controller) isNetworkDevice() bool {
	return strings.Contains(c.device, ":")
}

// Connect connects network devices with `adb connect` and checks that the
// device reports the "device" state
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.defaultTimeout)
	defer cancel()

	if c.isNetworkDevice() {
		output, err := c.run(ctx, c.path, "connect", c.device)
		if err != nil {
			return fmt.Errorf("failed to connect to device %s: %w, output: %s", c.device, err, output)
		}
		out := string(output)
		if !strings.Contains(out, "connected") || strings.Contains(out, "cannot") || strings.Contains(out, "failed") {
			return fmt.Errorf("unexpected connect output: %s", strings.TrimSpace(out))
		}
	}

	output, err := c.run(ctx, c.path, "-s", c.device, "get-state")
	if err != nil {
		return fmt.Errorf("failed to query state of %s: %w", c.device, err)
	}
	if state := strings.TrimSpace(string(output)); state != "device" {
		return fmt.Errorf("device %s is %q, not ready", c.device, state)
	}

	c.connected = true
	return nil
}

// Disconnect drops a network device connection
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	if !c.isNetworkDevice() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.defaultTimeout)
	defer cancel()
	if output, err := c.run(ctx, c.path, "disconnect", c.device); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w, output: %s", c.device, err, output)
	}
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
