package adb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Shell executes a shell command with the controller's default timeout
func (c *Controller) Shell(command string) (string, error) {
	return c.ShellWithTimeout(command, c.defaultTimeout)
}

// ShellWithTimeout executes a shell command, killing it after timeout
func (c *Controller) ShellWithTimeout(command string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	output, err := c.ShellContext(ctx, command)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("shell command timed out after %v", timeout)
	}
	return output, err
}

// ShellContext executes a shell command bound to ctx
func (c *Controller) ShellContext(ctx context.Context, command string) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	output, err := c.run(ctx, c.path, "-s", c.device, "shell", command)
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w, output: %s", err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

// ExecOut runs a device command and returns its raw, untranslated stdout
func (c *Controller) ExecOut(ctx context.Context, args ...string) ([]byte, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	full := append([]string{"-s", c.device, "exec-out"}, args...)
	output, err := c.run(ctx, c.path, full...)
	if err != nil {
		return nil, fmt.Errorf("exec-out %s failed: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// Tap performs a tap at the specified screen coordinates
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	_, err := c.ShellContext(ctx, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// LongPress holds a touch at (x, y) for duration
func (c *Controller) LongPress(ctx context.Context, x, y int, duration time.Duration) error {
	return c.Swipe(ctx, x, y, x, y, duration)
}

// Swipe drags from (x1, y1) to (x2, y2) over duration
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error {
	cmd := fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, duration.Milliseconds())
	_, err := c.ShellContext(ctx, cmd)
	return err
}

// GetWindowSize returns the current screen size
func (c *Controller) GetWindowSize() (width, height int, err error) {
	output, err := c.Shell("wm size")
	if err != nil {
		return 0, 0, err
	}

	// "Physical size: 1080x1920", optionally followed by "Override size: ..."
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if _, err := fmt.Sscanf(line, "Override size: %dx%d", &width, &height); err == nil {
			return width, height, nil
		}
	}
	if _, err := fmt.Sscanf(output, "Physical size: %dx%d", &width, &height); err == nil {
		return width, height, nil
	}
	return 0, 0, fmt.Errorf("failed to parse window size: %s", output)
}

// CurrentPackage returns the package owning the focused window, or "" if
// it cannot be determined
func (c *Controller) CurrentPackage() (string, error) {
	output, err := c.Shell("dumpsys window | grep mCurrentFocus")
	if err != nil {
		return "", err
	}

	// mCurrentFocus=Window{1a2b3c u0 com.example/com.example.MainActivity}
	for _, field := range strings.Fields(output) {
		if i := strings.Index(field, "/"); i > 0 {
			return strings.TrimSuffix(field[:i], "}"), nil
		}
	}
	return "", nil
}
