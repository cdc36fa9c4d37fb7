package adb

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConnectNetworkDevice(t *testing.T) {
	f := newFakeRunner()
	f.responses["connect 127.0.0.1:5555"] = []byte("connected to 127.0.0.1:5555\n")
	f.responses["-s 127.0.0.1:5555 get-state"] = []byte("device\n")

	c := NewController("adb", DeviceForPort("5555")).WithRunner(f.run)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !c.IsConnected() {
		t.Error("expected controller to be connected")
	}

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	calls := f.Calls()
	if last := calls[len(calls)-1]; last != "disconnect 127.0.0.1:5555" {
		t.Errorf("last call = %q, want disconnect", last)
	}
	if c.IsConnected() {
		t.Error("expected controller to be disconnected")
	}
}

func TestConnectRejectsOfflineDevice(t *testing.T) {
	f := newFakeRunner()
	f.responses["-s emu get-state"] = []byte("offline\n")

	c := NewController("adb", "emu").WithRunner(f.run)
	if err := c.Connect(); err == nil {
		t.Fatal("expected error for offline device")
	}
	if c.IsConnected() {
		t.Error("offline device must not be marked connected")
	}
}

func TestConnectRejectsFailedConnect(t *testing.T) {
	f := newFakeRunner()
	f.responses["connect 127.0.0.1:1"] = []byte("failed to connect to 127.0.0.1:1\n")

	c := NewController("adb", "127.0.0.1:1").WithRunner(f.run)
	if err := c.Connect(); err == nil {
		t.Fatal("expected error")
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	c := NewController("adb", "emu").WithRunner(newFakeRunner().run)

	if _, err := c.Shell("echo hi"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Shell error = %v, want ErrNotConnected", err)
	}
	if err := c.Tap(context.Background(), 1, 2); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Tap error = %v, want ErrNotConnected", err)
	}
	if _, err := c.ScreencapRaw(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ScreencapRaw error = %v, want ErrNotConnected", err)
	}
}

func TestInputCommands(t *testing.T) {
	f := newFakeRunner()
	c := connectedController(f)
	ctx := context.Background()

	if err := c.Tap(ctx, 10, 20); err != nil {
		t.Fatal(err)
	}
	if err := c.LongPress(ctx, 30, 40, 1500*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	calls := f.Calls()
	want := []string{
		"-s emu shell input tap 10 20",
		"-s emu shell input swipe 30 40 30 40 1500",
	}
	got := calls[len(calls)-2:]
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShellWithTimeout(t *testing.T) {
	f := newFakeRunner()
	c := connectedController(f)
	f.block = true

	_, err := c.ShellWithTimeout("sleep 100", 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGetWindowSize(t *testing.T) {
	tests := []struct {
		name   string
		output string
		w, h   int
	}{
		{"physical", "Physical size: 1080x1920\n", 1080, 1920},
		{"override", "Physical size: 1080x1920\nOverride size: 720x1280\n", 720, 1280},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRunner()
			c := connectedController(f)
			f.responses["-s emu shell wm size"] = []byte(tt.output)

			w, h, err := c.GetWindowSize()
			if err != nil {
				t.Fatal(err)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestCurrentPackage(t *testing.T) {
	f := newFakeRunner()
	c := connectedController(f)
	f.responses["-s emu shell dumpsys window | grep mCurrentFocus"] =
		[]byte("  mCurrentFocus=Window{1a2b3c u0 com.example.app/com.example.app.MainActivity}\n")

	pkg, err := c.CurrentPackage()
	if err != nil {
		t.Fatal(err)
	}
	if pkg != "com.example.app" {
		t.Errorf("package = %q", pkg)
	}
}

func TestParseDevices(t *testing.T) {
	output := "List of devices attached\nemulator-5554\tdevice\n127.0.0.1:5555\toffline\nR58M\tdevice\n\n"
	devices := ParseDevices(output)
	if len(devices) != 2 || devices[0] != "emulator-5554" || devices[1] != "R58M" {
		t.Errorf("devices = %v", devices)
	}
}

func TestShellContext(t *testing.T) {
	f := newFakeRunner()
	c := connectedController(f)
	f.responses["-s emu shell getprop ro.product.model"] = []byte("  Pixel 7\n")
	f.errs["-s emu shell false"] = errors.New("exit status 1")

	out, err := c.ShellContext(context.Background(), "getprop ro.product.model")
	if err != nil {
		t.Fatalf("ShellContext failed: %v", err)
	}
	if out != "Pixel 7" {
		t.Errorf("output = %q, want trimmed %q", out, "Pixel 7")
	}

	if _, err := c.ShellContext(context.Background(), "false"); err == nil {
		t.Error("expected command error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.block = true
	if _, err := c.ShellContext(ctx, "sleep 1"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestListDevices(t *testing.T) {
	f := newFakeRunner()
	f.responses["devices"] = []byte("List of devices attached\nemulator-5554\tdevice\n127.0.0.1:5555\tunauthorized\n")

	devices, err := ListDevices(context.Background(), "adb", f.run)
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) != 1 || devices[0] != "emulator-5554" {
		t.Errorf("devices = %v", devices)
	}

	f.errs["devices"] = errors.New("daemon not running")
	if _, err := ListDevices(context.Background(), "adb", f.run); err == nil {
		t.Error("expected error when adb fails")
	}
}
