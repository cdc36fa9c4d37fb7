package adb

import (
	"context"
	"io"
	"strings"
	"sync"

	"jordanella.com/phone-agent-go/internal/logging"
)

// fakeRunner records invocations and answers from a table keyed by the
// joined argument list
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string][]byte
	errs      map[string]error
	block     bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: map[string][]byte{},
		errs:      map[string]error{},
	}
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")

	f.mu.Lock()
	f.calls = append(f.calls, key)
	block := f.block
	out, err := f.responses[key], f.errs[key]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return out, err
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// connectedController returns a controller for serial "emu" that has
// already passed Connect
func connectedController(f *fakeRunner) *Controller {
	f.responses["-s emu get-state"] = []byte("device\n")
	c := NewController("adb", "emu").WithRunner(f.run)
	if err := c.Connect(); err != nil {
		panic(err)
	}
	return c
}

func quietLogger() *logging.Logger {
	return logging.NewLogger("test").SetOutput(io.Discard)
}
