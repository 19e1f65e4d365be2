package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/transform"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for tests. It returns the app,
// the buffer documents are written to and the buffer holding debug logs.
func SetupAppTest(t *testing.T, cfg Config, modules ...transform.Module) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	testApp := NewApp(out, logs, validated, modules...)

	t.Cleanup(func() {
		if os.Getenv("PIPEGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
