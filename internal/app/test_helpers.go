package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/gridflow/internal/hcl"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. The workflow
// is loaded with the HCL loader; logs go to the returned buffer and are
// dumped when GRIDFLOW_TEST_LOGS=true.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	testApp, err := NewApp(logBuffer, validated, hcl.NewLoader(), modules...)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	t.Cleanup(func() {
		if os.Getenv("GRIDFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
