package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// runApp runs stmctl with args and returns what it wrote to stdout and stderr.
func runApp(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err = app.RunContext(t.Context(), append([]string{"stmctl"}, args...))
	return out.String(), errOut.String(), err
}

// writeConfig writes a YAML configuration file into a temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
