// Package claude runs the claude CLI and decodes its structured output.
package claude

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

var (
	tmpDirOnce sync.Once
	tmpDir     string
)

// cleanTmpDir returns a private temp directory for claude invocations,
// created on first use. Editor socket files in a shared TMPDIR make the CLI
// crash when --settings is passed.
func cleanTmpDir() string {
	tmpDirOnce.Do(func() {
		tmpDir = filepath.Join(os.TempDir(), "microassess-claude")
		_ = os.MkdirAll(tmpDir, 0755)
	})
	return tmpDir
}

// SetCleanEnv copies the current environment into cmd with TMPDIR pointed
// at the private temp directory.
func SetCleanEnv(cmd *exec.Cmd) {
	dir := cleanTmpDir()
	env := os.Environ()
	replaced := false
	for i, kv := range env {
		if strings.HasPrefix(kv, "TMPDIR=") {
			env[i] = "TMPDIR=" + dir
			replaced = true
			break
		}
	}
	if !replaced {
		env = append(env, "TMPDIR="+dir)
	}
	cmd.Env = env
}
