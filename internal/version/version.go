// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	// execCommand is swapped out in tests.
	execCommand = exec.CommandContext
)

func ensureInitialized() {
	once.Do(func() {
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = getGitCommit()
		}
		if Version == "" {
			Version = getGitVersion()
		}
	})
}

// Reset clears cached version state so it is recomputed on next use.
func Reset() {
	Version = ""
	Commit = ""
	Date = ""
	once = sync.Once{}
}

func getGitCommit() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := execCommand(ctx, "git", "describe", "--always", "--dirty")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}

func getGitVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := execCommand(ctx, "git", "describe", "--tags", "--abbrev=0")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err == nil {
		v := strings.TrimSpace(out.String())
		if v != "" {
			return v
		}
	}
	return "dev"
}

// GetVersion returns the version string, initializing it if needed.
func GetVersion() string {
	ensureInitialized()
	return Version
}

// GetCommit returns the commit hash, initializing it if needed.
func GetCommit() string {
	ensureInitialized()
	return Commit
}

// GetDate returns the build date, initializing it if needed.
func GetDate() string {
	ensureInitialized()
	return Date
}

// Info returns a single-line description of the build.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("claude-codex-usage %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
