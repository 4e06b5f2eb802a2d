package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"narrate/internal/config"
	"narrate/internal/deps"
	"narrate/internal/services/elevenlabs"
	"narrate/internal/store"
)

const (
	storeCheckTimeout = 10 * time.Second
	ttsCheckTimeout   = 15 * time.Second
)

// CheckStore lists the modules directory to confirm the backend is reachable
// and the credentials are accepted.
func CheckStore(ctx context.Context, backend string, st store.Store, modulesDir string) Result {
	name := "Store (" + backend + ")"
	if st == nil {
		return Result{Name: name, Detail: "store not opened"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, storeCheckTimeout)
	defer cancel()

	infos, err := st.List(checkCtx, modulesDir)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (empty)", modulesDir)}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d objects)", modulesDir, len(infos))}
}

// CheckTTS verifies that the speech provider accepts the configured key.
// It uses a single attempt (no retries).
func CheckTTS(ctx context.Context, apiKey string, checker HealthChecker) Result {
	const name = "ElevenLabs"

	if apiKey == "" {
		return Result{Name: name, Skipped: true, Detail: "API key missing (generation disabled)"}
	}
	if checker == nil {
		return Result{Name: name, Detail: "client not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, ttsCheckTimeout)
	defer cancel()

	if err := checker.HealthCheck(checkCtx); err != nil {
		var statusErr *elevenlabs.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return Result{Name: name, Detail: "auth failed (invalid api key)"}
			case http.StatusNotFound:
				return Result{Name: name, Detail: "voice not found"}
			}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both "narrate deps" and "narrate status" use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{deps.FFmpegRequirement(cfg.FFmpegBinary())})
}

// summarizeError produces a human-readable summary for remote check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
