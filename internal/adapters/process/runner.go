package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"reelgrab/pkg/logger"
)

var log = logger.Get("Process")

// waitDelay bounds how long Wait keeps draining output after the process is
// killed, in case a descendant still holds the pipes.
const waitDelay = 2 * time.Second

// Command describes one child process invocation. Args are passed to the
// process as-is; no shell is involved.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is the captured output of a successful invocation.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// LaunchError is returned when the process could not be started at all.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError is returned when the process started but exited non-zero.
type ExitError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %s %s exited with code %d: %s",
		e.Name, strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// TimeoutError is returned when the invocation outlived its timeout.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
	Stderr  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %s timed out after %s", e.Name, e.Timeout)
}

// Runner executes external commands with an augmented search path.
type Runner struct {
	pathDirs []string
}

// NewRunner creates a Runner which prepends extraDirs, followed by the
// user-level scripts directory for the current OS, to PATH.
func NewRunner(extraDirs ...string) *Runner {
	dirs := make([]string, 0, len(extraDirs)+2)
	for _, dir := range append(extraDirs, userScriptDirs()...) {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}

	return &Runner{pathDirs: dirs}
}

// PathDirs returns the directories prepended to PATH, in order.
func (r *Runner) PathDirs() []string {
	return append([]string(nil), r.pathDirs...)
}

// Run executes the command and waits for it to exit.
func (r *Runner) Run(ctx context.Context, command Command) (*Output, error) {
	if command.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	name := command.Name
	env := r.Environ()
	if resolved, err := lookPath(name, env); err == nil {
		name = resolved
	} else {
		return nil, &LaunchError{Name: command.Name, Err: err}
	}

	cmd := exec.CommandContext(ctx, name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = env
	cmd.WaitDelay = waitDelay
	killProcessTree(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Running %s\n", command)
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Name: command.Name, Err: err}
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && command.Timeout > 0 {
			return nil, &TimeoutError{Name: command.Name, Timeout: command.Timeout, Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("command %s aborted: %w", command.Name, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Name:     command.Name,
				Args:     command.Args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return nil, fmt.Errorf("command %s failed: %w", command.Name, err)
	}

	return &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

// Environ returns the process environment with the runner's directories
// prepended to PATH.
func (r *Runner) Environ() []string {
	env := os.Environ()
	if len(r.pathDirs) == 0 {
		return env
	}

	prefix := strings.Join(r.pathDirs, string(os.PathListSeparator))
	for i, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(key, "PATH") {
			if value == "" {
				env[i] = key + "=" + prefix
			} else {
				env[i] = key + "=" + prefix + string(os.PathListSeparator) + value
			}
			return env
		}
	}

	return append(env, "PATH="+prefix)
}

// lookPath resolves name against the PATH found in env rather than the
// current process PATH, so prepended directories are honoured.
func lookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || filepath.IsAbs(name) {
		return exec.LookPath(name)
	}

	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.EqualFold(key, "PATH") {
			continue
		}
		for _, dir := range filepath.SplitList(value) {
			if dir == "" {
				continue
			}
			if path, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
				return path, nil
			}
		}
		break
	}

	return exec.LookPath(name)
}

func userScriptDirs() []string {
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		matches, _ := filepath.Glob(filepath.Join(home, "Library", "Python", "*", "bin"))
		return append([]string{filepath.Join(home, ".local", "bin")}, matches...)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		matches, _ := filepath.Glob(filepath.Join(appData, "Python", "*", "Scripts"))
		return matches
	default:
		return []string{filepath.Join(home, ".local", "bin")}
	}
}
