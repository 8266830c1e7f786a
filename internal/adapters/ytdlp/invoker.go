package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"reelgrab/internal/adapters/process"
	"reelgrab/internal/core/domain"
	"reelgrab/pkg/logger"
)

var log = logger.Get("Extractor")

const (
	DefaultBinary      = "yt-dlp"
	WindowsBinary      = "yt-dlp.exe"
	DefaultInterpreter = "python3"
	DefaultModule      = "yt_dlp"

	DefaultProbeTimeout    = 60 * time.Second
	DefaultDownloadTimeout = 10 * time.Minute

	VideoFormat     = "bv*+ba/b"
	VideoContainer  = "mp4"
	AudioFormat     = "mp3"
	AudioQualityMax = "0"
)

// Runner executes a single external command.
type Runner interface {
	Run(ctx context.Context, command process.Command) (*process.Output, error)
}

// Strategy is one way of launching the extractor.
type Strategy struct {
	Name       string
	Command    string
	PrefixArgs []string
}

// Config holds everything needed to construct an Invoker.
type Config struct {
	Binary      string
	Interpreter string
	Module      string

	ProbeTimeout    time.Duration
	DownloadTimeout time.Duration

	Profile ProfileConfig
}

// Invoker drives yt-dlp through an ordered list of launch strategies, applying
// the per-platform argument profile to every call.
type Invoker struct {
	runner          Runner
	strategies      []Strategy
	baseArgs        []string
	profiles        map[domain.Platform]Profile
	probeTimeout    time.Duration
	downloadTimeout time.Duration
}

// NewInvoker creates an Invoker. The standalone binary is tried first, then
// the interpreter module form.
func NewInvoker(runner Runner, cfg Config) *Invoker {
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
		binary = localBinary(binary)
	}

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}

	module := cfg.Module
	if module == "" {
		module = DefaultModule
	}

	strategies := []Strategy{
		{Name: "binary", Command: binary},
		{Name: "module", Command: interpreter, PrefixArgs: []string{"-m", module}},
	}

	return NewInvokerWithStrategies(runner, strategies, cfg)
}

// localBinary prefers a yt-dlp.exe in the working directory over PATH on
// Windows.
func localBinary(fallback string) string {
	return localBinaryFor(runtime.GOOS, fallback)
}

func localBinaryFor(goos, fallback string) string {
	if goos != "windows" {
		return fallback
	}
	if _, err := os.Stat(WindowsBinary); err != nil {
		return fallback
	}
	return "." + string(filepath.Separator) + WindowsBinary
}

// NewInvokerWithStrategies creates an Invoker with an explicit strategy chain.
func NewInvokerWithStrategies(runner Runner, strategies []Strategy, cfg Config) *Invoker {
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}

	return &Invoker{
		runner:          runner,
		strategies:      strategies,
		baseArgs:        BaseArgs(cfg.Profile),
		profiles:        Profiles(cfg.Profile),
		probeTimeout:    probeTimeout,
		downloadTimeout: downloadTimeout,
	}
}

// Probe runs yt-dlp in metadata-only mode and returns its JSON stdout.
func (i *Invoker) Probe(ctx context.Context, url string, platform domain.Platform) ([]byte, error) {
	args := i.Args(platform, "--dump-json", "--skip-download", url)
	out, err := i.invoke(ctx, args, i.probeTimeout)
	if err != nil {
		return nil, err
	}

	return out.Stdout, nil
}

// FetchVideo downloads the best video+audio (or best combined) stream,
// remuxed to mp4, to outputTemplate.
func (i *Invoker) FetchVideo(ctx context.Context, url string, platform domain.Platform, outputTemplate string) error {
	args := i.Args(platform,
		"-f", VideoFormat,
		"--merge-output-format", VideoContainer,
		"--remux-video", VideoContainer,
		"-o", outputTemplate,
		url,
	)

	_, err := i.invoke(ctx, args, i.downloadTimeout)
	return err
}

// ExtractAudio re-encodes the best audio to mp3 at outputTemplate.
func (i *Invoker) ExtractAudio(ctx context.Context, url string, platform domain.Platform, outputTemplate string) error {
	args := i.Args(platform,
		"-x",
		"--audio-format", AudioFormat,
		"--audio-quality", AudioQualityMax,
		"-o", outputTemplate,
		url,
	)

	_, err := i.invoke(ctx, args, i.downloadTimeout)
	return err
}

// Version reports the version of whichever strategy launches first.
func (i *Invoker) Version(ctx context.Context) (string, error) {
	out, err := i.invoke(ctx, []string{"--version"}, i.probeTimeout)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out.Stdout)), nil
}

// Args builds the full argument list for a platform: base flags, then the
// platform profile, then the mode specific arguments.
func (i *Invoker) Args(platform domain.Platform, modeArgs ...string) []string {
	profile, ok := i.profiles[platform]
	if !ok {
		profile = i.profiles[domain.PlatformUnknown]
	}

	profileArgs := profile.Args()
	args := make([]string, 0, len(i.baseArgs)+len(profileArgs)+len(modeArgs))
	args = append(args, i.baseArgs...)
	args = append(args, profileArgs...)
	return append(args, modeArgs...)
}

// invoke tries each strategy in order. Only a failure to launch moves on to
// the next strategy; a launched process that fails is reported as-is.
func (i *Invoker) invoke(ctx context.Context, args []string, timeout time.Duration) (*process.Output, error) {
	var lastLaunchErr error
	for _, strategy := range i.strategies {
		command := process.Command{
			Name:    strategy.Command,
			Args:    append(append([]string(nil), strategy.PrefixArgs...), args...),
			Timeout: timeout,
		}

		out, err := i.runner.Run(ctx, command)
		if err == nil {
			return out, nil
		}

		var launchErr *process.LaunchError
		if errors.As(err, &launchErr) {
			log.Warnf("Strategy %q could not launch %s: %v\n", strategy.Name, strategy.Command, launchErr.Err)
			lastLaunchErr = err
			continue
		}

		return nil, err
	}

	if lastLaunchErr == nil {
		return nil, domain.ErrExtractorUnavailable
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrExtractorUnavailable, lastLaunchErr)
}
