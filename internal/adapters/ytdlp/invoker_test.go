package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reelgrab/internal/adapters/process"
	"reelgrab/internal/adapters/ytdlp"
	"reelgrab/internal/core/domain"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, command process.Command) (*process.Output, error) {
	args := m.Called(command.Name)
	if out := args.Get(0); out != nil {
		//nolint:forcetypeassert
		return out.(*process.Output), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingRunner struct {
	commands []process.Command
}

func (r *recordingRunner) Run(ctx context.Context, command process.Command) (*process.Output, error) {
	r.commands = append(r.commands, command)
	return &process.Output{Stdout: []byte("{}")}, nil
}

func newInvoker(runner ytdlp.Runner) *ytdlp.Invoker {
	return ytdlp.NewInvoker(runner, ytdlp.Config{
		Binary:      "yt-dlp",
		Interpreter: "python3",
		Profile:     ytdlp.DefaultProfileConfig(),
	})
}

func TestInvokerFallsBackToModuleWhenBinaryCannotLaunch(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", "yt-dlp").Return(nil, &process.LaunchError{Name: "yt-dlp", Err: exec.ErrNotFound}).Once()
	runner.On("Run", "python3").Return(&process.Output{Stdout: []byte("2024.08.06\n")}, nil).Once()

	version, err := newInvoker(runner).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024.08.06", version)
	runner.AssertExpectations(t)
}

func TestInvokerDoesNotFallBackWhenBinaryExitsNonZero(t *testing.T) {
	runner := &mockRunner{}
	exitErr := &process.ExitError{Name: "yt-dlp", ExitCode: 1, Stderr: "ERROR: Private video"}
	runner.On("Run", "yt-dlp").Return(nil, exitErr).Once()

	_, err := newInvoker(runner).Probe(context.Background(), "https://www.tiktok.com/@u/video/1", domain.PlatformTikTok)
	require.Error(t, err)
	assert.ErrorIs(t, err, exitErr)
	runner.AssertNotCalled(t, "Run", "python3")
}

func TestInvokerReportsUnavailableWhenNothingLaunches(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything).Return(nil, &process.LaunchError{Name: "x", Err: exec.ErrNotFound})

	err := newInvoker(runner).FetchVideo(context.Background(), "https://x", domain.PlatformUnknown, "/tmp/%(title)s.%(ext)s")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractorUnavailable))

	var launchErr *process.LaunchError
	assert.True(t, errors.As(err, &launchErr))
}

func TestModuleStrategyPrefixesInterpreterArgs(t *testing.T) {
	runner := &recordingRunner{}
	invoker := ytdlp.NewInvokerWithStrategies(runner, []ytdlp.Strategy{
		{Name: "module", Command: "python3", PrefixArgs: []string{"-m", "yt_dlp"}},
	}, ytdlp.Config{ProbeTimeout: 5 * time.Second, Profile: ytdlp.DefaultProfileConfig()})

	_, err := invoker.Probe(context.Background(), "https://www.tiktok.com/@u/video/1", domain.PlatformTikTok)
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)

	cmd := runner.commands[0]
	assert.Equal(t, "python3", cmd.Name)
	assert.Equal(t, []string{"-m", "yt_dlp"}, cmd.Args[:2])
	assert.Equal(t, "https://www.tiktok.com/@u/video/1", cmd.Args[len(cmd.Args)-1])
	assert.Equal(t, 5*time.Second, cmd.Timeout)
}

func TestTikTokProfileArguments(t *testing.T) {
	invoker := newInvoker(&recordingRunner{})
	args := invoker.Args(domain.PlatformTikTok, "--dump-json")

	assert.Contains(t, args, "--geo-bypass")
	assert.Contains(t, args, "--user-agent")
	assert.Contains(t, args, "--extractor-args")
	assert.Contains(t, args, ytdlp.DefaultTikTokExtractorArgs)
	assert.Contains(t, args, "--ignore-errors")
	assert.Contains(t, args, "--no-check-certificates")
	assert.NotContains(t, args, "--add-header")
	assert.Equal(t, "--dump-json", args[len(args)-1])
}

func TestInstagramProfileArguments(t *testing.T) {
	invoker := newInvoker(&recordingRunner{})
	args := invoker.Args(domain.PlatformInstagram)

	assert.Contains(t, args, "Referer:"+ytdlp.InstagramReferer)
	assert.Contains(t, args, "--sleep-requests")
	assert.Contains(t, args, "--sleep-interval")
	assert.Contains(t, args, "--max-sleep-interval")
	assert.Contains(t, args, "--retries")
	assert.Contains(t, args, "--extractor-retries")
	assert.Contains(t, args, "--no-check-certificates")
	assert.NotContains(t, args, "--extractor-args")
	assert.NotContains(t, args, "--ignore-errors")
}

func TestUnknownPlatformUsesBaseArgumentsOnly(t *testing.T) {
	cfg := ytdlp.DefaultProfileConfig()
	cfg.FfmpegPath = "/opt/ffmpeg/bin"
	invoker := ytdlp.NewInvoker(&recordingRunner{}, ytdlp.Config{Profile: cfg})

	args := invoker.Args(domain.PlatformUnknown)
	assert.Equal(t, []string{
		"--geo-bypass", "--no-playlist",
		"--user-agent", ytdlp.DefaultUserAgent,
		"--ffmpeg-location", "/opt/ffmpeg/bin",
	}, args)
}

func TestFetchAndExtractModeArguments(t *testing.T) {
	runner := &recordingRunner{}
	invoker := newInvoker(runner)

	require.NoError(t, invoker.FetchVideo(context.Background(), "https://u", domain.PlatformUnknown, "/d/abc-%(title)s.%(ext)s"))
	require.NoError(t, invoker.ExtractAudio(context.Background(), "https://u", domain.PlatformUnknown, "/a/abc-audio.%(ext)s"))
	require.Len(t, runner.commands, 2)

	video := runner.commands[0].Args
	assert.Contains(t, video, ytdlp.VideoFormat)
	assert.Contains(t, video, "--merge-output-format")
	assert.Contains(t, video, "/d/abc-%(title)s.%(ext)s")
	assert.Equal(t, ytdlp.DefaultDownloadTimeout, runner.commands[0].Timeout)

	audio := runner.commands[1].Args
	assert.Contains(t, audio, "-x")
	assert.Contains(t, audio, "mp3")
	assert.Contains(t, audio, "/a/abc-audio.%(ext)s")
}

func TestStrayWindowsBinaryIgnoredElsewhere(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("the local yt-dlp.exe is preferred on Windows")
	}
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(ytdlp.WindowsBinary, []byte{}, 0o755))

	runner := &recordingRunner{}
	_, err := ytdlp.NewInvoker(runner, ytdlp.Config{}).Version(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, runner.commands)
	assert.Equal(t, ytdlp.DefaultBinary, runner.commands[0].Name)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
