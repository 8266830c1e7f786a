package localstorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelgrab/internal/core/domain"
	"reelgrab/internal/core/ports"
)

const (
	AudioSuffix    = "-audio"
	AudioExtension = ".mp3"
)

// Extensions of extractor scratch files which must never be reported as a
// finished artifact.
var skippedExtensions = []string{".part", ".ytdl", ".temp", ".tmp"}

// LocalStorage implements ports.ArtifactResolver for the local filesystem.
// Artifacts are correlated with a request purely by the "<id>-" filename
// prefix embedded in the output template.
type LocalStorage struct {
	VideoDir string
	AudioDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(videoDir, audioDir string) *LocalStorage {
	return &LocalStorage{VideoDir: videoDir, AudioDir: audioDir}
}

// Init creates the video and audio directories.
func (s *LocalStorage) Init(ctx context.Context) error {
	for _, dir := range []string{s.VideoDir, s.AudioDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// VideoTemplate returns the extractor output template for a video.
func (s *LocalStorage) VideoTemplate(id string) string {
	return filepath.Join(s.VideoDir, id+"-%(title)s.%(ext)s")
}

// AudioTemplate returns the extractor output template for audio.
func (s *LocalStorage) AudioTemplate(id string) string {
	return filepath.Join(s.AudioDir, id+AudioSuffix+".%(ext)s")
}

// ResolveVideo finds the first file in the video directory named "<id>-*".
func (s *LocalStorage) ResolveVideo(ctx context.Context, id string) (*ports.Artifact, error) {
	sharedDir := filepath.Clean(s.VideoDir) == filepath.Clean(s.AudioDir)
	return s.resolve(s.VideoDir, func(name string) bool {
		if !strings.HasPrefix(name, id+"-") {
			return false
		}
		// With a shared directory the audio artifact also carries the prefix.
		return !(sharedDir && strings.HasPrefix(name, id+AudioSuffix) && strings.HasSuffix(name, AudioExtension))
	})
}

// ResolveAudio finds the file in the audio directory named "<id>-audio*.mp3".
func (s *LocalStorage) ResolveAudio(ctx context.Context, id string) (*ports.Artifact, error) {
	return s.resolve(s.AudioDir, func(name string) bool {
		return strings.HasPrefix(name, id+AudioSuffix) && strings.HasSuffix(name, AudioExtension)
	})
}

func (s *LocalStorage) resolve(dir string, match func(string) bool) (*ports.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isScratchFile(name) || !match(name) {
			continue
		}

		return &ports.Artifact{Path: filepath.Join(dir, name), Filename: name}, nil
	}

	return nil, domain.ErrFileNotFound
}

func isScratchFile(name string) bool {
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
