package ports

import (
	"context"

	"reelgrab/internal/core/domain"
)

// Extractor defines the contract for driving the external media extractor.
type Extractor interface {
	// Probe runs a metadata-only invocation and returns the raw stdout.
	Probe(ctx context.Context, url string, platform domain.Platform) ([]byte, error)

	// FetchVideo downloads the best video+audio stream to outputTemplate.
	FetchVideo(ctx context.Context, url string, platform domain.Platform, outputTemplate string) error

	// ExtractAudio writes an audio-only rendition to outputTemplate.
	ExtractAudio(ctx context.Context, url string, platform domain.Platform, outputTemplate string) error
}

// Artifact is a file produced by the extractor.
type Artifact struct {
	Path     string
	Filename string
}

// ArtifactResolver locates the files the extractor wrote for a request id.
type ArtifactResolver interface {
	// VideoTemplate returns the output template to hand to the extractor for a video.
	VideoTemplate(id string) string

	// AudioTemplate returns the output template to hand to the extractor for audio.
	AudioTemplate(id string) string

	// ResolveVideo returns the video artifact for id, or domain.ErrFileNotFound.
	ResolveVideo(ctx context.Context, id string) (*Artifact, error)

	// ResolveAudio returns the audio artifact for id, or domain.ErrFileNotFound.
	ResolveAudio(ctx context.Context, id string) (*Artifact, error)
}

// PageMetadata holds the fields a page scrape can recover.
type PageMetadata struct {
	Title        string
	ThumbnailURL string
}

// PageScraper reads metadata embedded in a public page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (*PageMetadata, error)
}

// ResultStore defines the contract for persisting download results.
type ResultStore interface {
	// Save persists the result and returns it stamped with a storage time.
	Save(ctx context.Context, result domain.DownloadResult) (*domain.StoredResult, error)

	// List returns every stored result, newest first.
	List(ctx context.Context) ([]domain.StoredResult, error)

	// Get returns the stored result with the given id, or domain.ErrResultNotFound.
	Get(ctx context.Context, id string) (*domain.StoredResult, error)
}
