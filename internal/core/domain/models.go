package domain

import (
	"strings"
	"time"
)

// Platform identifies the site a submitted URL belongs to.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformUnknown   Platform = "unknown"
)

func (p Platform) String() string {
	return string(p)
}

// DetectPlatform classifies a URL by substring. It is a pure function of the
// URL text and is evaluated once per request.
func DetectPlatform(url string) Platform {
	lowerURL := strings.ToLower(url)
	switch {
	case strings.Contains(lowerURL, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(lowerURL, "instagram.com"):
		return PlatformInstagram
	default:
		return PlatformUnknown
	}
}

// DownloadResult is the outcome of one orchestration run.
type DownloadResult struct {
	ID           string    `json:"id" db:"id"`
	Platform     Platform  `json:"platform" db:"platform"`
	InputURL     string    `json:"inputUrl" db:"input_url"`
	VideoPath    string    `json:"videoPath" db:"video_path"`
	Filename     string    `json:"filename" db:"filename"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	AudioURL     string    `json:"audioUrl,omitempty" db:"audio_url"`
	AudioPath    string    `json:"audioPath,omitempty" db:"audio_path"`
	Title        string    `json:"title,omitempty" db:"title"`
	PublishedAt  string    `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// StoredResult is a DownloadResult once persisted by a result store.
type StoredResult struct {
	DownloadResult
	StoredAt time.Time `json:"storedAt" db:"stored_at"`
}
