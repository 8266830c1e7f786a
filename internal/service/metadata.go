package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"reelgrab/internal/core/domain"
)

// Music fields TikTok has been seen to expose an audio stream under, as
// dotted paths into the probe document. List values yield their first entry.
var tiktokMusicFields = []string{
	"music_url",
	"music.play_url",
	"music.playUrl",
	"music_info.play_url.url_list",
	"music_info.play_url",
	"track_url",
	"music_urls",
}

// ParseProbe decodes the extractor's info JSON. Only the first JSON document
// on stdout is considered.
func ParseProbe(stdout []byte) (*domain.ProbeMetadata, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, errors.New("probe produced no output")
	}

	var raw map[string]any
	if err := json.NewDecoder(bytes.NewReader(trimmed)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("probe output is not valid JSON: %w", err)
	}
	if raw == nil {
		return nil, errors.New("probe output is not a JSON object")
	}

	meta := &domain.ProbeMetadata{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           meta,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("probe output has unexpected shape: %w", err)
	}

	meta.Raw = raw
	return meta, nil
}

// SelectThumbnail returns the last thumbnails entry, else the single
// thumbnail field.
func SelectThumbnail(meta *domain.ProbeMetadata) string {
	if meta == nil {
		return ""
	}

	if n := len(meta.Thumbnails); n > 0 && meta.Thumbnails[n-1].URL != "" {
		return meta.Thumbnails[n-1].URL
	}

	return meta.Thumbnail
}

// SelectAudioURL picks the highest bitrate audio-only format. Ties keep the
// earliest format. TikTok falls back to its music metadata fields.
func SelectAudioURL(meta *domain.ProbeMetadata, platform domain.Platform) string {
	if meta == nil {
		return ""
	}

	var best *domain.ProbeFormat
	for i := range meta.Formats {
		format := &meta.Formats[i]
		if !format.HasAudioOnly() || format.URL == "" {
			continue
		}
		if best == nil || format.Bitrate() > best.Bitrate() {
			best = format
		}
	}
	if best != nil {
		return best.URL
	}

	if platform == domain.PlatformTikTok {
		return findMusicURL(meta.Raw)
	}

	return ""
}

// PublishedAt formats the probe's publish time as ISO 8601.
func PublishedAt(meta *domain.ProbeMetadata) string {
	if meta == nil {
		return ""
	}

	if meta.Timestamp != nil && *meta.Timestamp > 0 {
		return time.Unix(int64(*meta.Timestamp), 0).UTC().Format(time.RFC3339)
	}

	if meta.UploadDate != "" {
		if t, err := time.Parse("20060102", meta.UploadDate); err == nil {
			return t.Format("2006-01-02")
		}
		return meta.UploadDate
	}

	return ""
}

func findMusicURL(raw map[string]any) string {
	for _, field := range tiktokMusicFields {
		if url := asAbsoluteURL(lookup(raw, strings.Split(field, "."))); url != "" {
			return url
		}
	}
	return ""
}

func lookup(node any, path []string) any {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[key]
	}
	return node
}

func asAbsoluteURL(value any) string {
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v
		}
	case []any:
		if len(v) > 0 {
			return asAbsoluteURL(v[0])
		}
	}
	return ""
}
