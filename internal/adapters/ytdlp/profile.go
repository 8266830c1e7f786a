package ytdlp

import (
	"sort"
	"strconv"

	"reelgrab/internal/core/domain"
)

const (
	DefaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultTikTokExtractorArgs = "tiktok:api_hostname=api16-normal-c-useast1a.tiktokv.com;app_info=7355728856979392262"
	InstagramReferer           = "https://www.instagram.com/"
)

// ProfileConfig carries the tunable values used to build argument profiles.
type ProfileConfig struct {
	UserAgent  string
	FfmpegPath string

	TikTokExtractorArgs string

	InstagramSleepRequests    int
	InstagramSleepInterval    int
	InstagramMaxSleepInterval int
	InstagramRetries          int
	InstagramExtractorRetries int
}

// DefaultProfileConfig returns the values the extractor has been observed to
// work best with.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		UserAgent:                 DefaultUserAgent,
		TikTokExtractorArgs:       DefaultTikTokExtractorArgs,
		InstagramSleepRequests:    1,
		InstagramSleepInterval:    2,
		InstagramMaxSleepInterval: 5,
		InstagramRetries:          5,
		InstagramExtractorRetries: 3,
	}
}

// Profile is the per-platform set of flags layered on top of the base flags.
type Profile struct {
	ExtractorArgs      string
	Headers            map[string]string
	NoCheckCertificate bool
	IgnoreErrors       bool
	SleepRequests      int
	SleepInterval      int
	MaxSleepInterval   int
	Retries            int
	ExtractorRetries   int
}

// Profiles builds the platform profile table from config.
func Profiles(cfg ProfileConfig) map[domain.Platform]Profile {
	return map[domain.Platform]Profile{
		domain.PlatformTikTok: {
			ExtractorArgs:      cfg.TikTokExtractorArgs,
			NoCheckCertificate: true,
			IgnoreErrors:       true,
		},
		domain.PlatformInstagram: {
			Headers:            map[string]string{"Referer": InstagramReferer},
			NoCheckCertificate: true,
			SleepRequests:      cfg.InstagramSleepRequests,
			SleepInterval:      cfg.InstagramSleepInterval,
			MaxSleepInterval:   cfg.InstagramMaxSleepInterval,
			Retries:            cfg.InstagramRetries,
			ExtractorRetries:   cfg.InstagramExtractorRetries,
		},
		domain.PlatformUnknown: {},
	}
}

// BaseArgs returns the flags shared by every invocation.
func BaseArgs(cfg ProfileConfig) []string {
	args := []string{"--geo-bypass", "--no-playlist"}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent", cfg.UserAgent)
	}
	if cfg.FfmpegPath != "" {
		args = append(args, "--ffmpeg-location", cfg.FfmpegPath)
	}
	return args
}

// Args renders the profile as extractor flags.
func (p Profile) Args() []string {
	var args []string
	if p.ExtractorArgs != "" {
		args = append(args, "--extractor-args", p.ExtractorArgs)
	}
	// Header order is fixed so argument lists are reproducible.
	for _, key := range sortedKeys(p.Headers) {
		args = append(args, "--add-header", key+":"+p.Headers[key])
	}
	if p.NoCheckCertificate {
		args = append(args, "--no-check-certificates")
	}
	if p.IgnoreErrors {
		args = append(args, "--ignore-errors")
	}
	if p.SleepRequests > 0 {
		args = append(args, "--sleep-requests", strconv.Itoa(p.SleepRequests))
	}
	if p.SleepInterval > 0 {
		args = append(args, "--sleep-interval", strconv.Itoa(p.SleepInterval))
		if p.MaxSleepInterval > p.SleepInterval {
			args = append(args, "--max-sleep-interval", strconv.Itoa(p.MaxSleepInterval))
		}
	}
	if p.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(p.Retries))
	}
	if p.ExtractorRetries > 0 {
		args = append(args, "--extractor-retries", strconv.Itoa(p.ExtractorRetries))
	}
	return args
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
