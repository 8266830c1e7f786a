package ytdlp

import (
	"strings"

	"reelgrab/internal/core/domain"
)

// NormalizeURL strips the query string from Instagram URLs; tracking
// parameters there have been seen to break extraction. Other URLs are
// returned untouched.
func NormalizeURL(url string, platform domain.Platform) string {
	if platform != domain.PlatformInstagram {
		return url
	}

	cleaned, _, _ := strings.Cut(url, "?")
	return cleaned
}

// CandidateURLs returns the URLs worth probing for a submission, in order of
// preference. The first entry is always the normalized URL.
func CandidateURLs(url string, platform domain.Platform) []string {
	cleaned := NormalizeURL(url, platform)
	candidates := []string{cleaned}

	if platform == domain.PlatformInstagram {
		for _, segment := range []string{"/reel/", "/reels/", "/tv/"} {
			if strings.Contains(cleaned, segment) {
				candidates = append(candidates, strings.Replace(cleaned, segment, "/p/", 1))
				break
			}
		}
	}

	return candidates
}
