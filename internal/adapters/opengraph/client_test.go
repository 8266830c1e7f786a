package opengraph_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgrab/internal/adapters/opengraph"
)

func TestScrapeReadsOpenGraphTags(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<title>Fallback title</title>
			<meta property="og:title" content=" Dance challenge " />
			<meta property="og:image" content="https://cdn.example.com/thumb.jpg" />
		</head><body></body></html>`))
	}))
	defer server.Close()

	client := opengraph.NewClient("test-agent/1.0", 5*time.Second)
	meta, err := client.Scrape(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Dance challenge", meta.Title)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", meta.ThumbnailURL)
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestScrapeFallsBackToTitleElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Plain page</title></head></html>`))
	}))
	defer server.Close()

	meta, err := opengraph.NewClient("", time.Second).Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Plain page", meta.Title)
	assert.Empty(t, meta.ThumbnailURL)
}

func TestScrapeRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := opengraph.NewClient("", time.Second).Scrape(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
