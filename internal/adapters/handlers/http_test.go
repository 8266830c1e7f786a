package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reelgrab/internal/adapters/handlers"
	"reelgrab/internal/adapters/process"
	"reelgrab/internal/adapters/store/jsonfile"
	"reelgrab/internal/core/domain"
)

type mockDownloader struct{ mock.Mock }

func (m *mockDownloader) Download(ctx context.Context, url string) (*domain.DownloadResult, error) {
	args := m.Called(url)
	result, _ := args.Get(0).(*domain.DownloadResult)
	return result, args.Error(1)
}

type stubHealth struct {
	version string
	err     error
}

func (s stubHealth) Version(ctx context.Context) (string, error) {
	return s.version, s.err
}

type fixture struct {
	gateway    *handlers.Gateway
	downloader *mockDownloader
	store      *jsonfile.Store
	config     *handlers.Config
}

func newFixture(t *testing.T, health handlers.HealthChecker) *fixture {
	dir := t.TempDir()
	config := &handlers.Config{
		DownloadsDir: filepath.Join(dir, "downloads"),
		AudiosDir:    filepath.Join(dir, "audios"),
		WebDir:       filepath.Join(dir, "web"),
	}
	for _, d := range []string{config.DownloadsDir, config.AudiosDir, config.WebDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}

	if health == nil {
		health = stubHealth{version: "2024.08.06"}
	}

	downloader := &mockDownloader{}
	store := jsonfile.New(filepath.Join(dir, "data", "downloads.json"))
	return &fixture{
		gateway:    handlers.NewGateway(config, downloader, store, health),
		downloader: downloader,
		store:      store,
		config:     config,
	}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	f.gateway.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorDto {
	var body handlers.ErrorDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleResult(id string) *domain.DownloadResult {
	return &domain.DownloadResult{
		ID:        id,
		Platform:  domain.PlatformTikTok,
		InputURL:  "https://www.tiktok.com/@user/video/1",
		VideoPath: "/downloads/" + id + "-clip.mp4",
		Filename:  id + "-clip.mp4",
		AudioPath: "/audios/" + id + "-audio.mp3",
		Title:     "clip",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateDownload(t *testing.T) {
	f := newFixture(t, nil)
	url := "https://www.tiktok.com/@user/video/1"
	f.downloader.On("Download", url).Return(sampleResult("abc"), nil).Once()

	rec := f.do(http.MethodPost, "/api/download", `{"url": "  `+url+`  "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto handlers.DownloadDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "abc", dto.ID)
	assert.Equal(t, "/files/videos/abc-clip.mp4", dto.VideoFileURL)
	assert.Equal(t, "/files/audios/abc-audio.mp3", dto.AudioFileURL)
	assert.False(t, dto.StoredAt.IsZero())
	f.downloader.AssertExpectations(t)

	records, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].ID)
}

func TestCreateDownloadRejectsInvalidInput(t *testing.T) {
	bodies := map[string]string{
		"MissingURL": `{}`,
		"NotAURL":    `{"url": "not a url"}`,
		"BadJSON":    `{"url": `,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := f.do(http.MethodPost, "/api/download", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, domain.KindValidation, decodeError(t, rec).Kind)
			f.downloader.AssertNotCalled(t, "Download", mock.Anything)
		})
	}
}

func TestCreateDownloadMapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   domain.ErrorKind
	}{
		{"MissingFile", &domain.StepError{Step: "resolve-video", Err: domain.ErrFileNotFound}, http.StatusUnprocessableEntity, domain.KindExtraction},
		{"Timeout", &domain.StepError{Step: "fetch-video", Err: &process.TimeoutError{Name: "yt-dlp", Timeout: time.Minute}}, http.StatusGatewayTimeout, domain.KindTimeout},
		{"LoginRequired", &process.ExitError{Name: "yt-dlp", ExitCode: 1, Stderr: "ERROR: login required"}, http.StatusForbidden, domain.KindAccess},
		{"Gone", &process.ExitError{Name: "yt-dlp", ExitCode: 1, Stderr: "HTTP Error 404: Not Found"}, http.StatusNotFound, domain.KindNotFound},
		{"Network", &process.ExitError{Name: "yt-dlp", ExitCode: 1, Stderr: "Connection reset by peer"}, http.StatusServiceUnavailable, domain.KindNetwork},
		{"Unavailable", domain.ErrExtractorUnavailable, http.StatusInternalServerError, domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.downloader.On("Download", mock.Anything).Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/api/download", `{"url": "https://www.instagram.com/reel/abc/"}`)
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, domain.UserMessage(tt.kind), body.Message)

			records, err := f.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records, "failed downloads must not be persisted")
		})
	}
}

func TestListAndGetDownloads(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.store.Save(ctx, *sampleResult("first"))
	require.NoError(t, err)
	_, err = f.store.Save(ctx, *sampleResult("second"))
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/downloads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []handlers.DownloadDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)

	rec = f.do(http.MethodGet, "/api/downloads/first", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dto handlers.DownloadDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "first", dto.ID)

	rec = f.do(http.MethodGet, "/api/downloads/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.KindNotFound, decodeError(t, rec).Kind)
}

func TestListDownloadsEmpty(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/downloads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := newFixture(t, nil).do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "extractor": "2024.08.06"}`, rec.Body.String())

	degraded := newFixture(t, stubHealth{err: errors.New("extractor could not be launched")})
	rec = degraded.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestStaticFiles(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.config.DownloadsDir, "abc-clip.mp4"), []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.config.AudiosDir, "abc-audio.mp3"), []byte("audio"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.config.WebDir, "index.html"), []byte("<html></html>"), 0o644))

	rec := f.do(http.MethodGet, "/files/videos/abc-clip.mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video", rec.Body.String())

	rec = f.do(http.MethodGet, "/files/audios/abc-audio.mp3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio", rec.Body.String())

	rec = f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>")
}

func TestFileLinksSurviveTitlesWithHashtags(t *testing.T) {
	f := newFixture(t, nil)
	filename := "abc-Dance #fyp #viral 100%.mp4"
	require.NoError(t, os.WriteFile(filepath.Join(f.config.DownloadsDir, filename), []byte("video"), 0o644))

	result := sampleResult("abc")
	result.Filename = filename
	result.VideoPath = filepath.Join(f.config.DownloadsDir, filename)
	result.AudioPath = ""
	_, err := f.store.Save(context.Background(), *result)
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/downloads/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dto handlers.DownloadDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "/files/videos/abc-Dance%20%23fyp%20%23viral%20100%25.mp4", dto.VideoFileURL)
	assert.NotContains(t, dto.VideoFileURL, "#")

	rec = f.do(http.MethodGet, dto.VideoFileURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video", rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, handlers.StatusFor(domain.KindValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, handlers.StatusFor(domain.KindExtraction))
	assert.Equal(t, http.StatusInternalServerError, handlers.StatusFor("mystery"))
}
