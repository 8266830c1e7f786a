package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"reelgrab/internal/adapters/ytdlp"
	"reelgrab/internal/core/domain"
	"reelgrab/internal/core/ports"
	"reelgrab/pkg/logger"
)

var log = logger.Get("Orchestrator")

const (
	StepProbe        = "probe"
	StepEnrich       = "enrich"
	StepFetchVideo   = "fetch-video"
	StepResolveVideo = "resolve-video"
	StepExtractAudio = "extract-audio"
	StepResolveAudio = "resolve-audio"
	StepAssemble     = "assemble"
)

// Policy decides what happens to a request when a step fails.
type Policy int

const (
	// Fatal aborts the request and propagates the error.
	Fatal Policy = iota
	// Soft logs the error and continues; the step's fields stay unset.
	Soft
)

func (p Policy) String() string {
	if p == Soft {
		return "soft"
	}
	return "fatal"
}

// StepPlan describes one step of the orchestration sequence.
type StepPlan struct {
	Name   string
	Policy Policy
}

// Config controls the optional behaviour of the Orchestrator.
type Config struct {
	// AudioFailureFatal makes a failed audio extraction abort the request.
	// Left false, a video that downloaded fine is still returned and
	// persisted without audio fields, trading the strict rule that a record
	// only exists once the audio step succeeded for not discarding a good
	// video. A missing audio file after a clean extraction is always soft.
	AudioFailureFatal bool
}

type step struct {
	StepPlan
	run func(context.Context, *job) error
}

// job is the per-request state threaded through the steps. It is never
// shared between requests.
type job struct {
	id       string
	inputURL string
	url      string
	platform domain.Platform

	metadata *domain.ProbeMetadata
	title    string
	thumb    string
	audioURL string
	publish  string

	video *ports.Artifact
	audio *ports.Artifact

	result *domain.DownloadResult
}

// Orchestrator coordinates the probe, video and audio invocations for a URL
// and reconciles them into a DownloadResult.
type Orchestrator struct {
	extractor ports.Extractor
	artifacts ports.ArtifactResolver
	pages     ports.PageScraper
	steps     []step

	newID func() string
	now   func() time.Time
}

// NewOrchestrator creates a new Orchestrator. pages may be nil, in which case
// no page scraping is attempted during enrichment.
func NewOrchestrator(
	extractor ports.Extractor,
	artifacts ports.ArtifactResolver,
	pages ports.PageScraper,
	cfg Config,
) *Orchestrator {
	o := &Orchestrator{
		extractor: extractor,
		artifacts: artifacts,
		pages:     pages,
		newID:     func() string { return uuid.New().String() },
		now:       func() time.Time { return time.Now().UTC() },
	}

	audioPolicy := Soft
	if cfg.AudioFailureFatal {
		audioPolicy = Fatal
	}

	o.steps = []step{
		{StepPlan{StepProbe, Fatal}, o.probe},
		{StepPlan{StepEnrich, Soft}, o.enrich},
		{StepPlan{StepFetchVideo, Fatal}, o.fetchVideo},
		{StepPlan{StepResolveVideo, Fatal}, o.resolveVideo},
		{StepPlan{StepExtractAudio, audioPolicy}, o.extractAudio},
		{StepPlan{StepResolveAudio, Soft}, o.resolveAudio},
		{StepPlan{StepAssemble, Fatal}, o.assemble},
	}

	return o
}

// Plan returns the ordered steps and their failure policies.
func (o *Orchestrator) Plan() []StepPlan {
	plan := make([]StepPlan, len(o.steps))
	for i, s := range o.steps {
		plan[i] = s.StepPlan
	}
	return plan
}

// Download runs every step for rawURL in sequence. A fatal step failure is
// returned as a *domain.StepError and no result is produced; artifacts
// written before the failure are left on disk.
func (o *Orchestrator) Download(ctx context.Context, rawURL string) (*domain.DownloadResult, error) {
	platform := domain.DetectPlatform(rawURL)
	j := &job{
		id:       o.newID(),
		inputURL: rawURL,
		url:      ytdlp.NormalizeURL(rawURL, platform),
		platform: platform,
	}

	log.Infof("[JOB %s] Starting %s download for URL: %s\n", j.id, j.platform, rawURL)
	for _, s := range o.steps {
		if err := ctx.Err(); err != nil {
			return nil, &domain.StepError{Step: s.Name, Err: err}
		}

		log.Debugf("[JOB %s] Step %s\n", j.id, s.Name)
		if err := s.run(ctx, j); err != nil {
			if s.Policy == Soft {
				log.Warnf("[JOB %s] Step %s failed, continuing: %v\n", j.id, s.Name, err)
				continue
			}

			log.Errorf("[JOB %s] Step %s failed: %v\n", j.id, s.Name, err)
			return nil, &domain.StepError{Step: s.Name, Err: err}
		}
	}

	log.Emit(logger.SUCCESS, "[JOB %s] Job completed successfully: %s\n", j.id, j.result.VideoPath)
	return j.result, nil
}

// probe tries each candidate URL in order and keeps the first that the
// extractor accepts. Unparseable output is tolerated: the request carries on
// without metadata.
func (o *Orchestrator) probe(ctx context.Context, j *job) error {
	var lastErr error
	for _, candidate := range ytdlp.CandidateURLs(j.inputURL, j.platform) {
		stdout, err := o.extractor.Probe(ctx, candidate, j.platform)
		if err != nil {
			log.Warnf("[JOB %s] Probe of %s failed: %v\n", j.id, candidate, err)
			lastErr = err
			continue
		}

		j.url = candidate
		meta, err := ParseProbe(stdout)
		if err != nil {
			log.Warnf("[JOB %s] Ignoring unreadable probe metadata: %v\n", j.id, err)
			return nil
		}

		j.metadata = meta
		return nil
	}

	return lastErr
}

func (o *Orchestrator) enrich(ctx context.Context, j *job) error {
	if j.metadata != nil {
		j.title = j.metadata.Title
		j.thumb = SelectThumbnail(j.metadata)
		j.publish = PublishedAt(j.metadata)
		j.audioURL = SelectAudioURL(j.metadata, j.platform)
	}

	if o.pages == nil || (j.title != "" && j.thumb != "") {
		return nil
	}

	page, err := o.pages.Scrape(ctx, j.url)
	if err != nil {
		return err
	}
	if j.title == "" {
		j.title = page.Title
	}
	if j.thumb == "" {
		j.thumb = page.ThumbnailURL
	}

	return nil
}

func (o *Orchestrator) fetchVideo(ctx context.Context, j *job) error {
	log.Infof("[JOB %s] Downloading video...\n", j.id)
	return o.extractor.FetchVideo(ctx, j.url, j.platform, o.artifacts.VideoTemplate(j.id))
}

func (o *Orchestrator) resolveVideo(ctx context.Context, j *job) error {
	artifact, err := o.artifacts.ResolveVideo(ctx, j.id)
	if err != nil {
		return err
	}

	j.video = artifact
	log.Infof("[JOB %s] Saved %s\n", j.id, artifact.Filename)
	return nil
}

func (o *Orchestrator) extractAudio(ctx context.Context, j *job) error {
	log.Infof("[JOB %s] Extracting audio...\n", j.id)
	return o.extractor.ExtractAudio(ctx, j.url, j.platform, o.artifacts.AudioTemplate(j.id))
}

func (o *Orchestrator) resolveAudio(ctx context.Context, j *job) error {
	artifact, err := o.artifacts.ResolveAudio(ctx, j.id)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return errors.New("no audio file was produced")
		}
		return err
	}

	j.audio = artifact
	log.Infof("[JOB %s] Saved %s\n", j.id, artifact.Filename)
	return nil
}

func (o *Orchestrator) assemble(ctx context.Context, j *job) error {
	result := &domain.DownloadResult{
		ID:           j.id,
		Platform:     j.platform,
		InputURL:     j.inputURL,
		VideoPath:    j.video.Path,
		Filename:     j.video.Filename,
		ThumbnailURL: j.thumb,
		AudioURL:     j.audioURL,
		Title:        j.title,
		PublishedAt:  j.publish,
		CreatedAt:    o.now(),
	}
	if j.audio != nil {
		result.AudioPath = j.audio.Path
	}

	j.result = result
	return nil
}
