package domain

// ProbeMetadata is the subset of the extractor's info JSON that enrichment
// reads. Raw keeps the full decoded document so platform specific fields can
// be searched without widening this struct.
type ProbeMetadata struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Thumbnail  string           `json:"thumbnail"`
	Thumbnails []ProbeThumbnail `json:"thumbnails"`
	Timestamp  *float64         `json:"timestamp"`
	UploadDate string           `json:"upload_date"`
	WebpageURL string           `json:"webpage_url"`
	Formats    []ProbeFormat    `json:"formats"`

	Raw map[string]any `json:"-"`
}

type ProbeThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ProbeFormat struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Ext      string  `json:"ext"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
}

// HasAudioOnly reports whether the format declares an audio codec and no
// video codec.
func (f ProbeFormat) HasAudioOnly() bool {
	hasAudio := f.ACodec != "" && f.ACodec != "none"
	noVideo := f.VCodec == "" || f.VCodec == "none"
	return hasAudio && noVideo
}

// Bitrate prefers the audio bitrate and falls back to the total bitrate.
func (f ProbeFormat) Bitrate() float64 {
	if f.ABR > 0 {
		return f.ABR
	}
	return f.TBR
}
