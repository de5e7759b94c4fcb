package engine

// TrackKind distinguishes owner-uploaded captions from speech recognition output.
type TrackKind string

const (
	TrackManual TrackKind = "manual"
	TrackAuto   TrackKind = "auto"
)

// CaptionTrack is one caption stream declared for a video.
// Locator is session-bound upstream and must not outlive the request that resolved it.
type CaptionTrack struct {
	Locator      string
	LanguageCode string
	Kind         TrackKind
	DisplayName  string
}

// CaptionSegment is one timed caption line; Text is already normalized.
type CaptionSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// TranscriptResult is a successful acquisition.
// Method records which tier or path produced it; it is diagnostic only.
type TranscriptResult struct {
	Segments []CaptionSegment
	Language string
	Method   string
}

// Transcript response statuses.
const (
	StatusOK         = "ok"
	StatusNoCaptions = "no_captions"
	StatusFailed     = "failed"
	StatusInvalid    = "invalid"
)

// TranscriptInput is the input for youtube_transcript.
type TranscriptInput struct {
	VideoID string `json:"video_id" jsonschema:"11-character YouTube video id"`
	Lang    string `json:"lang,omitempty" jsonschema:"Preferred caption language (BCP 47, e.g. en, es, pt-BR)"`
}

// TranscriptOutput is the stable row shape returned for every request.
// Success is false only for invalid input; callers detect a missing transcript
// from Status, Error or an empty Segments list.
type TranscriptOutput struct {
	Success  bool             `json:"success"`
	Status   string           `json:"status"`
	VideoID  string           `json:"video_id,omitempty"`
	Language string           `json:"language"`
	Segments []CaptionSegment `json:"segments"`
	Raw      string           `json:"raw"`
	Error    string           `json:"error,omitempty"`
	Method   string           `json:"method,omitempty"`
}

// TranscriptBatchInput is the input for youtube_transcript_batch.
type TranscriptBatchInput struct {
	VideoIDs []string `json:"video_ids" jsonschema:"YouTube video ids (max 50)"`
	Lang     string   `json:"lang,omitempty" jsonschema:"Preferred caption language for every video"`
}

// TranscriptBatchOutput holds one TranscriptOutput per requested id, in request order.
type TranscriptBatchOutput struct {
	Results []TranscriptOutput `json:"results"`
}
