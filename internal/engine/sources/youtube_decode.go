package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Decoder turns a caption payload into ordered segments.
// It fails on a structurally malformed payload; an empty result is not an error.
type Decoder interface {
	Decode(data []byte) ([]engine.CaptionSegment, error)
}

// captionDecoder prefers json3 and falls back to timedtext markup on the same bytes.
var captionDecoder Decoder = FallbackDecoder{Primary: JSON3Decoder{}, Secondary: TimedTextDecoder{}}

// --- json3: {"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"..."}]}]} ---

type json3Payload struct {
	Events []struct {
		TStartMs    float64 `json:"tStartMs"`
		DDurationMs float64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// JSON3Decoder decodes the segmented-event format (fmt=json3).
type JSON3Decoder struct{}

func (JSON3Decoder) Decode(data []byte) ([]engine.CaptionSegment, error) {
	var p json3Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json3: %w", err)
	}
	segments := make([]engine.CaptionSegment, 0, len(p.Events))
	for _, ev := range p.Events {
		// Events without segs are window/style events.
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		text := engine.NormalizeText(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, engine.CaptionSegment{
			Start:    nonNegative(ev.TStartMs / 1000),
			Duration: nonNegative(ev.DDurationMs / 1000),
			Text:     text,
		})
	}
	return segments, nil
}

// --- timedtext markup: <text start="1.2" dur="3.4">...</text> and srv3 <p t="1200" d="3400">...</p> ---

type timedTextPattern struct {
	element   *regexp.Regexp
	startAttr string
	durAttr   string
	perSecond float64 // attribute units per second
}

var timedTextPatterns = []timedTextPattern{
	{element: regexp.MustCompile(`(?s)<text\b([^>]*)>(.*?)</text>`), startAttr: "start", durAttr: "dur", perSecond: 1},
	{element: regexp.MustCompile(`(?s)<p\b([^>]*)>(.*?)</p>`), startAttr: "t", durAttr: "d", perSecond: 1000},
}

var xmlAttrRe = regexp.MustCompile(`([A-Za-z_:][\w:.-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// TimedTextDecoder decodes the legacy timed-text markup by pattern scan.
// Fragments without a parseable start time are skipped.
type TimedTextDecoder struct{}

func (TimedTextDecoder) Decode(data []byte) ([]engine.CaptionSegment, error) {
	body := string(data)
	for _, p := range timedTextPatterns {
		matches := p.element.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			continue
		}
		segments := make([]engine.CaptionSegment, 0, len(matches))
		for _, m := range matches {
			attrs := parseAttrs(m[1])
			start, err := strconv.ParseFloat(attrs[p.startAttr], 64)
			if err != nil {
				continue
			}
			dur, err := strconv.ParseFloat(attrs[p.durAttr], 64)
			if err != nil {
				dur = 0
			}
			text := engine.NormalizeText(m[2])
			if text == "" {
				continue
			}
			segments = append(segments, engine.CaptionSegment{
				Start:    nonNegative(start / p.perSecond),
				Duration: nonNegative(dur / p.perSecond),
				Text:     text,
			})
		}
		if len(segments) > 0 {
			return segments, nil
		}
	}
	return nil, fmt.Errorf("timedtext: %w", ErrNoSegments)
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string, 4)
	for _, m := range xmlAttrRe.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2] + m[3]
	}
	return attrs
}

// FallbackDecoder runs Primary and, when it fails or yields nothing, Secondary on the same bytes.
type FallbackDecoder struct {
	Primary   Decoder
	Secondary Decoder
}

func (d FallbackDecoder) Decode(data []byte) ([]engine.CaptionSegment, error) {
	segments, primaryErr := d.Primary.Decode(data)
	if primaryErr == nil && len(segments) > 0 {
		return segments, nil
	}
	engine.IncrDecodeFallback()

	segments, secondaryErr := d.Secondary.Decode(data)
	if secondaryErr == nil && len(segments) > 0 {
		return segments, nil
	}
	if primaryErr == nil {
		primaryErr = ErrNoSegments
	}
	if secondaryErr == nil {
		secondaryErr = ErrNoSegments
	}
	return nil, fmt.Errorf("decode: %w", errors.Join(primaryErr, secondaryErr))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
