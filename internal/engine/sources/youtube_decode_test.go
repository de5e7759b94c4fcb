package sources

import (
	"errors"
	"testing"
)

func TestJSON3Decoder(t *testing.T) {
	data := []byte(`{"events":[
		{"tStartMs":0,"dDurationMs":5000},
		{"tStartMs":1200,"dDurationMs":2500,"segs":[{"utf8":"hello "},{"utf8":"world"}]},
		{"tStartMs":3700,"dDurationMs":10,"segs":[{"utf8":"\n"}]},
		{"tStartMs":4000,"dDurationMs":1500,"segs":[{"utf8":"Tom &amp; Jerry"}]}
	]}`)
	segs, err := JSON3Decoder{}.Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[0].Start != 1.2 || segs[0].Duration != 2.5 || segs[0].Text != "hello world" {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if segs[1].Start != 4 || segs[1].Text != "Tom & Jerry" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
}

func TestJSON3DecoderMalformed(t *testing.T) {
	if _, err := (JSON3Decoder{}).Decode([]byte(`<transcript>`)); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}

func TestJSON3DecoderEmptyIsNotError(t *testing.T) {
	segs, err := JSON3Decoder{}.Decode([]byte(`{"events":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments", len(segs))
	}
}

func TestTimedTextDecoder(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantTexts []string
		wantStart []float64
	}{
		{
			name:      "legacy text elements",
			data:      `<?xml version="1.0" encoding="utf-8" ?><transcript><text start="0.5" dur="1.5">first &amp;amp; line</text><text start="2" dur="1">second</text></transcript>`,
			wantTexts: []string{"first & line", "second"},
			wantStart: []float64{0.5, 2},
		},
		{
			name:      "srv3 paragraphs in milliseconds",
			data:      `<timedtext format="3"><body><p t="1000" d="2000">one</p><p t="3500" d="500"><s>two</s> <s>words</s></p></body></timedtext>`,
			wantTexts: []string{"one", "two words"},
			wantStart: []float64{1, 3.5},
		},
		{
			name:      "fragment without start skipped",
			data:      `<transcript><text dur="1">orphan</text><text start="4" dur="1">kept</text></transcript>`,
			wantTexts: []string{"kept"},
			wantStart: []float64{4},
		},
		{
			name:      "missing duration defaults to zero",
			data:      `<transcript><text start="7">no dur</text></transcript>`,
			wantTexts: []string{"no dur"},
			wantStart: []float64{7},
		},
		{
			name:      "multiline text",
			data:      "<transcript><text start=\"1\" dur=\"2\">line one\nline two</text></transcript>",
			wantTexts: []string{"line one line two"},
			wantStart: []float64{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := TimedTextDecoder{}.Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(segs) != len(tt.wantTexts) {
				t.Fatalf("got %d segments, want %d: %+v", len(segs), len(tt.wantTexts), segs)
			}
			for i := range segs {
				if segs[i].Text != tt.wantTexts[i] {
					t.Errorf("segment %d text = %q, want %q", i, segs[i].Text, tt.wantTexts[i])
				}
				if segs[i].Start != tt.wantStart[i] {
					t.Errorf("segment %d start = %v, want %v", i, segs[i].Start, tt.wantStart[i])
				}
			}
		})
	}
}

func TestTimedTextDecoderNoMatches(t *testing.T) {
	_, err := TimedTextDecoder{}.Decode([]byte(`<html>nothing here</html>`))
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("expected ErrNoSegments, got %v", err)
	}
}

func TestFallbackDecoder(t *testing.T) {
	t.Run("valid json with zero events falls through to markup", func(t *testing.T) {
		// A JSON document whose string value carries legacy markup: json3 yields nothing,
		// the timedtext scan still finds the fragment.
		data := []byte(`{"events":[],"note":"<text start='1' dur='2'>from markup</text>"}`)
		segs, err := captionDecoder.Decode(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(segs) != 1 || segs[0].Text != "from markup" {
			t.Errorf("got %+v", segs)
		}
	})

	t.Run("xml payload", func(t *testing.T) {
		segs, err := captionDecoder.Decode([]byte(`<transcript><text start="0" dur="1">hi</text></transcript>`))
		if err != nil || len(segs) != 1 {
			t.Fatalf("got %+v, %v", segs, err)
		}
	})

	t.Run("json3 payload", func(t *testing.T) {
		segs, err := captionDecoder.Decode([]byte(`{"events":[{"tStartMs":0,"dDurationMs":1,"segs":[{"utf8":"hi"}]}]}`))
		if err != nil || len(segs) != 1 {
			t.Fatalf("got %+v, %v", segs, err)
		}
	})

	t.Run("both fail", func(t *testing.T) {
		_, err := captionDecoder.Decode([]byte(`garbage`))
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, ErrNoSegments) {
			t.Errorf("joined error should carry the markup failure, got %v", err)
		}
	})
}
