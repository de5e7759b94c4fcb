package ytserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers the transcript tools on the given MCP server:
// youtube_transcript, youtube_transcript_batch.
func RegisterTools(server *mcp.Server, svc *Service) {
	registerTranscript(server, svc)
	registerTranscriptBatch(server, svc)
}

func registerTranscript(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the timed transcript of a YouTube video. Prefers the requested language, then manual captions over auto-generated ones across a fixed language priority list. Returns segments (start, duration, text), the joined raw text, the caption language and a status: ok, no_captions, failed or invalid.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
		out := svc.Transcript(ctx, input.VideoID, input.Lang)
		slog.Debug("youtube_transcript",
			slog.String("id", input.VideoID),
			slog.String("status", out.Status),
			slog.Int("segments", len(out.Segments)))
		return nil, out, nil
	})
}

func registerTranscriptBatch(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript_batch",
		Description: fmt.Sprintf("Fetch transcripts for up to %d YouTube videos at once. Results are returned in request order, one youtube_transcript row per id.", MaxBatchSize),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.TranscriptBatchInput) (*mcp.CallToolResult, engine.TranscriptBatchOutput, error) {
		out, err := svc.Batch(ctx, input.VideoIDs, input.Lang)
		if err != nil {
			return nil, engine.TranscriptBatchOutput{}, err
		}
		return nil, out, nil
	})
}
