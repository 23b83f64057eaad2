// Package mcp exposes the redactor as tools of a stdio MCP server, so other
// agents can scrub text before it leaves the machine.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

const (
	ToolRedactText     = "redact_text"
	ToolDetectEntities = "detect_entities"
)

type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
	Detect(ctx context.Context, text string) ([]core.DetectedSpan, error)
	Entities() []core.EntityKind
}

// Entity is a detected span without the text it covers.
type Entity struct {
	Kind  core.EntityKind `json:"entity_type"`
	Start int             `json:"start"`
	End   int             `json:"end"`
	Score float64         `json:"score"`
}

type Server struct {
	mcp      *server.MCPServer
	redactor Redactor
	in       io.Reader
	out      io.Writer
}

func NewServer(redactor Redactor, in io.Reader, out io.Writer) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			"piichat",
			core.AppVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		redactor: redactor,
		in:       in,
		out:      out,
	}

	s.mcp.AddTool(mcpproto.NewTool(ToolRedactText,
		mcpproto.WithDescription("Replace personal data in the text with <KIND> placeholders."),
		mcpproto.WithString("text",
			mcpproto.Required(),
			mcpproto.Description("Text to redact"),
		),
	), s.redactText)

	s.mcp.AddTool(mcpproto.NewTool(ToolDetectEntities,
		mcpproto.WithDescription("List the kinds and byte offsets of personal data found in the text. The matched values are not returned."),
		mcpproto.WithString("text",
			mcpproto.Required(),
			mcpproto.Description("Text to analyze"),
		),
	), s.detectEntities)

	return s
}

// Start serves requests on the configured streams until ctx is done or the
// input is closed.
func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("serving mcp over stdio")

	err := server.NewStdioServer(s.mcp).Listen(ctx, s.in, s.out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) redactText(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	redacted, err := s.redactor.Redact(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("tool", ToolRedactText).Msg("redaction failed")
		return mcpproto.NewToolResultError("redaction failed, text was not processed"), nil
	}
	return mcpproto.NewToolResultText(redacted), nil
}

func (s *Server) detectEntities(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	spans, err := s.redactor.Detect(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("tool", ToolDetectEntities).Msg("detection failed")
		return mcpproto.NewToolResultError("detection failed"), nil
	}

	entities := make([]Entity, 0, len(spans))
	for _, sp := range spans {
		entities = append(entities, Entity{Kind: sp.Kind, Start: sp.Start, End: sp.End, Score: sp.Score})
	}

	data, err := json.Marshal(map[string][]Entity{"entities": entities})
	if err != nil {
		return nil, err
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
