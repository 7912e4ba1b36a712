package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/answer"
)

var (
	askToolName    = "ask"
	askDescription = "Answer a question about Rwandan law. Retrieves relevant laws from the document store and the configured gazette sources, then generates a short plain-language answer citing the laws it used."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Mode     string `json:"mode,omitempty" jsonschema:"answer mode: hybrid, live, or dbonly (default: hybrid)"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer    string            `json:"answer"`
	Source    string            `json:"source"`
	Mode      string            `json:"mode"`
	Documents []answer.Document `json:"documents,omitempty"`
}

// handleAsk processes an ask request.
func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	mode := answer.ModeHybrid
	if input.Mode != "" {
		mode = answer.Mode(input.Mode)
	}

	logger.Debug("MCP ask request",
		zap.String("question", input.Question),
		zap.String("mode", string(mode)),
	)

	result, err := s.config.Answerer.Answer(ctx, input.Question, mode)
	if err != nil {
		logger.Error("failed to answer question", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to answer question: %v", err)},
			},
		}, AskOutput{}, nil
	}

	output := AskOutput{
		Answer:    result.Answer,
		Source:    string(result.Source),
		Mode:      string(result.Mode),
		Documents: result.Documents,
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal ask output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize answer: %v", err)},
			},
		}, AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
