package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
	"github.com/ziadkadry99/knoweval/internal/session"
)

// handleListNotes lists the knowledge folder.
func (s *Server) handleListNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.session.Store().ListInfo()
	if err != nil {
		if errors.Is(err, knowledge.ErrNotFound) {
			return mcp.NewToolResultError("The knowledge folder does not exist. Create a note first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("listing notes failed: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("No knowledge files yet."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d knowledge file(s):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "- %s (%s, modified %s)\n", f.Name, f.SizeLabel(), f.ModifiedLabel())
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleReadNote returns the text of one note and selects it.
func (s *Server) handleReadNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	f, err := s.session.Select(name)
	if err != nil {
		return toolError("reading "+name, err), nil
	}
	return mcp.NewToolResultText(f.Content), nil
}

func (s *Server) handleCreateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	content := request.GetString("content", "")
	if _, err := s.session.Create(ctx, name, content); err != nil {
		return toolError("creating "+name, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created %s.", name)), nil
}

func (s *Server) handleSaveNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	saved, err := s.session.Save(ctx, name, content)
	if err != nil {
		return toolError("saving "+name, err), nil
	}
	if !saved {
		return mcp.NewToolResultText("No changes to save."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s.", name)), nil
}

// handleEvaluateNote runs one evaluation and formats the feedback as
// markdown sections.
func (s *Server) handleEvaluateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	focus, err := evaluator.ParseFocus(request.GetString("focus", "general"))
	if err != nil {
		return toolError("evaluating "+name, err), nil
	}
	model := request.GetString("model", s.defaultModel)

	var out *session.Outcome
	args := request.GetArguments()
	if content, ok := args["content"].(string); ok {
		out, err = s.session.Evaluate(ctx, session.Request{File: name, Content: content, Focus: focus, Model: model}, nil)
	} else {
		out, err = s.session.EvaluateFile(ctx, name, focus, model, nil)
	}
	if err != nil {
		return toolError("evaluating "+name, err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Evaluation of %s (%s, %s)\n", name, out.Evaluation.Model, out.Evaluation.Focus)
	for _, sec := range out.Sections() {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", sec.Title, strings.TrimSpace(sec.Body))
	}
	fmt.Fprintf(&sb, "\nArchived as %s.\n", out.Record)
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListEvaluations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	records, err := s.session.History(name)
	if err != nil {
		return toolError("listing evaluations of "+name, err), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No evaluations found for %s.", name)), nil
	}
	return mcp.NewToolResultText(strings.Join(records, "\n")), nil
}

func (s *Server) handleGetEvaluation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	record, err := request.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: record"), nil
	}
	rec, err := s.session.Record(name, record)
	if err != nil {
		return toolError("loading "+record, err), nil
	}
	return mcp.NewToolResultText(string(rec.Raw)), nil
}

// toolError reports a failure to the agent as a tool result rather than a
// protocol error, so the agent can read it and correct its call.
func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err))
}
