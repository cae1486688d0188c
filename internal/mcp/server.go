package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the knowledge folder and the
// evaluator as tools. All calls share one session.
type Server struct {
	session      *session.Session
	defaultModel string
	log          *zap.Logger
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server driving the given session.
func NewServer(s *session.Session, defaultModel string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		session:      s,
		defaultModel: defaultModel,
		log:          logger.Named("mcp"),
	}

	srv.mcp = server.NewMCPServer(
		"knoweval",
		Version,
		server.WithToolCapabilities(false),
	)

	srv.registerTools()

	return srv
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listNotesTool, s.handleListNotes)
	s.mcp.AddTool(readNoteTool, s.handleReadNote)
	s.mcp.AddTool(createNoteTool, s.handleCreateNote)
	s.mcp.AddTool(saveNoteTool, s.handleSaveNote)
	s.mcp.AddTool(evaluateNoteTool, s.handleEvaluateNote)
	s.mcp.AddTool(listEvaluationsTool, s.handleListEvaluations)
	s.mcp.AddTool(getEvaluationTool, s.handleGetEvaluation)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	s.log.Info("serving MCP on stdio", zap.String("session", s.session.ID))
	return server.ServeStdio(s.mcp)
}
