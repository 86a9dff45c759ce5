// Package mcp exposes the debate engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/service"
)

// ServerConfig holds the MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps carries the services the tools run on.
type ServerDeps struct {
	Debates *service.DebateService
	Synth   *service.Synthesizer

	// Defaults applied when a tool call leaves the argument unset.
	Rounds               int
	MinRounds            int
	ConvergenceThreshold int
	MaxTokens            int
	CompressMaxChars     int
	Models               debate.Models
}

// Server wraps an MCP server with the debate tools registered.
type Server struct {
	mcpServer *mcpserver.MCPServer
	deps      ServerDeps
}

// NewServer creates the MCP server and registers all tools.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(
			cfg.Name,
			cfg.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
		),
		deps: deps,
	}
	s.registerTools()
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving MCP over stdin/stdout until the client
// disconnects or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpserver.NewStdioServer(s.mcpServer)
	return srv.Listen(ctx, os.Stdin, os.Stdout)
}
