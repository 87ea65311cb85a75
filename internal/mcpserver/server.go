// Package mcpserver exposes the tool registry as a Model Context Protocol
// server over stdio.
package mcpserver

import (
	gocontext "context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/tools"
)

// Name is the server name announced during initialization.
const Name = "edgebench"

// Server wraps an MCP server whose tools are backed by a registry.
type Server struct {
	mcp       *server.MCPServer
	registry  *tools.Registry
	publisher events.Publisher
	logger    *zap.Logger
	names     map[string]string // MCP name to registry name
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Nothing is ever written to stdout, which
// carries the protocol.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher sets where tool.call events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// New builds a server announcing every tool in reg.
func New(reg *tools.Registry, version string, opts ...Option) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(Name, version, server.WithToolCapabilities(true)),
		registry: reg,
		logger:   zap.NewNop(),
		names:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, t := range reg.List("") {
		spec := ToolSpec(t)
		s.names[spec.Name] = t.Name()
		s.mcp.AddTool(spec, s.handler(t))
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Tools returns the announced MCP tool names mapped to registry names.
func (s *Server) Tools() map[string]string {
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

// ServeStdio serves requests on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio", zap.Int("tools", len(s.names)))
	return server.ServeStdio(s.mcp)
}

// ToolName converts a registry name such as "fs:list" to the MCP form
// "fs_list".
func ToolName(name string) string {
	return strings.NewReplacer(":", "_", ".", "_").Replace(name)
}

// ToolSpec describes t as an MCP tool. Integer fields are announced as
// numbers.
func ToolSpec(t tools.Tool) mcp.Tool {
	schema := t.InputSchema()
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for name, field := range schema.Properties {
		var props []mcp.PropertyOption
		if field.Description != "" {
			props = append(props, mcp.Description(field.Description))
		}
		if required[name] {
			props = append(props, mcp.Required())
		}
		switch field.Type {
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(name, props...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, props...))
		default:
			opts = append(opts, mcp.WithString(name, props...))
		}
	}
	return mcp.NewTool(ToolName(t.Name()), opts...)
}

func (s *Server) handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx gocontext.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		for _, name := range t.InputSchema().Required {
			if _, ok := args[name]; !ok {
				return mcp.NewToolResultError(fmt.Sprintf("required parameter %q missing", name)), nil
			}
		}

		out, err := tools.Call(ctx, t, agctx.NewArgs(args, "mcp"), s.publisher)
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", t.Name()), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Debug("tool called", zap.String("tool", t.Name()))
		return mcp.NewToolResultText(tools.Render(out)), nil
	}
}
