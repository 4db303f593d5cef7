// Package mcp serves the code graph to AI agents over the Model Context
// Protocol: line-delimited JSON-RPC 2.0 on standard I/O. Tools map one to
// one onto query engine and context builder operations.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ravescovi/codegraph/internal/contextual"
	"github.com/ravescovi/codegraph/internal/query"
	"github.com/ravescovi/codegraph/internal/store"
)

// Version is the protocol-visible server version.
const Version = "1.0.0"

// Server wraps the MCP server with graph-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
	engine    *query.Engine
	builder   *contextual.Builder
	root      string
}

// New creates the server over an open store.
func New(s *store.Store, engine *query.Engine, builder *contextual.Builder, root string) *Server {
	mcpServer := server.NewMCPServer(
		"codegraph",
		Version,
		server.WithToolCapabilities(false),
	)

	srv := &Server{
		mcpServer: mcpServer,
		store:     s,
		engine:    engine,
		builder:   builder,
		root:      root,
	}
	srv.registerTools()
	return srv
}

// ServeStdio runs the server on standard I/O until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("graph_search",
		mcp.WithDescription("Search code entities by name or keywords"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool("graph_callers",
		mcp.WithDescription("List the direct callers of a function or method"),
		mcp.WithString("target", mcp.Required(), mcp.Description("Node id or qualified name")),
	), s.handleCallers)

	s.mcpServer.AddTool(mcp.NewTool("graph_callees",
		mcp.WithDescription("List what a function or method directly calls"),
		mcp.WithString("target", mcp.Required(), mcp.Description("Node id or qualified name")),
	), s.handleCallees)

	s.mcpServer.AddTool(mcp.NewTool("graph_impact",
		mcp.WithDescription("Entities that could be affected by changing the target"),
		mcp.WithString("target", mcp.Required(), mcp.Description("Node id or qualified name")),
		mcp.WithNumber("depth", mcp.Description("Traversal depth (default 2)")),
	), s.handleImpact)

	s.mcpServer.AddTool(mcp.NewTool("graph_paths",
		mcp.WithDescription("Find paths between two entities"),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source node id or qualified name")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target node id or qualified name")),
		mcp.WithNumber("max_depth", mcp.Description("Path length cap (default 4)")),
	), s.handlePaths)

	s.mcpServer.AddTool(mcp.NewTool("graph_context",
		mcp.WithDescription("Assemble a bounded context document for a task description"),
		mcp.WithString("task", mcp.Required(), mcp.Description("Natural-language task description")),
		mcp.WithNumber("max_nodes", mcp.Description("Subgraph node cap (default 50)")),
		mcp.WithString("format", mcp.Description("markdown (default) or json")),
	), s.handleContext)

	s.mcpServer.AddTool(mcp.NewTool("graph_status",
		mcp.WithDescription("Index statistics for the current project"),
	), s.handleStatus)
}

// resolveTarget accepts a node id, a qualified name, or a bare name.
func (s *Server) resolveTarget(target string) (*store.Node, error) {
	if n, err := s.store.GetNode(target); err != nil {
		return nil, err
	} else if n != nil {
		return n, nil
	}
	if n, err := s.store.GetNodeByQualifiedName(target); err != nil {
		return nil, err
	} else if n != nil {
		return n, nil
	}
	nodes, err := s.store.GetNodesByName(target)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no entity named %q", target)
	}
	return nodes[0], nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, ok := args["query"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := 20
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	results, err := s.engine.Search(text, query.SearchOptions{Limit: limit})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) handleCallers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleNeighbors(req, s.engine.Callers)
}

func (s *Server) handleCallees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleNeighbors(req, s.engine.Callees)
}

func (s *Server) handleNeighbors(req mcp.CallToolRequest, op func(string) ([]*store.Node, error)) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	target, ok := args["target"].(string)
	if !ok || target == "" {
		return mcp.NewToolResultError("target parameter is required"), nil
	}

	node, err := s.resolveTarget(target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes, err := op(node.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nodes)
}

func (s *Server) handleImpact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	target, ok := args["target"].(string)
	if !ok || target == "" {
		return mcp.NewToolResultError("target parameter is required"), nil
	}
	depth := query.DefaultMaxDepth
	if d, ok := args["depth"].(float64); ok {
		depth = int(d)
	}

	node, err := s.resolveTarget(target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sg, err := s.engine.ImpactRadius(node.ID, query.TraverseOptions{MaxDepth: depth, MaxNodes: query.DefaultMaxNodes})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sg)
}

func (s *Server) handlePaths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	from, _ := args["from"].(string)
	to, _ := args["to"].(string)
	if from == "" || to == "" {
		return mcp.NewToolResultError("from and to parameters are required"), nil
	}
	maxDepth := 4
	if d, ok := args["max_depth"].(float64); ok {
		maxDepth = int(d)
	}

	fromNode, err := s.resolveTarget(from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toNode, err := s.resolveTarget(to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths, err := s.engine.FindPaths(fromNode.ID, toNode.ID, maxDepth, 5)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(paths)
}

func (s *Server) handleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	task, ok := args["task"].(string)
	if !ok || task == "" {
		return mcp.NewToolResultError("task parameter is required"), nil
	}

	opts := contextual.DefaultOptions()
	if n, ok := args["max_nodes"].(float64); ok {
		opts.MaxNodes = int(n)
	}

	result, err := s.builder.Build(ctx, task, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if format, _ := args["format"].(string); format == "json" {
		return jsonResult(result)
	}
	return mcp.NewToolResultText(result.Markdown()), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.store.CountFiles()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes, err := s.store.CountNodes()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	edges, err := s.store.CountEdges()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"root":  s.root,
		"files": files,
		"nodes": nodes,
		"edges": edges,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
