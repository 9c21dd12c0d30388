// Package mcp exposes the workout store to MCP clients as read-only tools
// and resources. Writes stay on the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/repregret/internal/progress"
	"github.com/claude/repregret/internal/storage"
)

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, agg *progress.Aggregator, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("rep-regret", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Personal workout log. Query workout templates, exercises, logged sessions and sets, and per-exercise progress series."),
	)

	h := &handlers{db: db, agg: agg, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListTemplates, Handler: h.listTemplates},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetSets, Handler: h.getSets},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetCounts, Handler: h.getCounts},
	)

	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resPlan, Handler: h.plan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db  *storage.DB
	agg *progress.Aggregator
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"repregret://active_session",
	"Active Session",
	mcp.WithResourceDescription("The currently unfinished workout session, or null when none is active"),
	mcp.WithMIMEType("application/json"),
)

var resPlan = mcp.NewResource(
	"repregret://plan",
	"Weekly Plan",
	mcp.WithResourceDescription("All workout templates with their exercises, ordered by day of week"),
	mcp.WithMIMEType("application/json"),
)

// --- Resource handlers ---

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	active, err := h.db.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(active)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) plan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates, err := h.db.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := h.db.ListExercises(ctx, nil)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(map[string]any{
		"templates": templates,
		"exercises": exercises,
	})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
