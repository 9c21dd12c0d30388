package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repregret/internal/progress"
	"github.com/claude/repregret/internal/storage"
)

// --- Tool definitions ---

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List all workout templates with their name and day of week (1 = Monday)."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List exercises with their default sets, reps and weight, in plan order."),
	mcp.WithString("template", mcp.Description("Filter by workout template id")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List logged workout sessions, newest first. A session without an end time is still in progress."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to all.")),
)

var toolGetSets = mcp.NewTool("get_sets",
	mcp.WithDescription("Query logged sets with weight, reps, RPE and warmup flag."),
	mcp.WithString("session", mcp.Description("Filter by session id")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise id")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Per-exercise progress time series: one value per training day, optionally smoothed with a 7-point moving average."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id")),
	mcp.WithString("metric", mcp.Description("Metric to chart. Defaults to 'weight'."), mcp.Enum("weight", "volume", "est1rm")),
	mcp.WithString("range", mcp.Description("Trailing day window. Defaults to 'all'."), mcp.Enum("7", "30", "90", "all")),
	mcp.WithBoolean("exclude_warmup", mcp.Description("Skip warmup sets. Defaults to false.")),
	mcp.WithBoolean("smooth", mcp.Description("Include the smoothed series. Defaults to false.")),
)

var toolGetCounts = mcp.NewTool("get_counts",
	mcp.WithDescription("Row counts per table: templates, exercises, sessions, sets, meta."),
)

// --- Tool handlers ---

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.db.ListTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var templateID *uuid.UUID
	if v := req.GetString("template", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return mcp.NewToolResultError("invalid template id"), nil
		}
		templateID = &id
	}

	exercises, err := h.db.ListExercises(ctx, templateID)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.db.ListSessions(ctx, true)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter storage.SetFilter
	if v := req.GetString("session", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return mcp.NewToolResultError("invalid session id"), nil
		}
		filter.SessionID = &id
	}
	if v := req.GetString("exercise", ""); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return mcp.NewToolResultError("invalid exercise id"), nil
		}
		filter.ExerciseID = &id
	}

	sets, err := h.db.ListSetLogs(ctx, filter)
	if err != nil {
		h.log.Error("mcp get_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(sets)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseStr, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(exerciseStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise id"), nil
	}

	metric, err := progress.ParseMetric(req.GetString("metric", "weight"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rng, err := progress.ParseRange(req.GetString("range", "all"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	series, err := h.agg.Series(ctx, exerciseID, progress.Options{
		Metric:        metric,
		Range:         rng,
		ExcludeWarmup: req.GetBool("exclude_warmup", false),
		Smooth:        req.GetBool("smooth", false),
	})
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(series)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := h.db.GetCounts(ctx)
	if err != nil {
		h.log.Error("mcp get_counts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(counts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
