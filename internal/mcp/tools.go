package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List the workout plans in the catalog with their length in weeks and days per week."),
)

var toolGetPlanProgress = mcp.NewTool("get_plan_progress",
	mcp.WithDescription("Progress metrics for a plan: planned, completed, skipped and extra sets plus completion percentages."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
	mcp.WithBoolean("live", mcp.Description("Include sets of days still in progress. Defaults to false (committed days only).")),
)

var toolGetCurrentPosition = mcp.NewTool("get_current_position",
	mcp.WithDescription("The week and day the user is currently on in a plan."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
)

var toolGetNextDay = mcp.NewTool("get_next_day",
	mcp.WithDescription("The training day that follows the given week and day. Returns null when the plan is finished."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
	mcp.WithNumber("week_index", mcp.Required(), mcp.Description("0-based week index")),
	mcp.WithNumber("day_number", mcp.Required(), mcp.Description("Day number within the week")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Logged and skipped sets of a plan, oldest first. Optionally filtered to one exercise."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan id")),
	mcp.WithString("exercise_id", mcp.Description("Exercise id filter")),
)

func (h *handlers) listPlans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.ds.ListPlans(ctx)
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans)
}

func (h *handlers) getPlanProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	m, err := h.ds.Progress(ctx, uid, planID, req.GetBool("live", false))
	if err != nil {
		h.log.Error("mcp get_plan_progress", "plan_id", planID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(m)
}

func (h *handlers) getCurrentPosition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}

	pos, err := h.ds.CurrentPosition(ctx, UserIDFromContext(ctx), planID)
	if err != nil {
		h.log.Error("mcp get_current_position", "plan_id", planID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(pos)
}

func (h *handlers) getNextDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}
	week, err := req.RequireInt("week_index")
	if err != nil {
		return mcp.NewToolResultError("week_index parameter is required"), nil
	}
	day, err := req.RequireInt("day_number")
	if err != nil {
		return mcp.NewToolResultError("day_number parameter is required"), nil
	}

	next, err := h.ds.NextDay(ctx, planID, week, day)
	if err != nil {
		h.log.Error("mcp get_next_day", "plan_id", planID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if next == nil {
		return mcp.NewToolResultText(fmt.Sprintf("plan complete: no day follows week %d day %d", week, day)), nil
	}
	return jsonResult(next)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}

	entries, err := h.ds.History(ctx, UserIDFromContext(ctx), planID, req.GetString("exercise_id", ""))
	if err != nil {
		h.log.Error("mcp get_exercise_history", "plan_id", planID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(entries)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
