package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/intervals-mcp/intervals"
)

func getWellnessDataTool() mcp.Tool {
	return newAthleteTool("get_wellness_data",
		mcp.WithDescription("Get daily wellness records such as fitness, fatigue, HRV, resting HR, sleep and weight"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("start_date", mcp.Description("First day to include, YYYY-MM-DD. Defaults to 30 days ago.")),
		mcp.WithString("end_date", mcp.Description("Last day to include, YYYY-MM-DD. Defaults to today.")),
	)
}

// HandleGetWellnessData handles the get_wellness_data tool call.
func (tb *Toolbox) HandleGetWellnessData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}

	today := tb.now()
	start, end, f := args.dateRange(today.AddDate(0, 0, -defaultLookbackDays), today)
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Path:   athletePath(id, "wellness"),
		Query:  map[string]any{"oldest": start, "newest": end},
		APIKey: args.str("api_key"),
	}), nil
}
