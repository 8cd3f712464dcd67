package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/intervals-mcp/filter"
	"github.com/s0up4200/intervals-mcp/intervals"
)

const (
	defaultActivityLimit = 10
	defaultLookbackDays  = 30
)

func getActivitiesTool() mcp.Tool {
	return newAthleteTool("get_activities",
		mcp.WithDescription("List activities for an athlete between two dates, newest first as returned by intervals.icu"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("start_date", mcp.Description("First day to include, YYYY-MM-DD. Defaults to 30 days ago.")),
		mcp.WithString("end_date", mcp.Description("Last day to include, YYYY-MM-DD. Defaults to today.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of activities to return"), mcp.DefaultNumber(defaultActivityLimit), mcp.Min(1)),
		mcp.WithBoolean("include_unnamed", mcp.Description("Include activities without a name"), mcp.DefaultBool(false)),
		mcp.WithString("filter", mcp.Description(
			`Optional expression selecting activities, e.g. type == "Ride" and km(distance) > 40. `+
				`Helpers: km, hours, minutes, daysAgo, parseDate, icontains, istartsWith, lower, upper.`)),
	)
}

// HandleGetActivities handles the get_activities tool call.
func (tb *Toolbox) HandleGetActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	limit, f := args.integer("limit", defaultActivityLimit)
	if f != nil {
		return failureResult(f), nil
	}
	if limit < 1 {
		return failureResult(intervals.InvalidInput("limit must be at least 1")), nil
	}

	includeUnnamed, f := args.boolean("include_unnamed", false)
	if f != nil {
		return failureResult(f), nil
	}

	var compiled filter.CompiledFilter
	if expression := args.str("filter"); expression != "" {
		var err error
		compiled, err = tb.filters.Compile(expression)
		if err != nil {
			return failureResult(intervals.InvalidInput("filter: %v", err)), nil
		}
	}

	res := tb.api.Execute(ctx, tb.cfg, intervals.RequestSpec{
		Path:   athletePath(id, "activities"),
		Query:  map[string]any{"oldest": start, "newest": end},
		APIKey: args.str("api_key"),
	})
	if f := res.Failure(); f != nil {
		return failureResult(f), nil
	}

	payload, _ := res.Payload()
	activities, ok := payload.([]any)
	if !ok {
		// Not a list; hand it back as received
		return tb.render(payload), nil
	}

	if !includeUnnamed {
		activities = namedOnly(activities)
	}

	if compiled != nil {
		var errs []error
		activities, errs = filter.Apply(compiled, activities)
		for _, err := range errs {
			tb.logger.Debug().Err(err).Msg("Activity excluded by filter error")
		}
	}

	if len(activities) > limit {
		activities = activities[:limit]
	}

	return tb.render(activities), nil
}

// namedOnly drops activities intervals.icu lists without a real name
func namedOnly(activities []any) []any {
	named := make([]any, 0, len(activities))
	for _, item := range activities {
		activity, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := activity["name"].(string)
		if name == "" || name == "Unnamed" {
			continue
		}
		named = append(named, item)
	}
	return named
}

func getActivityDetailsTool() mcp.Tool {
	return newTool("get_activity_details",
		mcp.WithDescription("Get the full record of a single activity"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("activity_id", mcp.Required(), mcp.Description("intervals.icu activity id")),
	)
}

// HandleGetActivityDetails handles the get_activity_details tool call.
func (tb *Toolbox) HandleGetActivityDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	activityID, f := args.requiredID("activity_id")
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Path:   "/activity/" + activityID,
		APIKey: args.str("api_key"),
	}), nil
}

func getActivityIntervalsTool() mcp.Tool {
	return newTool("get_activity_intervals",
		mcp.WithDescription("Get the interval analysis of a single activity"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("activity_id", mcp.Required(), mcp.Description("intervals.icu activity id")),
	)
}

// HandleGetActivityIntervals handles the get_activity_intervals tool call.
func (tb *Toolbox) HandleGetActivityIntervals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	activityID, f := args.requiredID("activity_id")
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Path:   "/activity/" + activityID + "/intervals",
		APIKey: args.str("api_key"),
	}), nil
}
