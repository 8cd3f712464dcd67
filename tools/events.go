package tools

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/s0up4200/intervals-mcp/intervals"
)

const (
	defaultLookaheadDays = 30
	defaultEventCategory = "WORKOUT"
)

func getEventsTool() mcp.Tool {
	return newAthleteTool("get_events",
		mcp.WithDescription("List planned workouts, races and notes on the athlete's calendar"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("start_date", mcp.Description("First day to include, YYYY-MM-DD. Defaults to today.")),
		mcp.WithString("end_date", mcp.Description("Last day to include, YYYY-MM-DD. Defaults to 30 days from today.")),
	)
}

// HandleGetEvents handles the get_events tool call.
func (tb *Toolbox) HandleGetEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}

	today := tb.now()
	start, end, f := args.dateRange(today, today.AddDate(0, 0, defaultLookaheadDays))
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Path:   athletePath(id, "events"),
		Query:  map[string]any{"oldest": start, "newest": end},
		APIKey: args.str("api_key"),
	}), nil
}

func getEventByIDTool() mcp.Tool {
	return newAthleteTool("get_event_by_id",
		mcp.WithDescription("Get a single calendar event, including its workout"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("intervals.icu event id")),
	)
}

// HandleGetEventByID handles the get_event_by_id tool call.
func (tb *Toolbox) HandleGetEventByID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}
	eventID, f := args.requiredID("event_id")
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Path:   athletePath(id, "events", eventID),
		APIKey: args.str("api_key"),
	}), nil
}

func addOrUpdateEventTool() mcp.Tool {
	return newAthleteTool("add_or_update_event",
		mcp.WithDescription("Create a planned workout on the athlete's calendar, or update it when event_id is given. "+
			"Workout steps are written into the description in intervals.icu workout syntax."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Day of the workout, YYYY-MM-DD")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Workout name")),
		mcp.WithString("event_id", mcp.Description("Existing event to update instead of creating a new one")),
		mcp.WithString("workout_type", mcp.Description("Sport, e.g. Ride, Run or Swim. Detected from the name when omitted.")),
		mcp.WithString("description", mcp.Description("Free text placed before the workout steps")),
		mcp.WithObject("data", mcp.Description(
			`Workout details. "steps" is a list of {duration, distance, power, hr, pace, cadence, description} `+
				`or {reps, steps} repeat blocks; "type" overrides the sport; other fields are sent to intervals.icu as is.`)),
	)
}

// HandleAddOrUpdateEvent handles the add_or_update_event tool call.
func (tb *Toolbox) HandleAddOrUpdateEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}
	if args.str("start_date") == "" {
		return failureResult(intervals.InvalidInput("start_date is required")), nil
	}
	startDate, f := args.date("start_date", tb.now())
	if f != nil {
		return failureResult(f), nil
	}
	name := args.str("name")
	if name == "" {
		return failureResult(intervals.InvalidInput("name is required")), nil
	}
	data, f := args.object("data")
	if f != nil {
		return failureResult(f), nil
	}

	body, err := buildEvent(startDate, name, args.str("workout_type"), args.str("description"), data)
	if err != nil {
		return failureResult(intervals.InvalidInput("data: %v", err)), nil
	}

	spec := intervals.RequestSpec{
		Method: http.MethodPost,
		Path:   athletePath(id, "events"),
		Body:   body,
		APIKey: args.str("api_key"),
	}
	if args.str("event_id") != "" {
		eventID, f := args.requiredID("event_id")
		if f != nil {
			return failureResult(f), nil
		}
		spec.Method = http.MethodPut
		spec.Path = athletePath(id, "events", eventID)
	}

	tb.logger.Debug().
		Str("method", spec.Method).
		Str("type", cast.ToString(body["type"])).
		Msg("Writing calendar event")

	return tb.execute(ctx, spec), nil
}

// buildEvent assembles the intervals.icu event body for a planned workout
func buildEvent(startDate, name, workoutType, description string, data map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(data)+5)
	maps.Copy(body, data)
	delete(body, "steps")

	if workoutType == "" {
		workoutType = cast.ToString(data["type"])
	}
	body["type"] = DetectWorkoutType(name, workoutType)
	body["name"] = name
	body["start_date_local"] = startDate + "T00:00:00"
	if cast.ToString(body["category"]) == "" {
		body["category"] = defaultEventCategory
	}

	var sections []string
	if description == "" {
		description = cast.ToString(data["description"])
	}
	if description != "" {
		sections = append(sections, description)
	}

	if raw, ok := data["steps"]; ok && raw != nil {
		steps, err := cast.ToSliceE(raw)
		if err != nil {
			return nil, err
		}
		text, err := RenderSteps(steps)
		if err != nil {
			return nil, err
		}
		if text != "" {
			sections = append(sections, text)
		}
	}

	if len(sections) > 0 {
		body["description"] = strings.Join(sections, "\n\n")
	}

	return body, nil
}

func deleteEventTool() mcp.Tool {
	return newAthleteTool("delete_event",
		mcp.WithDescription("Delete a single calendar event"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("intervals.icu event id")),
	)
}

// HandleDeleteEvent handles the delete_event tool call.
func (tb *Toolbox) HandleDeleteEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}
	eventID, f := args.requiredID("event_id")
	if f != nil {
		return failureResult(f), nil
	}

	res := tb.api.Execute(ctx, tb.cfg, intervals.RequestSpec{
		Method: http.MethodDelete,
		Path:   athletePath(id, "events", eventID),
		APIKey: args.str("api_key"),
	})
	if f := res.Failure(); f != nil {
		return failureResult(f), nil
	}

	payload, _ := res.Payload()
	if payload == nil {
		payload = map[string]any{"deleted": true, "event_id": args.str("event_id")}
	}
	return tb.render(payload), nil
}

func deleteEventsByDateRangeTool() mcp.Tool {
	return newAthleteTool("delete_events_by_date_range",
		mcp.WithDescription("Delete every calendar event between two dates, inclusive"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("First day, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD")),
	)
}

// HandleDeleteEventsByDateRange handles the delete_events_by_date_range tool call.
func (tb *Toolbox) HandleDeleteEventsByDateRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)

	id, f := tb.athleteID(args)
	if f != nil {
		return failureResult(f), nil
	}

	// No defaults for a bulk delete
	for _, key := range []string{"start_date", "end_date"} {
		if args.str(key) == "" {
			return failureResult(intervals.InvalidInput("%s is required", key)), nil
		}
	}
	today := tb.now()
	start, end, f := args.dateRange(today, today)
	if f != nil {
		return failureResult(f), nil
	}

	return tb.execute(ctx, intervals.RequestSpec{
		Method: http.MethodDelete,
		Path:   athletePath(id, "events"),
		Query:  map[string]any{"oldest": start, "newest": end},
		APIKey: args.str("api_key"),
	}), nil
}
