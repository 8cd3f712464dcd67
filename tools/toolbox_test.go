package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/intervals-mcp/config"
	"github.com/s0up4200/intervals-mcp/intervals"
)

var fixedNow = time.Date(2025, 10, 25, 9, 30, 0, 0, time.UTC)

// fakeAPI records every request and answers with a canned result
type fakeAPI struct {
	mu     sync.Mutex
	specs  []intervals.RequestSpec
	result intervals.Result
}

func (f *fakeAPI) Execute(_ context.Context, _ config.Config, spec intervals.RequestSpec) intervals.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	return f.result
}

func (f *fakeAPI) calls() []intervals.RequestSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]intervals.RequestSpec(nil), f.specs...)
}

func (f *fakeAPI) lastCall(t *testing.T) intervals.RequestSpec {
	t.Helper()
	calls := f.calls()
	require.NotEmpty(t, calls, "expected a request")
	return calls[len(calls)-1]
}

func testConfig() config.Config {
	return config.Config{
		Intervals: config.IntervalsConfig{
			APIKey:    "abc",
			AthleteID: "i12345",
			BaseURL:   config.DefaultBaseURL,
		},
	}
}

func newTestToolbox(t *testing.T, result intervals.Result, opts ...Option) (*Toolbox, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{result: result}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(testConfig(), api, zerolog.Nop(), opts...), api
}

func makeRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

// requireFailure checks the result is a tool error carrying a failure record
func requireFailure(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.True(t, result.IsError, "expected a tool error")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &record))
	assert.Len(t, record, 3)
	assert.Equal(t, true, record["error"])
	assert.Contains(t, record, "status_code")
	assert.NotEmpty(t, record["message"])
	return record
}

func TestFailurePassesThroughUnaltered(t *testing.T) {
	failure := intervals.Classify(404, `{"error":"not found"}`)
	tb, _ := newTestToolbox(t, intervals.Fail(failure))

	result, err := tb.HandleGetActivityDetails(context.Background(), makeRequest("get_activity_details", map[string]any{
		"activity_id": "i99",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.JSONEq(t, failure.JSON(), resultText(t, result))
}

func TestInvalidArgumentsSkipTheNetwork(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*Toolbox) server.ToolHandlerFunc
		args    map[string]any
		message string
	}{
		{
			name:    "bad start date",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivities },
			args:    map[string]any{"start_date": "25/10/2025"},
			message: "start_date must be a date in YYYY-MM-DD format",
		},
		{
			name:    "impossible end date",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetWellnessData },
			args:    map[string]any{"end_date": "2025-02-30"},
			message: "end_date must be a date",
		},
		{
			name:    "reversed range",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetEvents },
			args:    map[string]any{"start_date": "2025-10-20", "end_date": "2025-10-01"},
			message: "is after end_date",
		},
		{
			name:    "malformed athlete id",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetEvents },
			args:    map[string]any{"athlete_id": "athlete-7"},
			message: "athlete_id must be all digits",
		},
		{
			name:    "missing activity id",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivityIntervals },
			args:    map[string]any{},
			message: "activity_id is required",
		},
		{
			name:    "missing event id",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetEventByID },
			args:    map[string]any{"event_id": "  "},
			message: "event_id is required",
		},
		{
			name:    "zero limit",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivities },
			args:    map[string]any{"limit": 0.0},
			message: "limit must be at least 1",
		},
		{
			name:    "limit not a number",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivities },
			args:    map[string]any{"limit": "lots"},
			message: "limit must be a whole number",
		},
		{
			name:    "fractional limit",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivities },
			args:    map[string]any{"limit": 10.7},
			message: "limit must be a whole number",
		},
		{
			name:    "dot-dot activity id",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivityDetails },
			args:    map[string]any{"activity_id": ".."},
			message: "is not a valid id",
		},
		{
			name:    "dot event id",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleDeleteEvent },
			args:    map[string]any{"event_id": " . "},
			message: "is not a valid id",
		},
		{
			name:    "invalid filter",
			handler: func(tb *Toolbox) server.ToolHandlerFunc { return tb.HandleGetActivities },
			args:    map[string]any{"filter": `type == "Ride`},
			message: "filter:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, api := newTestToolbox(t, intervals.Success([]any{}))

			result, err := tt.handler(tb)(context.Background(), makeRequest(tt.name, tt.args))
			require.NoError(t, err)

			record := requireFailure(t, result)
			assert.Nil(t, record["status_code"])
			assert.Contains(t, record["message"], "Invalid input")
			assert.Contains(t, record["message"], tt.message)
			assert.Empty(t, api.calls())
		})
	}
}

func TestAthleteIDNormalization(t *testing.T) {
	tests := []struct {
		name      string
		athleteID any
		wantPath  string
	}{
		{name: "absent", athleteID: nil, wantPath: "/athlete/i12345/wellness"},
		{name: "placeholder", athleteID: "your_athlete_id_here", wantPath: "/athlete/i12345/wellness"},
		{name: "bracketed placeholder", athleteID: "<athlete_id>", wantPath: "/athlete/i12345/wellness"},
		{name: "bare numeric", athleteID: "98765", wantPath: "/athlete/98765/wellness"},
		{name: "prefixed", athleteID: "i98765", wantPath: "/athlete/i98765/wellness"},
		{name: "number value", athleteID: 98765.0, wantPath: "/athlete/98765/wellness"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, api := newTestToolbox(t, intervals.Success([]any{}))

			args := map[string]any{}
			if tt.athleteID != nil {
				args["athlete_id"] = tt.athleteID
			}
			result, err := tb.HandleGetWellnessData(context.Background(), makeRequest("get_wellness_data", args))
			require.NoError(t, err)
			assert.False(t, result.IsError)
			assert.Equal(t, tt.wantPath, api.lastCall(t).Path)
		})
	}
}

func TestConfiguredPlaceholders(t *testing.T) {
	cfg := testConfig()
	cfg.Athlete.Placeholders = []string{"me"}
	api := &fakeAPI{result: intervals.Success([]any{})}
	tb := New(cfg, api, zerolog.Nop())

	_, err := tb.HandleGetEvents(context.Background(), makeRequest("get_events", map[string]any{"athlete_id": "ME"}))
	require.NoError(t, err)
	assert.Equal(t, "/athlete/i12345/events", api.lastCall(t).Path)
}

func TestAPIKeyOverrideIsForwarded(t *testing.T) {
	tb, api := newTestToolbox(t, intervals.Success(map[string]any{}))

	_, err := tb.HandleGetActivityDetails(context.Background(), makeRequest("get_activity_details", map[string]any{
		"activity_id": "i1",
		"api_key":     " other-key ",
	}))
	require.NoError(t, err)
	assert.Equal(t, "other-key", api.lastCall(t).APIKey)
}

func TestCustomFormatter(t *testing.T) {
	tb, _ := newTestToolbox(t, intervals.Success(map[string]any{"name": "Morning Ride"}),
		WithFormatter(func(payload any) (string, error) {
			return "Activity: " + payload.(map[string]any)["name"].(string), nil
		}),
	)

	result, err := tb.HandleGetActivityDetails(context.Background(), makeRequest("get_activity_details", map[string]any{
		"activity_id": 123.0,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "Activity: Morning Ride", resultText(t, result))
}

func TestFormatterErrorBecomesFailure(t *testing.T) {
	tb, _ := newTestToolbox(t, intervals.Success(map[string]any{}),
		WithFormatter(func(any) (string, error) { return "", errors.New("boom") }),
	)

	result, err := tb.HandleGetActivityDetails(context.Background(), makeRequest("get_activity_details", map[string]any{
		"activity_id": "i1",
	}))
	require.NoError(t, err)
	record := requireFailure(t, result)
	assert.Nil(t, record["status_code"])
	assert.NotContains(t, record["message"], "boom")
}

func TestToolDefinitions(t *testing.T) {
	tb, _ := newTestToolbox(t, intervals.Success(nil))

	athleteScoped := map[string]bool{
		"get_activities":              true,
		"get_events":                  true,
		"get_event_by_id":             true,
		"get_wellness_data":           true,
		"add_or_update_event":         true,
		"delete_event":                true,
		"delete_events_by_date_range": true,
		"get_activity_details":        false,
		"get_activity_intervals":      false,
	}

	var names []string
	for _, st := range tb.Tools() {
		names = append(names, st.Tool.Name)
		require.NotNil(t, st.Handler, st.Tool.Name)
		assert.NotEmpty(t, st.Tool.Description, st.Tool.Name)
		assert.Contains(t, st.Tool.InputSchema.Properties, "api_key", st.Tool.Name)

		scoped, known := athleteScoped[st.Tool.Name]
		require.True(t, known, "unexpected tool %s", st.Tool.Name)
		if scoped {
			assert.Contains(t, st.Tool.InputSchema.Properties, "athlete_id", st.Tool.Name)
		} else {
			assert.NotContains(t, st.Tool.InputSchema.Properties, "athlete_id", st.Tool.Name)
		}
	}

	sort.Strings(names)
	assert.Len(t, names, len(athleteScoped))
	for i := 1; i < len(names); i++ {
		assert.NotEqual(t, names[i-1], names[i], "duplicate tool name")
	}
}

func TestServerRoundTrip(t *testing.T) {
	tb, api := newTestToolbox(t, intervals.Success([]any{
		map[string]any{"id": "i1", "name": "Morning Ride", "type": "Ride"},
	}))

	srv := server.NewMCPServer("intervals-mcp", "test", server.WithToolCapabilities(false))
	tb.Register(srv)

	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "1.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, listed.Tools, len(tb.Tools()))

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_activities"
	req.Params.Arguments = map[string]any{"athlete_id": "your_athlete_id_here"}
	result, err := c.CallTool(ctx, req)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.True(t, strings.Contains(resultText(t, result), "Morning Ride"))

	spec := api.lastCall(t)
	assert.Equal(t, "/athlete/i12345/activities", spec.Path)
}
