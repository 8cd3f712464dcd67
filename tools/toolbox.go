package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/s0up4200/intervals-mcp/athlete"
	"github.com/s0up4200/intervals-mcp/config"
	"github.com/s0up4200/intervals-mcp/filter"
	"github.com/s0up4200/intervals-mcp/intervals"
)

const filterCacheSize = 64

// Formatter turns a successful payload into the text returned to the client
type Formatter func(payload any) (string, error)

// IndentedJSON is the default Formatter
func IndentedJSON(payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Toolbox carries everything a tool handler needs. It is built once at
// startup and shared by every call.
type Toolbox struct {
	cfg        config.Config
	api        intervals.API
	normalizer *athlete.Normalizer
	format     Formatter
	filters    filter.Compiler
	now        func() time.Time
	logger     zerolog.Logger
}

// Option configures a Toolbox
type Option func(*Toolbox)

// WithFormatter replaces the default indented JSON rendering
func WithFormatter(f Formatter) Option {
	return func(tb *Toolbox) {
		if f != nil {
			tb.format = f
		}
	}
}

// WithFilterCompiler sets the compiler used for activity filters
func WithFilterCompiler(c filter.Compiler) Option {
	return func(tb *Toolbox) {
		tb.filters = c
	}
}

// WithClock sets the time source used for default date ranges
func WithClock(now func() time.Time) Option {
	return func(tb *Toolbox) {
		if now != nil {
			tb.now = now
		}
	}
}

// New creates a Toolbox over cfg and api
func New(cfg config.Config, api intervals.API, logger zerolog.Logger, opts ...Option) *Toolbox {
	tb := &Toolbox{
		cfg:        cfg,
		api:        api,
		normalizer: athlete.NewNormalizer(cfg.Athlete.Placeholders...),
		format:     IndentedJSON,
		now:        time.Now,
		logger:     logger.With().Str("component", "tools").Logger(),
	}

	for _, opt := range opts {
		opt(tb)
	}

	if tb.filters == nil {
		tb.filters = filter.NewExprCompiler(
			filter.WithCache(filterCacheSize),
			filter.WithClock(tb.now),
		)
	}

	return tb
}

// Tools returns every tool definition paired with its handler
func (tb *Toolbox) Tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: getActivitiesTool(), Handler: tb.HandleGetActivities},
		{Tool: getActivityDetailsTool(), Handler: tb.HandleGetActivityDetails},
		{Tool: getActivityIntervalsTool(), Handler: tb.HandleGetActivityIntervals},
		{Tool: getEventsTool(), Handler: tb.HandleGetEvents},
		{Tool: getEventByIDTool(), Handler: tb.HandleGetEventByID},
		{Tool: getWellnessDataTool(), Handler: tb.HandleGetWellnessData},
		{Tool: addOrUpdateEventTool(), Handler: tb.HandleAddOrUpdateEvent},
		{Tool: deleteEventTool(), Handler: tb.HandleDeleteEvent},
		{Tool: deleteEventsByDateRangeTool(), Handler: tb.HandleDeleteEventsByDateRange},
	}
}

// Register adds every tool to srv
func (tb *Toolbox) Register(srv *server.MCPServer) {
	srv.AddTools(tb.Tools()...)
}

// execute issues spec and renders the outcome
func (tb *Toolbox) execute(ctx context.Context, spec intervals.RequestSpec) *mcp.CallToolResult {
	res := tb.api.Execute(ctx, tb.cfg, spec)
	if f := res.Failure(); f != nil {
		return failureResult(f)
	}
	payload, _ := res.Payload()
	return tb.render(payload)
}

// render formats a successful payload
func (tb *Toolbox) render(payload any) *mcp.CallToolResult {
	text, err := tb.format(payload)
	if err != nil {
		tb.logger.Error().Err(err).Msg("Failed to format response")
		return failureResult(&intervals.Failure{
			IsError: true,
			Message: "Malformed response body: the intervals.icu response could not be rendered",
		})
	}
	return mcp.NewToolResultText(text)
}

// failureResult passes the failure record through unaltered
func failureResult(f *intervals.Failure) *mcp.CallToolResult {
	return mcp.NewToolResultError(f.JSON())
}

func apiKeyOption() mcp.ToolOption {
	return mcp.WithString("api_key",
		mcp.Description("intervals.icu API key to use instead of the configured one"),
	)
}

// newTool defines a tool addressing a resource by its own id
func newTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, apiKeyOption())...)
}

// newAthleteTool defines a tool scoped to an athlete
func newAthleteTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts,
		mcp.WithString("athlete_id",
			mcp.Description("intervals.icu athlete id, e.g. i123456 or 123456. Defaults to the configured athlete."),
		),
		apiKeyOption(),
	)...)
}
