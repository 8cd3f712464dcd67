package intervals

import (
	"context"

	"github.com/s0up4200/intervals-mcp/config"
)

// API defines the request entry point tool handlers depend on
type API interface {
	// Execute issues one request and classifies the outcome
	Execute(ctx context.Context, cfg config.Config, spec RequestSpec) Result
}

var _ API = (*Executor)(nil)
