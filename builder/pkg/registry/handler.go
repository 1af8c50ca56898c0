package registry

import (
	"context"
	"encoding/json"
	"net/http"
)

// Response is returned to the platform that triggered a build.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Handler adapts a Runner to event driven invocation. The triggering event is not inspected.
type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// Handle runs one build. Failures are returned unchanged so the invoking platform reports them
// through its own error path.
func (h *Handler) Handle(ctx context.Context, _ json.RawMessage) (Response, error) {
	result, err := h.runner.Run(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{
		StatusCode: http.StatusOK,
		Body:       string(result.Document),
	}, nil
}
