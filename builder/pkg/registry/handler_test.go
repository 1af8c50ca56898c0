package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	result *Result
	err    error
	calls  int
}

func (m *mockRunner) Run(ctx context.Context) (*Result, error) {
	m.calls++
	return m.result, m.err
}

func TestHandle(t *testing.T) {
	runner := &mockRunner{result: &Result{Document: []byte(`[{"name":"app2"}]`)}}
	h := NewHandler(runner)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"Records":[{"eventName":"ObjectCreated:Put"}]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `[{"name":"app2"}]`, resp.Body)
	assert.Equal(t, 1, runner.calls)

	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":200,"body":"[{\"name\":\"app2\"}]"}`, string(encoded))
}

func TestHandleReturnsRunError(t *testing.T) {
	runErr := errors.New("list denied")
	h := NewHandler(&mockRunner{err: runErr})

	resp, err := h.Handle(context.Background(), nil)
	assert.ErrorIs(t, err, runErr)
	assert.Equal(t, Response{}, resp)
}

func TestHandleWithBuilder(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"apps/app2/master/manifest.json": manifestJSON("app2", "App2Module", "app2.a1b2.js"),
	})
	h := NewHandler(newTestBuilder(t, DefaultConfig(), store))

	resp, err := h.Handle(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `[{"name":"app2","paths":["/app2"],"url":"https://mfestorage.s3.amazonaws.com/apps/app2/master/app2.a1b2.js","module":"App2Module"}]`, resp.Body)
}
