package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/artisan"
	httpAdapter "github.com/aretw0/artisan/pkg/adapters/http"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCatalog = `
name: scenario
actions:
  - name: a
    label: Push
    durability: 10
    progress: 20
    time: 3
  - name: b
    label: Polish
    cp: 30
    durability: 10
    quality: 20
    time: 3
`

const scenarioSettings = `"max_cp": 200, "progress_target": 100, "quality_target": 100, "base_progress": 100, "base_quality": 100`

func newHandler(t *testing.T) *handler {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(scenarioCatalog))
	require.NoError(t, err)
	return &handler{solver: artisan.New(artisan.WithCatalog(c))}
}

func TestHandle_Solve(t *testing.T) {
	h := newHandler(t)
	resp, err := h.Handle(context.Background(), events.LambdaFunctionURLRequest{
		RawPath: "/",
		Body:    `{"settings": {` + scenarioSettings + `, "max_durability": 60}}`,
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var body httpAdapter.SolveResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, uint32(20), body.Result.Score.Quality)
	assert.Contains(t, body.MacroText, "/ac")
}

func TestHandle_Base64(t *testing.T) {
	h := newHandler(t)
	raw := `{"settings": {` + scenarioSettings + `, "max_durability": 40}}`
	resp, err := h.Handle(context.Background(), events.LambdaFunctionURLRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(raw)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Contains(t, resp.Body, "infeasible")

	resp, err = h.Handle(context.Background(), events.LambdaFunctionURLRequest{Body: "%%%", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, resp.Body, "invalid base64 body")
}

func TestHandle_Simulate(t *testing.T) {
	h := newHandler(t)
	resp, err := h.Handle(context.Background(), events.LambdaFunctionURLRequest{
		RawPath: "/simulate",
		Body:    `{"settings": {` + scenarioSettings + `, "max_durability": 20}, "macro": ["a", "a", "a"]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Contains(t, resp.Body, "step 3")
}

func TestHandle_Errors(t *testing.T) {
	h := newHandler(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{`, 400},
		{"paths", `{"catalog": "x.yaml"}`, 400},
		{"unknown recipe", `{"recipe": "Nope", "crafter": {"job_level": 90}}`, 404},
		{"unknown strategy", `{"settings": {` + scenarioSettings + `, "max_durability": 60}, "options": {"strategy": "magic"}}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), events.LambdaFunctionURLRequest{Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
