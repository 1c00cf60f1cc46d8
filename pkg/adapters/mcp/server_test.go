package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
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

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(scenarioCatalog))
	require.NoError(t, err)
	return NewServer(artisan.New(artisan.WithCatalog(c)))
}

func request(durability string, extra string) RequestArgs {
	return RequestArgs{Request: `
settings:
  max_cp: 200
  max_durability: ` + durability + `
  progress_target: 100
  quality_target: 100
  base_progress: 100
  base_quality: 100
` + extra}
}

func TestHandleSolve(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleSolve(ctx, mcp.CallToolRequest{}, request("60", ""))
	require.NoError(t, err)
	assert.True(t, resp.Result.Optimal)
	assert.Equal(t, uint32(20), resp.Result.Score.Quality)
	assert.Contains(t, resp.MacroText, `/ac "Push" <wait.3>`)

	resp, err = s.handleSolve(ctx, mcp.CallToolRequest{}, request("40", ""))
	require.NoError(t, err, "infeasible recipes are reported in the response")
	assert.Contains(t, resp.Error, "infeasible")
	assert.Empty(t, resp.MacroText)

	_, err = s.handleSolve(ctx, mcp.CallToolRequest{}, RequestArgs{Request: "catalog: other.yaml"})
	assert.ErrorContains(t, err, "not accepted")

	_, err = s.handleSolve(ctx, mcp.CallToolRequest{}, request("60", "options:\n  strategy: magic\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestHandleSimulate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	sim, err := s.handleSimulate(ctx, mcp.CallToolRequest{}, request("60", "macro: [b, a, a, a, a, a]\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.Completed, sim.State.Outcome)
	assert.Empty(t, sim.Error)

	sim, err = s.handleSimulate(ctx, mcp.CallToolRequest{}, request("20", "macro: [a, a, a]\n"))
	require.NoError(t, err)
	assert.Contains(t, sim.Error, "step 3")
	assert.Len(t, sim.Steps, 3)

	_, err = s.handleSimulate(ctx, mcp.CallToolRequest{}, request("20", ""))
	assert.ErrorContains(t, err, "macro is required")

	_, err = s.handleSimulate(ctx, mcp.CallToolRequest{}, request("20", "macro: [zap]\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}
