package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/artisan/internal/presentation/tui"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	steps := []simulator.Step{
		{Index: 0},
		{Index: 1, Name: "basic_synthesis", State: domain.State{Progress: 120, Durability: 70, CP: 500}},
	}
	res := domain.Result{
		Feasible: true, Found: true, Optimal: true, Cached: true,
		Strategy: "branch_and_bound",
		Score:    domain.Score{Quality: 300, Steps: 1, Duration: 3},
	}

	out := tui.Report(res, domain.Settings{QualityTarget: 1000}, steps, `/ac "Basic Synthesis" <wait.3>`)
	assert.Contains(t, out, "| Quality | 300 / 1000 |")
	assert.Contains(t, out, "| Optimal | yes |")
	assert.Contains(t, out, "| Cached | yes |")
	assert.Contains(t, out, "| 1 | basic_synthesis | 120 | 0 | 70 | 500 | normal |")
	assert.Contains(t, out, "```\n/ac \"Basic Synthesis\" <wait.3>\n```")
	assert.NotContains(t, out, "Infeasible")
}

func TestReport_Infeasible(t *testing.T) {
	out := tui.Report(domain.Result{}, domain.Settings{}, nil, "")
	assert.Contains(t, out, "**Infeasible:**")
	assert.Contains(t, out, "| Strategy | - |")
	assert.NotContains(t, out, "| # |")
	assert.NotContains(t, out, "```")
}

func TestActionTable(t *testing.T) {
	c := catalog.Default().Resolve(10)
	out := tui.ActionTable(c)
	assert.Contains(t, out, "| basic_synthesis | 1 |")
	assert.NotContains(t, out, "manipulation")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Equal(t, 7, strings.Count(buf.String(), "\n"))
}

func TestStatus(t *testing.T) {
	assert.Contains(t, tui.Status(true, "valid"), "valid")
	assert.Contains(t, tui.Status(false, "broken"), "broken")
}
