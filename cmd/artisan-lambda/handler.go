package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/presentation/macro"
	httpAdapter "github.com/aretw0/artisan/pkg/adapters/http"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/gamedata"
	"github.com/aws/aws-lambda-go/events"
)

// maxTimeBudget keeps a solve inside the function timeout.
const maxTimeBudget = 20 * time.Second

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type handler struct {
	solver *artisan.Solver
}

// Handle routes POST /simulate to the simulator and everything else to the
// solver.
func (h *handler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	req, err := config.LoadString(body)
	if err != nil {
		return errResp(400, err.Error())
	}
	if req.Catalog != "" || req.Recipes != "" {
		return errResp(400, "catalog and recipes paths are not accepted")
	}
	settings, err := req.Resolve(h.solver.Catalog())
	if err != nil {
		if errors.Is(err, gamedata.ErrRecipeNotFound) {
			return errResp(404, err.Error())
		}
		return errResp(400, err.Error())
	}

	if strings.HasSuffix(event.RawPath, "/simulate") {
		return h.simulate(req, settings)
	}
	return h.solve(ctx, req, settings)
}

func (h *handler) solve(ctx context.Context, req *config.Request, settings domain.Settings) (events.LambdaFunctionURLResponse, error) {
	opts := req.Options
	if opts.TimeBudget <= 0 || opts.TimeBudget > maxTimeBudget {
		opts.TimeBudget = maxTimeBudget
	}

	res, err := h.solver.Solve(ctx, settings, opts)
	if err != nil && !errors.Is(err, domain.ErrRecipeInfeasible) {
		if errors.Is(err, domain.ErrUnknownStrategy) {
			return errResp(400, err.Error())
		}
		return errResp(500, err.Error())
	}

	resp := httpAdapter.SolveResponse{Result: res}
	status := 200
	if err != nil {
		resp.Error = err.Error()
		status = 422
	}
	if res.Found {
		resp.MacroText = macro.Text(h.solver.Catalog(), res.Macro)
	}
	return jsonResp(status, resp)
}

func (h *handler) simulate(req *config.Request, settings domain.Settings) (events.LambdaFunctionURLResponse, error) {
	if len(req.Macro) == 0 {
		return errResp(400, "macro is required")
	}
	sim, err := h.solver.SimulateNames(settings, req.Macro, req.Rolls)
	switch {
	case err == nil:
		return jsonResp(200, sim)
	case errors.Is(err, domain.ErrIllegalAction):
		return jsonResp(422, sim)
	default:
		return errResp(400, err.Error())
	}
}

func jsonResp(code int, v any) (events.LambdaFunctionURLResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return errResp(500, err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
