package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/presentation/macro"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
)

// prepare applies the command line overrides and resolves the request.
func prepare(req *config.Request, opts Options) (*catalog.Catalog, domain.Settings, error) {
	if opts.Catalog != "" {
		req.Catalog = opts.Catalog
	}
	if opts.Recipes != "" {
		req.Recipes = opts.Recipes
	}
	c, err := req.LoadCatalog()
	if err != nil {
		return nil, domain.Settings{}, err
	}
	settings, err := req.Resolve(c)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return c, settings, nil
}

// RunSolve solves req and writes the macro to w. Progress, when enabled,
// goes to errW. An infeasible recipe is written and then returned as error.
func RunSolve(ctx context.Context, w, errW io.Writer, req *config.Request, opts Options) error {
	logger := createLogger(opts.Debug)

	c, settings, err := prepare(req, opts)
	if err != nil {
		return err
	}
	solver, closeStore, err := createSolver(opts, c, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	var res domain.Result
	if opts.Progress {
		res, err = streamSolve(ctx, errW, solver, settings, req.Options)
	} else {
		res, err = solver.Solve(ctx, settings, req.Options)
	}
	if err != nil && !errors.Is(err, domain.ErrRecipeInfeasible) {
		return err
	}

	out := SolveOutput{Settings: settings, Result: res}
	if err != nil {
		out.Error = err.Error()
	}
	if res.Found {
		out.MacroText = macro.Text(c, res.Macro)
	}

	sim, simErr := solver.Simulate(settings, res.Macro, nil)
	if simErr != nil {
		logger.Warn("failed to replay macro", "err", simErr)
	}
	if werr := writeSolve(w, opts.Format, out, sim); werr != nil {
		return werr
	}
	return err
}

// streamSolve runs the solve as a stream and reports improvements as they
// arrive.
func streamSolve(ctx context.Context, errW io.Writer, solver *artisan.Solver, settings domain.Settings, opts artisan.Options) (domain.Result, error) {
	var final *domain.FinishEvent
	for ev := range solver.Stream(ctx, settings, opts) {
		switch ev.Type {
		case domain.EventPhase:
			if ev.Phase.Strategy != "" {
				printSystemMessage(errW, "%s (%s)", ev.Phase.Phase, ev.Phase.Strategy)
			}
		case domain.EventImprovement:
			i := ev.Improvement
			printSystemMessage(errW, "quality %d/%d in %d steps", i.Score.Quality, settings.QualityTarget, i.Score.Steps)
		case domain.EventFinish:
			final = ev.Finish
		}
	}
	if final == nil || final.Result == nil {
		return domain.Result{}, errors.New("solve ended without a result")
	}
	if final.Err != "" {
		return *final.Result, errorFor(final.Err)
	}
	return *final.Result, nil
}

// errorFor restores the sentinel behind a streamed error message.
func errorFor(msg string) error {
	for _, sentinel := range []error{domain.ErrRecipeInfeasible, domain.ErrInvalidSettings, domain.ErrUnknownStrategy} {
		if strings.HasPrefix(msg, sentinel.Error()) {
			return &streamError{msg: msg, sentinel: sentinel}
		}
	}
	return errors.New(msg)
}

type streamError struct {
	msg      string
	sentinel error
}

func (e *streamError) Error() string { return e.msg }
func (e *streamError) Unwrap() error { return e.sentinel }
