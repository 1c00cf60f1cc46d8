package cli

import (
	"errors"
	"io"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
)

// RunSimulate replays the request's macro and writes the trace to w. A macro
// that stops early is written and then returned as error.
func RunSimulate(w io.Writer, req *config.Request, opts Options) error {
	if len(req.Macro) == 0 {
		return errors.New("request has no macro to simulate")
	}
	c, settings, err := prepare(req, opts)
	if err != nil {
		return err
	}

	solver := artisan.New(artisan.WithCatalog(c), artisan.WithLogger(createLogger(opts.Debug)))
	sim, err := solver.SimulateNames(settings, req.Macro, req.Rolls)
	if err != nil && !errors.Is(err, domain.ErrIllegalAction) {
		return err
	}
	if werr := writeSimulation(w, opts.Format, settings, sim); werr != nil {
		return werr
	}
	return err
}
