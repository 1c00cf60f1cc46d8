package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/logging"
	"github.com/aretw0/artisan/internal/presentation/macro"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogURI is the resource exposing the loaded action catalog.
const CatalogURI = "artisan://catalog"

// DefaultMaxTimeBudget caps the search time of a single tool call.
const DefaultMaxTimeBudget = 30 * time.Second

// SolveResponse is the structured output of solve_macro.
type SolveResponse struct {
	Result    domain.Result `json:"result" jsonschema_description:"The best macro found and how it was found"`
	MacroText string        `json:"macro_text,omitempty" jsonschema_description:"The macro as in-game text, split into 15-line blocks"`
	Error     string        `json:"error,omitempty" jsonschema_description:"Set when the recipe cannot be finished"`
}

// RequestArgs carries a solve or simulate request as YAML or JSON text.
type RequestArgs struct {
	Request string `json:"request"`
}

// Solver is the part of artisan.Solver the MCP server needs.
type Solver interface {
	Solve(ctx context.Context, settings domain.Settings, opts artisan.Options) (domain.Result, error)
	SimulateNames(settings domain.Settings, names []string, rolls []domain.Roll) (artisan.Simulation, error)
	Catalog() *catalog.Catalog
	Strategies() []string
}

// Server wraps a Solver and exposes it as an MCP Server.
type Server struct {
	solver    Solver
	logger    *slog.Logger
	maxBudget time.Duration
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxTimeBudget caps the time budget of every solve.
func WithMaxTimeBudget(d time.Duration) Option {
	return func(s *Server) {
		s.maxBudget = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(solver Solver, opts ...Option) *Server {
	s := &Server{
		solver:    solver,
		logger:    logging.NewNop(),
		maxBudget: DefaultMaxTimeBudget,
		mcpServer: server.NewMCPServer("artisan-mcp", strings.TrimSpace(artisan.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	solveTool := mcp.NewTool("solve_macro",
		mcp.WithDescription("Find the highest-quality crafting macro for a recipe. The request holds either settings or a recipe name plus crafter stats, and optional search options."),
		mcp.WithString("request", mcp.Required(), mcp.Description("Solve request as YAML or JSON text")),
		mcp.WithOutputSchema[SolveResponse](),
	)
	s.mcpServer.AddTool(solveTool, mcp.NewStructuredToolHandler(s.handleSolve))

	simulateTool := mcp.NewTool("simulate_macro",
		mcp.WithDescription("Replay a macro step by step. The request holds settings or a recipe plus crafter, the macro as action names, and optional condition rolls."),
		mcp.WithString("request", mcp.Required(), mcp.Description("Simulate request as YAML or JSON text")),
		mcp.WithOutputSchema[artisan.Simulation](),
	)
	s.mcpServer.AddTool(simulateTool, mcp.NewStructuredToolHandler(s.handleSimulate))

	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions of the loaded catalog."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.solver.Catalog().Actions())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) decode(text string) (*config.Request, domain.Settings, error) {
	req, err := config.LoadString(text)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	if req.Catalog != "" || req.Recipes != "" {
		return nil, domain.Settings{}, errors.New("catalog and recipes paths are not accepted over MCP")
	}
	settings, err := req.Resolve(s.solver.Catalog())
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return req, settings, nil
}

func (s *Server) handleSolve(ctx context.Context, _ mcp.CallToolRequest, args RequestArgs) (SolveResponse, error) {
	req, settings, err := s.decode(args.Request)
	if err != nil {
		return SolveResponse{}, err
	}

	opts := req.Options
	if s.maxBudget > 0 && (opts.TimeBudget <= 0 || opts.TimeBudget > s.maxBudget) {
		opts.TimeBudget = s.maxBudget
	}

	res, err := s.solver.Solve(ctx, settings, opts)
	if err != nil && !errors.Is(err, domain.ErrRecipeInfeasible) {
		s.logger.Warn("MCP solve failed", "error", err)
		return SolveResponse{}, fmt.Errorf("solve failed: %w", err)
	}

	resp := SolveResponse{Result: res}
	if err != nil {
		resp.Error = err.Error()
	}
	if res.Found {
		resp.MacroText = macro.Text(s.solver.Catalog(), res.Macro)
	}
	return resp, nil
}

func (s *Server) handleSimulate(_ context.Context, _ mcp.CallToolRequest, args RequestArgs) (artisan.Simulation, error) {
	req, settings, err := s.decode(args.Request)
	if err != nil {
		return artisan.Simulation{}, err
	}
	if len(req.Macro) == 0 {
		return artisan.Simulation{}, errors.New("macro is required")
	}

	sim, err := s.solver.SimulateNames(settings, req.Macro, req.Rolls)
	if err != nil && !errors.Is(err, domain.ErrIllegalAction) {
		return artisan.Simulation{}, err
	}
	// An illegal step is reported through Simulation.Error with the partial trace.
	return sim, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Action Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		c := s.solver.Catalog()
		jsonBytes, err := json.Marshal(map[string]any{
			"name":       c.Name(),
			"digest":     c.Digest(),
			"strategies": s.solver.Strategies(),
			"actions":    c.Actions(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
