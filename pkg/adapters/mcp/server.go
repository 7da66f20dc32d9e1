package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/ports"
	"github.com/aretw0/tally/pkg/runner"
)

// FunctionsURI is the resource listing the accepted functions and transforms.
const FunctionsURI = "tally://functions"

// DefaultSessionID is used by tools called without a session_id.
const DefaultSessionID = "mcp"

// Engine defines the calculator surface required by the MCP server.
type Engine interface {
	ports.Calculator
	Mode(ctx context.Context, sessionID string) (domain.Mode, error)
}

// EvaluateResult is the structured output of the evaluate tool.
type EvaluateResult struct {
	Expression string      `json:"expression" jsonschema_description:"The expression as typed"`
	Canonical  string      `json:"canonical" jsonschema_description:"The expression after notation rewriting"`
	Display    string      `json:"display" jsonschema_description:"The formatted result"`
	Mode       domain.Mode `json:"mode" jsonschema_description:"The modes used for evaluation"`
}

// TransformResult is the structured output of the transform tool.
type TransformResult struct {
	Op     string `json:"op"`
	Input  string `json:"input"`
	Result string `json:"result"`
}

// ModeResult is the structured output of toggle_mode and get_mode.
type ModeResult struct {
	SessionID string      `json:"session_id"`
	Mode      domain.Mode `json:"mode"`
	Label     string      `json:"label" jsonschema_description:"Human readable status, e.g. 'Decimal | π | Degrees'"`
	Display   string      `json:"display,omitempty" jsonschema_description:"The display re-rendered for the new rational mode"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("tally-mcp", strings.TrimSpace(tally.Version), server.WithToolCapabilities(false), server.WithResourceCapabilities(false, false)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: evaluate
	evaluateTool := mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate a calculator expression, e.g. '2^10', 'sin(30)', '5!', '|-3|'. "+
			"With session_id the session's modes apply and the result is added to its history; "+
			"without it the optional mode arguments apply."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("The expression to evaluate")),
		mcp.WithString("session_id", mcp.Description("Session whose modes and history to use (optional)")),
		mcp.WithString("angle", mcp.Description("Angle unit for a stateless call"), mcp.Enum("degrees", "radians")),
		mcp.WithBoolean("rational", mcp.Description("Show results as fractions (stateless call)")),
		mcp.WithBoolean("pi", mcp.Description("Show multiples of π symbolically (stateless call)")),
		mcp.WithOutputSchema[EvaluateResult](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	// TOOL: transform
	transformTool := mcp.NewTool("transform",
		mcp.WithDescription("Apply a plain-number transform: totient, prime_count, square, reciprocal, "+
			"factorize, floor, ceil, deg_to_rad, rad_to_deg or scientific."),
		mcp.WithString("op", mcp.Required(), mcp.Description("Transform name or alias")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The number to transform")),
		mcp.WithString("session_id", mcp.Description("Session whose modes apply (optional)")),
		mcp.WithOutputSchema[TransformResult](),
	)
	s.mcpServer.AddTool(transformTool, mcp.NewStructuredToolHandler(s.handleTransform))

	// TOOL: toggle_mode
	toggleTool := mcp.NewTool("toggle_mode",
		mcp.WithDescription("Flip one of the session's display modes."),
		mcp.WithString("flag", mcp.Required(), mcp.Description("Mode to flip"), mcp.Enum("angle", "rational", "pi")),
		mcp.WithString("session_id", mcp.Description("Session to change (optional)")),
		mcp.WithString("display", mcp.Description("Current display value to re-render when rational display changes")),
		mcp.WithOutputSchema[ModeResult](),
	)
	s.mcpServer.AddTool(toggleTool, mcp.NewStructuredToolHandler(s.handleToggle))

	// TOOL: get_mode
	getModeTool := mcp.NewTool("get_mode",
		mcp.WithDescription("Report the session's display modes."),
		mcp.WithString("session_id", mcp.Description("Session to inspect (optional)")),
		mcp.WithOutputSchema[ModeResult](),
	)
	s.mcpServer.AddTool(getModeTool, mcp.NewStructuredToolHandler(s.handleGetMode))
}

type evaluateArgs struct {
	Expression string `mapstructure:"expression"`
	SessionID  string `mapstructure:"session_id"`
	Angle      string `mapstructure:"angle"`
	Rational   *bool  `mapstructure:"rational"`
	Pi         *bool  `mapstructure:"pi"`
}

type transformArgs struct {
	Op        string `mapstructure:"op"`
	Input     string `mapstructure:"input"`
	SessionID string `mapstructure:"session_id"`
}

type toggleArgs struct {
	Flag      string `mapstructure:"flag"`
	SessionID string `mapstructure:"session_id"`
	Display   string `mapstructure:"display"`
}

// decodeArgs converts raw tool arguments; numbers and booleans sent as strings are accepted.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func sessionOrDefault(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EvaluateResult, error) {
	var in evaluateArgs
	if err := decodeArgs(args, &in); err != nil {
		return EvaluateResult{}, err
	}
	expression, err := runner.SanitizeInput(in.Expression)
	if err != nil {
		s.logger.Warn("MCP evaluate: input rejected", "err", err, "size", len(in.Expression))
		return EvaluateResult{}, err
	}

	if in.SessionID != "" {
		res, err := s.engine.Evaluate(ctx, in.SessionID, expression)
		if err != nil {
			return EvaluateResult{}, err
		}
		return EvaluateResult{Expression: res.Expression, Canonical: res.Canonical, Display: res.Display, Mode: res.Mode}, nil
	}

	mode := domain.DefaultMode()
	if in.Angle != "" {
		if mode.Angle, err = domain.ParseAngleUnit(in.Angle); err != nil {
			return EvaluateResult{}, err
		}
	}
	if in.Rational != nil {
		mode.Rational = *in.Rational
	}
	if in.Pi != nil {
		mode.Pi = *in.Pi
	}
	res, err := s.engine.Calculate(ctx, expression, mode)
	if err != nil {
		return EvaluateResult{}, err
	}
	return EvaluateResult{Expression: res.Expression, Canonical: res.Canonical, Display: res.Display, Mode: res.Mode}, nil
}

func (s *Server) handleTransform(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TransformResult, error) {
	var in transformArgs
	if err := decodeArgs(args, &in); err != nil {
		return TransformResult{}, err
	}
	input, err := runner.SanitizeInput(in.Input)
	if err != nil {
		return TransformResult{}, err
	}
	out, err := s.engine.Transform(ctx, sessionOrDefault(in.SessionID), in.Op, input)
	if err != nil {
		return TransformResult{}, err
	}
	return TransformResult{Op: in.Op, Input: input, Result: out}, nil
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ModeResult, error) {
	var in toggleArgs
	if err := decodeArgs(args, &in); err != nil {
		return ModeResult{}, err
	}
	flag, err := domain.ParseToggle(in.Flag)
	if err != nil {
		return ModeResult{}, err
	}
	id := sessionOrDefault(in.SessionID)
	mode, display, err := s.engine.Toggle(ctx, id, flag, in.Display)
	if err != nil {
		return ModeResult{}, err
	}
	return ModeResult{SessionID: id, Mode: mode, Label: mode.String(), Display: display}, nil
}

func (s *Server) handleGetMode(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ModeResult, error) {
	var in struct {
		SessionID string `mapstructure:"session_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return ModeResult{}, err
	}
	id := sessionOrDefault(in.SessionID)
	mode, err := s.engine.Mode(ctx, id)
	if err != nil {
		return ModeResult{}, err
	}
	return ModeResult{SessionID: id, Mode: mode, Label: mode.String()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: tally://functions
	s.mcpServer.AddResource(mcp.NewResource(FunctionsURI, "Calculator functions and transforms",
		mcp.WithResourceDescription("The closed set of functions accepted in expressions and the plain-number transforms"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(map[string]any{
			"functions":  tally.Functions(),
			"transforms": tally.Transforms(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode functions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FunctionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
