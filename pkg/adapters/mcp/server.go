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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/sanitize"
	"github.com/aretw0/govform/pkg/session"
	"github.com/aretw0/govform/pkg/wizard"
)

// CatalogURI is the resource holding the fixed option lists.
const CatalogURI = "govform://catalog"

// SessionResult is the structured answer of every session tool.
type SessionResult struct {
	Snapshot domain.Snapshot    `json:"snapshot" jsonschema_description:"The current state of the application"`
	Errors   domain.FieldErrors `json:"errors,omitempty" jsonschema_description:"Validation errors of the last step checked"`
	Message  string             `json:"message,omitempty" jsonschema_description:"Human readable outcome"`
}

// Backend is the part of the service the MCP tools drive.
type Backend interface {
	Open(ctx context.Context, sessionID string) (*wizard.Machine, error)
	Sessions() *session.Manager
	Catalog() domain.Catalog
}

// Server exposes application sessions as MCP tools.
type Server struct {
	backend   Backend
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(backend Backend, version string, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		logger:  logging.NewNop(),
		mcpServer: server.NewMCPServer("govform-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("The application session"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new application, or resume the saved draft of session_id."),
		mcp.WithString("session_id", mcp.Description("Session to resume (optional)")),
		mcp.WithOutputSchema[SessionResult](),
	), s.handleStart)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current state of an application."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool("update_field",
		mcp.WithDescription("Set one form field. termsAccepted takes true or false."),
		sessionArg(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field key, e.g. fullName or postalCode")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithOutputSchema[SessionResult](),
	), s.handleUpdate)

	s.mcpServer.AddTool(mcp.NewTool("advance_step",
		mcp.WithDescription("Validate the current step and move to the next one."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.step(func(ctx context.Context, m *wizard.Machine) error { return m.Advance(ctx) }))

	s.mcpServer.AddTool(mcp.NewTool("retreat_step",
		mcp.WithDescription("Go back one step without validating."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.step(func(ctx context.Context, m *wizard.Machine) error { return m.Retreat(ctx) }))

	s.mcpServer.AddTool(mcp.NewTool("save_progress",
		mcp.WithDescription("Save the application as a draft."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.step(func(ctx context.Context, m *wizard.Machine) error { return m.SaveProgress(ctx) }))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard every answer and the saved draft."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.step(func(ctx context.Context, m *wizard.Machine) error { m.Reset(ctx); return nil }))

	s.mcpServer.AddTool(mcp.NewTool("validate_step",
		mcp.WithDescription("Check a step without moving. Defaults to the current step."),
		sessionArg(),
		mcp.WithString("step", mcp.Description("Step name (personal, address, service, documents) or index")),
		mcp.WithOutputSchema[SessionResult](),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("submit_application",
		mcp.WithDescription("Submit the application from the documents step and wait for the confirmation number."),
		sessionArg(),
		mcp.WithOutputSchema[SessionResult](),
	), s.step(func(ctx context.Context, m *wizard.Machine) error {
		if err := m.RequestSubmit(ctx); err != nil {
			return err
		}
		if err := m.ConfirmSubmit(ctx); err != nil {
			return err
		}
		_, err := m.WaitSubmitted(ctx)
		return err
	}))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List live and saved applications."),
	), s.handleList)
}

type sessionInput struct {
	SessionID string `json:"session_id"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	Step      string `json:"step,omitempty"`
}

func (s *Server) bind(request mcp.CallToolRequest) (sessionInput, error) {
	var in sessionInput
	if err := request.BindArguments(&in); err != nil {
		return in, err
	}
	id, err := sanitize.Input(strings.TrimSpace(in.SessionID))
	if err != nil {
		return in, err
	}
	in.SessionID = id
	return in, nil
}

// machine resolves an existing session, live or saved.
func (s *Server) machine(ctx context.Context, id string) (*wizard.Machine, error) {
	if id == "" {
		return nil, errors.New("session_id is required")
	}
	mgr := s.backend.Sessions()
	if m, err := mgr.Get(id); err == nil {
		return m, nil
	}
	if d := mgr.Drafts(id); d != nil {
		if ok, err := d.Exists(ctx); err != nil {
			return nil, err
		} else if ok {
			return s.backend.Open(ctx, id)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
}

// result turns an operation outcome into a tool result. Validation
// failures are answers, not tool errors.
func result(m *wizard.Machine, err error) *mcp.CallToolResult {
	out := SessionResult{Snapshot: m.Snapshot()}
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		out.Errors = verr.Errors
		out.Message = verr.Error()
	case err != nil:
		return mcp.NewToolResultErrorFromErr("operation failed", err)
	}
	return mcp.NewToolResultStructuredOnly(out)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.bind(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	m, err := s.backend.Open(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("start failed", err), nil
	}
	return result(m, nil), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.bind(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	m, err := s.machine(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("lookup failed", err), nil
	}
	return result(m, nil), nil
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.bind(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	value, err := sanitize.Text(in.Value)
	if err != nil {
		s.logger.Warn("MCP update_field: input rejected", "err", err, "size", len(in.Value))
		return mcp.NewToolResultErrorFromErr("input rejected", err), nil
	}
	return s.run(ctx, in.SessionID, func(ctx context.Context, m *wizard.Machine) error {
		return m.UpdateField(in.Field, value)
	})
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.bind(request)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	var errs domain.FieldErrors
	res, err := s.run(ctx, in.SessionID, func(ctx context.Context, m *wizard.Machine) error {
		step := m.Snapshot().CurrentStep
		if in.Step != "" {
			var err error
			if step, err = domain.ParseStep(in.Step); err != nil {
				return err
			}
		}
		var err error
		errs, err = m.Validate(ctx, step)
		return err
	})
	if err != nil || res.IsError {
		return res, err
	}
	if out, ok := res.StructuredContent.(SessionResult); ok {
		out.Errors = errs
		if errs.Empty() {
			out.Message = "step is complete"
		}
		res = mcp.NewToolResultStructuredOnly(out)
	}
	return res, nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.backend.Sessions().List(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("list failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(map[string][]string{"sessions": ids}), nil
}

func (s *Server) step(fn func(ctx context.Context, m *wizard.Machine) error) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, err := s.bind(request)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
		}
		return s.run(ctx, in.SessionID, fn)
	}
}

func (s *Server) run(ctx context.Context, id string, fn func(ctx context.Context, m *wizard.Machine) error) (*mcp.CallToolResult, error) {
	m, err := s.machine(ctx, id)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("lookup failed", err), nil
	}
	err = s.backend.Sessions().WithLock(ctx, id, func(ctx context.Context) error {
		return fn(ctx, m)
	})
	return result(m, err), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Form option lists",
		mcp.WithResourceDescription("Service types, regions, urgency levels and steps"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.backend.Catalog())
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
