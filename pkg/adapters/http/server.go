package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/sanitize"
	"github.com/aretw0/govform/pkg/session"
	"github.com/aretw0/govform/pkg/wizard"
)

// Backend is the part of the service the HTTP API drives.
type Backend interface {
	Open(ctx context.Context, sessionID string) (*wizard.Machine, error)
	Sessions() *session.Manager
	Catalog() domain.Catalog
	Ping(ctx context.Context) error
}

// Server serves the application form over HTTP.
type Server struct {
	backend   Backend
	streams   *StreamManager
	tokens    TokenAuthority
	metrics   http.Handler
	logger    *slog.Logger
	version   string
	maxUpload int64
	timeout   time.Duration
	spec      *Spec
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically one also registered as
// the service notifier.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.streams = sm }
}

// WithTokens requires session-bound bearer tokens on /sessions/{id}.
func WithTokens(t TokenAuthority) Option {
	return func(s *Server) { s.tokens = t }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion is reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = strings.TrimSpace(v) }
}

// WithMaxUploadBytes caps multipart bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithRequestTimeout bounds every non-streaming request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewHandler creates the HTTP handler of the API.
func NewHandler(backend Backend, opts ...Option) (http.Handler, error) {
	spec, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	s := &Server{
		backend:   backend,
		logger:    logging.NewNop(),
		version:   "dev",
		maxUpload: 11 << 20,
		spec:      spec,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	return s.routes(), nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/catalog", s.GetCatalog)
	r.Get("/openapi.yaml", s.GetSpec)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.With(s.withTimeout).Post("/", s.CreateSession)
		r.With(s.withTimeout).Get("/", s.ListSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.requireSession)

			// Streams are long-lived and skip the timeout.
			r.Get("/events", s.SubscribeEvents)

			r.Group(func(r chi.Router) {
				r.Use(s.withTimeout)
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Patch("/fields", s.UpdateFields)
				r.Post("/validate", s.ValidateStep)
				r.Post("/advance", s.Advance)
				r.Post("/retreat", s.Retreat)
				r.Post("/save", s.SaveProgress)
				r.Post("/reset", s.Reset)
				r.Post("/documents", s.UploadDocument)
				r.Delete("/documents/{docID}", s.RemoveDocument)
				r.Get("/documents/{docID}/preview", s.GetPreview)
				r.Post("/submit", s.RequestSubmit)
				r.Post("/submit/confirm", s.ConfirmSubmit)
				r.Post("/submit/cancel", s.CancelSubmit)
				r.Get("/export", s.Export)
			})
		})
	})
	return r
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.timeout <= 0 {
		return next
	}
	return middleware.Timeout(s.timeout)(next)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// machine resolves {id} to a live machine. Unknown ids are only opened when
// they exist as drafts; sessions are created through POST /sessions.
func (s *Server) machine(r *http.Request) (*wizard.Machine, error) {
	id := chi.URLParam(r, "id")
	mgr := s.backend.Sessions()
	if m, err := mgr.Get(id); err == nil {
		return m, nil
	}
	if d := mgr.Drafts(id); d != nil {
		exists, err := d.Exists(r.Context())
		if err != nil {
			return nil, err
		}
		if exists {
			return s.backend.Open(r.Context(), id)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
}

// mutate runs fn under the session lock, broadcasts the resulting diff and
// answers with the new snapshot.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, m *wizard.Machine) error) {
	m, err := s.machine(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var before, after domain.Snapshot
	err = s.backend.Sessions().WithLock(r.Context(), m.ID(), func(ctx context.Context) error {
		before = m.Snapshot()
		defer func() { after = m.Snapshot() }()
		return fn(ctx, m)
	})
	s.streams.BroadcastDiff(&before, &after)

	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, after)
}

// SessionCreated is the answer of POST /sessions.
type SessionCreated struct {
	domain.Snapshot
	Token string `json:"token,omitempty"`
}

// CreateSession handles POST /sessions. An optional {"session_id"} resumes
// a stored draft.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
	}
	id, err := sanitize.Input(strings.TrimSpace(body.SessionID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.backend.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := SessionCreated{Snapshot: m.Snapshot()}
	if s.tokens != nil {
		if resp.Token, err = s.tokens.Issue(m.ID()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.Header().Set("Location", "/sessions/"+m.ID())
	writeJSON(w, http.StatusCreated, resp)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.backend.Sessions().List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	m, err := s.machine(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Sessions().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateFields handles PATCH /sessions/{id}/fields with a JSON object of
// field values. Text is sanitized; the batch applies entirely or not at all.
func (s *Server) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	clean, err := sanitize.Fields(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.UpdateFields(clean)
	})
}

// ValidateStep handles POST /sessions/{id}/validate?step=<name|index>.
// Without a step the current one is validated.
func (s *Server) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var stepErr error
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		step := m.Snapshot().CurrentStep
		if raw := r.URL.Query().Get("step"); raw != "" {
			if step, stepErr = domain.ParseStep(raw); stepErr != nil {
				return stepErr
			}
		}
		_, err := m.Validate(ctx, step)
		return err
	})
}

// Advance handles POST /sessions/{id}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.Advance(ctx)
	})
}

// Retreat handles POST /sessions/{id}/retreat.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.Retreat(ctx)
	})
}

// SaveProgress handles POST /sessions/{id}/save.
func (s *Server) SaveProgress(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.SaveProgress(ctx)
	})
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		m.Reset(ctx)
		return nil
	})
}

// UploadDocument handles multipart POST /sessions/{id}/documents with a
// "file" part. The declared Content-Type and the received size are what the
// acceptance policy checks.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File exceeds the maximum size of 10MB.", Reason: "too_large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid multipart body"})
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing file part"})
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := sanitize.Text(header.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := domain.File{
		Name:      name,
		MediaType: header.Header.Get("Content-Type"),
		Size:      int64(len(data)),
		Data:      data,
	}

	var doc domain.Document
	s.mutate(w, r, http.StatusCreated, func(ctx context.Context, m *wizard.Machine) error {
		doc, err = m.AddDocument(ctx, f)
		if err == nil {
			w.Header().Set("Location", fmt.Sprintf("/sessions/%s/documents/%s/preview", m.ID(), doc.ID))
		}
		return err
	})
}

// RemoveDocument handles DELETE /sessions/{id}/documents/{docID}.
func (s *Server) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.RemoveDocument(ctx, chi.URLParam(r, "docID"))
	})
}

// GetPreview handles GET /sessions/{id}/documents/{docID}/preview.
func (s *Server) GetPreview(w http.ResponseWriter, r *http.Request) {
	m, err := s.machine(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, mediaType, err := m.Preview(chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(data)
}

// RequestSubmit handles POST /sessions/{id}/submit.
func (s *Server) RequestSubmit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.RequestSubmit(ctx)
	})
}

// ConfirmSubmit handles POST /sessions/{id}/submit/confirm. It answers 202
// at once; ?wait=true blocks until the submission settles.
func (s *Server) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	status := http.StatusAccepted
	if wait {
		status = http.StatusOK
	}
	s.mutate(w, r, status, func(ctx context.Context, m *wizard.Machine) error {
		if err := m.ConfirmSubmit(ctx); err != nil {
			return err
		}
		if !wait {
			return nil
		}
		_, err := m.WaitSubmitted(ctx)
		return err
	})
}

// CancelSubmit handles POST /sessions/{id}/submit/cancel.
func (s *Server) CancelSubmit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(ctx context.Context, m *wizard.Machine) error {
		return m.CancelSubmit(ctx)
	})
}

// Export handles GET /sessions/{id}/export as a JSON download.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	m, err := s.machine(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := m.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := e.JSON()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, e.FileName()))
	_, _ = w.Write(body)
}

// GetCatalog handles GET /catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Catalog())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.backend.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "govform-http",
		"version":     s.version,
		"api_version": s.spec.Version(),
	})
}

// GetSpec handles GET /openapi.yaml.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(s.spec.Raw())
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// ?watch=step,fields,errors,documents,submission,notifications filters events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	m, err := s.machine(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var watch map[string]bool
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = make(map[string]bool)
		for _, f := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(f)] = true
		}
	}

	ch, cancel := s.streams.Subscribe(m.ID())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The first diff is the full snapshot so clients start in sync.
	snap := m.Snapshot()
	initial := domain.Diff(nil, &snap)
	data, _ := json.Marshal(initial)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventDiff, data)
	flusher.Flush()

	s.logger.Info("SSE: subscribed", "session_id", m.ID())
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", m.ID())
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil && !wanted(watch, msg) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

// wanted applies the ?watch filter to a message.
func wanted(watch map[string]bool, msg Message) bool {
	if msg.Event == EventNotification {
		return watch["notifications"]
	}
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg.Data), &diff); err != nil {
		return true
	}
	return (watch["step"] && diff.CurrentStep != nil) ||
		(watch["fields"] && len(diff.Fields) > 0) ||
		(watch["errors"] && diff.Errors != nil) ||
		(watch["documents"] && diff.Documents != nil) ||
		(watch["submission"] && (diff.Submission != nil || diff.Submitted != nil))
}
