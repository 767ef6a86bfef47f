package govform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/draft"
	"github.com/aretw0/govform/pkg/notify"
	"github.com/aretw0/govform/pkg/observability"
	"github.com/aretw0/govform/pkg/persistence/middleware"
	"github.com/aretw0/govform/pkg/ports"
	"github.com/aretw0/govform/pkg/session"
	"github.com/aretw0/govform/pkg/submission"
	"github.com/aretw0/govform/pkg/wizard"
)

// Service is the high-level entry point of the library.
// It owns the slot store, the session manager and the observers shared by
// every session.
type Service struct {
	store    ports.SlotStore
	raw      ports.SlotStore
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger
	closers  []func() error

	// options
	middlewares []middleware.Middleware
	encryption  *middleware.EncryptionConfig
	locker      ports.DistributedLocker
	registerer  prometheus.Registerer
	hooks       []domain.LifecycleHooks
	notifiers   []ports.Notifier
	autosave    bool
	delay       *time.Duration
	gateway     submission.Gateway
	now         func() time.Time
	tracer      trace.TracerProvider
	machineOpts []wizard.Option
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets the slot backend. The default keeps drafts in memory.
func WithStore(store ports.SlotStore) Option {
	return func(s *Service) {
		s.raw = store
	}
}

// WithStoreMiddleware wraps the backend, outermost first.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Service) {
		s.middlewares = append(s.middlewares, mws...)
	}
}

// WithEncryption encrypts draft slots at rest with AES-256-GCM.
func WithEncryption(active []byte, fallback ...[]byte) Option {
	return func(s *Service) {
		s.encryption = &middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback}
	}
}

// WithLocker serializes sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegisterer enables Prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = reg
	}
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = append(s.hooks, hooks)
	}
}

// WithNotifier adds a user-facing notification sink.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifiers = append(s.notifiers, n)
	}
}

// WithAutosave toggles the draft save after every successful advance.
func WithAutosave(enabled bool) Option {
	return func(s *Service) {
		s.autosave = enabled
	}
}

// WithSubmissionDelay overrides the simulated processing time.
func WithSubmissionDelay(d time.Duration) Option {
	return func(s *Service) {
		s.delay = &d
	}
}

// WithGateway replaces the simulated submission backend.
func WithGateway(g submission.Gateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

// WithClock replaces time.Now in every session.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTracerProvider traces machine operations with tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp
	}
}

// WithMachineOptions passes extra options to every session machine.
func WithMachineOptions(opts ...wizard.Option) Option {
	return func(s *Service) {
		s.machineOpts = append(s.machineOpts, opts...)
	}
}

// WithCloser registers a release function run by Close, typically the
// backend's own Close.
func WithCloser(fn func() error) Option {
	return func(s *Service) {
		s.closers = append(s.closers, fn)
	}
}

// New assembles a Service.
func New(opts ...Option) (*Service, error) {
	s := &Service{autosave: true}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.raw == nil {
		s.raw = memory.NewStore()
	}

	mws := append([]middleware.Middleware(nil), s.middlewares...)
	if s.encryption != nil {
		enc, err := middleware.NewEncryptionMiddleware(*s.encryption)
		if err != nil {
			return nil, fmt.Errorf("failed to configure encryption: %w", err)
		}
		mws = append(mws, enc)
	}
	s.store = middleware.Chain(s.raw, mws...)

	hooks := append([]domain.LifecycleHooks{observability.LogHooks(s.logger)}, s.hooks...)
	var sessionOpts []session.Option
	if s.registerer != nil {
		s.metrics = observability.NewMetrics(s.registerer)
		hooks = append(hooks, s.metrics.Hooks())
		sessionOpts = append(sessionOpts, session.WithActiveGauge(s.metrics.ActiveForms))
	}

	machineOpts := []wizard.Option{
		wizard.WithLifecycleHooks(observability.Chain(hooks...)),
		wizard.WithNotifier(notify.Multi(append([]ports.Notifier{notify.NewLog(s.logger)}, s.notifiers...))),
		wizard.WithAutosave(s.autosave),
	}
	if s.now != nil {
		machineOpts = append(machineOpts, wizard.WithClock(s.now))
	}
	if s.tracer != nil {
		machineOpts = append(machineOpts, wizard.WithTracerProvider(s.tracer))
	}
	var flowOpts []submission.Option
	if s.delay != nil {
		flowOpts = append(flowOpts, submission.WithDelay(*s.delay))
	}
	if s.gateway != nil {
		flowOpts = append(flowOpts, submission.WithGateway(s.gateway))
	}
	if len(flowOpts) > 0 {
		machineOpts = append(machineOpts, wizard.WithSubmissionOptions(flowOpts...))
	}
	machineOpts = append(machineOpts, s.machineOpts...)

	sessionOpts = append(sessionOpts,
		session.WithLogger(s.logger),
		session.WithMachineOptions(machineOpts...),
	)
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, sessionOpts...)

	return s, nil
}

// Sessions returns the session manager.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// Open returns the machine of sessionID, restoring its draft on first use.
// An empty id starts a new session.
func (s *Service) Open(ctx context.Context, sessionID string) (*wizard.Machine, error) {
	return s.sessions.Open(ctx, sessionID)
}

// Metrics returns the collectors, or nil when no registerer was configured.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Store returns the slot store as seen by sessions, middleware applied.
func (s *Service) Store() ports.SlotStore {
	return s.store
}

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// Catalog returns the fixed option lists.
func (s *Service) Catalog() domain.Catalog {
	return domain.DefaultCatalog()
}

// Inspect returns the stored slots of a session with personal fields masked.
// It reads through the middleware chain, so encrypted drafts are decrypted
// first.
func (s *Service) Inspect(ctx context.Context, sessionID string) (map[string]string, error) {
	view := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(s.store)
	out := make(map[string]string, 2)
	for _, slot := range []string{draft.FormSlot, draft.StepSlot} {
		v, err := view.Get(ctx, draft.Key(sessionID, slot))
		if errors.Is(err, domain.ErrSlotNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[slot] = v
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return out, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the backend when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.raw.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close disposes every live session and releases the backend. Drafts stay.
func (s *Service) Close() error {
	errs := []error{s.sessions.Close()}
	for _, fn := range s.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
