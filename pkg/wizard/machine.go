package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/documents"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/draft"
	"github.com/aretw0/govform/pkg/ports"
	"github.com/aretw0/govform/pkg/submission"
	"github.com/aretw0/govform/pkg/validation"
)

const tracerName = "github.com/aretw0/govform/pkg/wizard"

// Machine is the state of one application session.
type Machine struct {
	mu        sync.Mutex
	id        string
	data      domain.FormData // Documents live in registry
	step      domain.Step
	errors    domain.FieldErrors
	submitted bool
	receipt   *domain.Receipt
	closed    bool

	registry  *documents.Registry
	flow      *submission.Flow
	validator *validation.Validator
	drafts    *draft.Store
	autosave  bool

	notifier ports.Notifier
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	registryOpts []documents.Option
	flowOpts     []submission.Option
}

// New creates a machine with default field values on the first step.
func New(sessionID string, opts ...Option) *Machine {
	m := &Machine{
		id:       sessionID,
		data:     domain.NewFormData(),
		errors:   domain.FieldErrors{},
		autosave: true,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.validator == nil {
		m.validator = validation.New(validation.WithClock(m.now))
	}
	m.registry = documents.NewRegistry(m.registryOpts...)
	m.flow = submission.NewFlow(sessionID, append([]submission.Option{submission.WithClock(m.now)}, m.flowOpts...)...)
	return m
}

// ID returns the session id.
func (m *Machine) ID() string {
	return m.id
}

// effects are delivered once the lock is released.
type effects []func()

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}

func (m *Machine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.now(), Type: t, SessionID: m.id}
}

func (m *Machine) notify(fx *effects, ctx context.Context, kind domain.NotificationKind, sev domain.Severity, title, desc string) {
	if m.notifier == nil {
		return
	}
	n := domain.Notification{
		SessionID: m.id, Kind: kind, Severity: sev,
		Title: title, Description: desc, Timestamp: m.now(),
	}
	*fx = append(*fx, func() { m.notifier.Notify(ctx, n) })
}

func (m *Machine) draftEvent(fx *effects, ctx context.Context, op string, err error) {
	if err != nil {
		m.logger.Warn("draft operation failed", "session_id", m.id, "operation", op, "error", err)
	}
	if m.hooks.OnDraft == nil {
		return
	}
	e := &domain.DraftEvent{EventBase: m.base(domain.EventDraft), Operation: op, Err: err}
	*fx = append(*fx, func() { m.hooks.OnDraft(ctx, e) })
}

func (m *Machine) validationEvent(fx *effects, ctx context.Context, step domain.Step, errs domain.FieldErrors) {
	if m.hooks.OnValidation == nil {
		return
	}
	e := &domain.ValidationEvent{EventBase: m.base(domain.EventValidation), Step: step, Errors: errs.Clone()}
	*fx = append(*fx, func() { m.hooks.OnValidation(ctx, e) })
}

func (m *Machine) transitionEvent(fx *effects, ctx context.Context, t domain.EventType, from, to domain.Step) {
	if m.hooks.OnTransition == nil {
		return
	}
	e := &domain.TransitionEvent{EventBase: m.base(t), From: from, To: to}
	*fx = append(*fx, func() { m.hooks.OnTransition(ctx, e) })
}

func (m *Machine) submissionEvent(fx *effects, ctx context.Context, outcome, confirmation string, d time.Duration) {
	if m.hooks.OnSubmission == nil {
		return
	}
	e := &domain.SubmissionEvent{EventBase: m.base(domain.EventSubmission), Outcome: outcome, ConfirmationNumber: confirmation, Duration: d}
	*fx = append(*fx, func() { m.hooks.OnSubmission(ctx, e) })
}

func (m *Machine) documentEvent(fx *effects, ctx context.Context, outcome, id string, f domain.File) {
	if m.hooks.OnDocument == nil {
		return
	}
	e := &domain.DocumentEvent{EventBase: m.base(domain.EventDocument), DocumentID: id, MediaType: f.MediaType, Size: f.Size, Outcome: outcome}
	*fx = append(*fx, func() { m.hooks.OnDocument(ctx, e) })
}

func (m *Machine) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "wizard."+name, trace.WithAttributes(
		attribute.String("govform.session_id", m.id),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// editable rejects edits once the application is submitted or while a
// submission is awaiting confirmation or running. Callers hold m.mu.
func (m *Machine) editable() error {
	if m.submitted {
		return domain.ErrSubmitted
	}
	switch m.flow.Status() {
	case domain.SubmissionAwaiting:
		return domain.ErrAwaitingConfirmation
	case domain.SubmissionPending:
		return domain.ErrSubmissionInFlight
	}
	return nil
}

// formData composes the field values with the registry contents.
// Callers hold m.mu.
func (m *Machine) formData() domain.FormData {
	d := m.data.Clone()
	d.Documents = m.registry.List()
	return d
}

// Restore loads the draft, if any. It reports whether one was applied.
// Storage failures are logged and leave the defaults in place. A form that
// is submitted or submitting keeps its state.
func (m *Machine) Restore(ctx context.Context) bool {
	ctx, span := m.span(ctx, "Restore")
	var fx effects
	defer fx.run()
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drafts == nil || m.editable() != nil {
		return false
	}
	d, found, err := m.drafts.Load(ctx)
	m.draftEvent(&fx, ctx, "load", err)
	if err != nil || !found {
		span.SetAttributes(attribute.Bool("govform.draft_found", false))
		return false
	}

	docs := d.Data.Documents
	d.Data.Documents = []domain.Document{}
	m.data = d.Data
	m.step = d.Step
	m.errors = domain.FieldErrors{}
	m.registry.Replace(docs)

	span.SetAttributes(attribute.Bool("govform.draft_found", true), attribute.Int("govform.step", int(d.Step)))
	m.logger.Debug("draft restored", "session_id", m.id, "step", d.Step.String())
	return true
}

// UpdateField assigns one field. It neither validates nor persists.
func (m *Machine) UpdateField(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return err
	}
	return m.data.Set(key, value)
}

// UpdateFields assigns several fields, stopping at the first error.
func (m *Machine) UpdateFields(values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return err
	}
	next := m.data.Clone()
	for k, v := range values {
		if err := next.Set(k, v); err != nil {
			return err
		}
	}
	m.data = next
	return nil
}

// Validate runs the validator of step and stores its errors.
func (m *Machine) Validate(ctx context.Context, step domain.Step) (domain.FieldErrors, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrStepOutOfRange, int(step))
	}
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	errs := m.validator.Validate(m.formData(), step)
	m.errors = errs
	m.validationEvent(&fx, ctx, step, errs)
	return errs.Clone(), nil
}

// Advance validates the current step and, when it passes, moves forward.
// The last step stays where it is. A failing step returns *ValidationError.
func (m *Machine) Advance(ctx context.Context) (err error) {
	ctx, span := m.span(ctx, "Advance")
	var fx effects
	defer fx.run()
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return err
	}

	from := m.step
	span.SetAttributes(attribute.Int("govform.step", int(from)))

	errs := m.validator.Validate(m.formData(), from)
	m.errors = errs
	m.validationEvent(&fx, ctx, from, errs)
	if !errs.Empty() {
		return &ValidationError{Step: from, Errors: errs.Clone()}
	}

	m.step = (from + 1).Clamp()
	m.transitionEvent(&fx, ctx, domain.EventStepAdvance, from, m.step)

	if m.autosave && m.drafts != nil {
		// Autosave never fails the transition.
		saveErr := m.drafts.Save(ctx, m.formData(), m.step)
		m.draftEvent(&fx, ctx, "save", saveErr)
	}
	return nil
}

// Retreat moves one step back without validating. The first step stays.
func (m *Machine) Retreat(ctx context.Context) error {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return err
	}
	from := m.step
	m.step = (from - 1).Clamp()
	m.transitionEvent(&fx, ctx, domain.EventStepRetreat, from, m.step)
	return nil
}

// SaveProgress writes the draft and confirms it to the user.
func (m *Machine) SaveProgress(ctx context.Context) (err error) {
	ctx, span := m.span(ctx, "SaveProgress")
	var fx effects
	defer fx.run()
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted {
		return domain.ErrSubmitted
	}
	if m.drafts == nil {
		return errors.New("draft persistence is not configured")
	}

	err = m.drafts.Save(ctx, m.formData(), m.step)
	m.draftEvent(&fx, ctx, "save", err)
	if err != nil {
		return err
	}
	m.notify(&fx, ctx, domain.NotifyProgressSaved, domain.SeverityInfo,
		"Progress saved", "Your form progress has been saved. You can resume later.")
	return nil
}

// Reset returns to defaults, abandons any submission and erases the draft.
func (m *Machine) Reset(ctx context.Context) {
	ctx, span := m.span(ctx, "Reset")
	var fx effects
	defer fx.run()
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.flow.Reset()
	m.registry.Clear()
	m.data = domain.NewFormData()
	m.step = domain.FirstStep
	m.errors = domain.FieldErrors{}
	m.submitted = false
	m.receipt = nil

	if m.drafts != nil {
		err := m.drafts.Clear(ctx)
		m.draftEvent(&fx, ctx, "clear", err)
	}
	m.notify(&fx, ctx, domain.NotifyFormCleared, domain.SeverityDestructive,
		"Form cleared", "Your form has been reset and all saved progress removed.")
}

// AddDocument registers an upload. Policy violations return
// *documents.RejectionError and leave the registry untouched.
func (m *Machine) AddDocument(ctx context.Context, f domain.File) (domain.Document, error) {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return domain.Document{}, err
	}

	doc, err := m.registry.Add(f)
	if err != nil {
		var rej *documents.RejectionError
		if errors.As(err, &rej) {
			m.documentEvent(&fx, ctx, "rejected", "", f)
			m.notify(&fx, ctx, domain.NotifyUploadRejected, domain.SeverityDestructive, "Upload rejected", rej.Error())
		}
		return domain.Document{}, err
	}

	m.documentEvent(&fx, ctx, "accepted", doc.ID, f)
	m.notify(&fx, ctx, domain.NotifyUploadAccepted, domain.SeverityInfo,
		"File uploaded successfully", fmt.Sprintf("%s (%s)", f.Name, documents.FormatSize(f.Size)))
	return doc, nil
}

// RemoveDocument drops a document. An unknown id is a no-op.
func (m *Machine) RemoveDocument(ctx context.Context, id string) error {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.editable(); err != nil {
		return err
	}
	doc, ok := m.registry.Get(id)
	if !ok {
		return nil
	}
	m.registry.Remove(id)
	m.documentEvent(&fx, ctx, "removed", id, domain.File{})
	m.notify(&fx, ctx, domain.NotifyDocumentRemoved, domain.SeverityInfo, "Document removed", doc.Name)
	return nil
}

// Preview returns the preview bytes of a document.
func (m *Machine) Preview(id string) ([]byte, string, error) {
	return m.registry.Preview(id)
}

// RequestSubmit re-validates the documents step and opens the confirmation
// gate. It is only available on the last step.
func (m *Machine) RequestSubmit(ctx context.Context) error {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted {
		return domain.ErrSubmitted
	}
	if m.step != domain.LastStep {
		return fmt.Errorf("%w: submission is only available on the %s step", domain.ErrStepOutOfRange, domain.LastStep)
	}

	errs := m.validator.Validate(m.formData(), domain.LastStep)
	m.errors = errs
	m.validationEvent(&fx, ctx, domain.LastStep, errs)
	if !errs.Empty() {
		return &ValidationError{Step: domain.LastStep, Errors: errs.Clone()}
	}

	if err := m.flow.Request(); err != nil {
		return err
	}
	m.submissionEvent(&fx, ctx, "requested", "", 0)
	return nil
}

// CancelSubmit closes the confirmation gate.
func (m *Machine) CancelSubmit(ctx context.Context) error {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.flow.Cancel(); err != nil {
		return err
	}
	m.submissionEvent(&fx, ctx, "cancelled", "", 0)
	return nil
}

// ConfirmSubmit re-validates the documents step and starts the submission
// with the data as it stands now. A failing step closes the confirmation
// gate and returns *ValidationError. Use WaitSubmitted to block for it.
func (m *Machine) ConfirmSubmit(ctx context.Context) (err error) {
	ctx, span := m.span(ctx, "ConfirmSubmit")
	var fx effects
	defer fx.run()
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted {
		return domain.ErrSubmitted
	}
	if m.flow.Status() != domain.SubmissionAwaiting {
		_, err = m.flow.Confirm(flowForm{m: m})
		return err
	}

	data := m.formData()
	errs := m.validator.Validate(data, domain.LastStep)
	m.errors = errs
	m.validationEvent(&fx, ctx, domain.LastStep, errs)
	if !errs.Empty() {
		if cerr := m.flow.Cancel(); cerr == nil {
			m.submissionEvent(&fx, ctx, "cancelled", "", 0)
		}
		return &ValidationError{Step: domain.LastStep, Errors: errs.Clone()}
	}

	if _, err = m.flow.Confirm(flowForm{m: m, data: data}); err != nil {
		return err
	}
	// The timer outlives the request; outcomes are reported without its ctx.
	bg := context.WithoutCancel(ctx)
	m.submissionEvent(&fx, bg, "pending", "", 0)
	m.notify(&fx, bg, domain.NotifySubmissionPending, domain.SeverityInfo,
		"Submitting application", "Please wait while we process your application.")
	return nil
}

// WaitSubmitted blocks until a confirmed submission settles.
func (m *Machine) WaitSubmitted(ctx context.Context) (domain.Receipt, error) {
	return m.flow.Wait(ctx)
}

// complete is called by the flow once an attempt settles.
func (m *Machine) complete(ctx context.Context, o submission.Outcome) {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.flow.Current(o.Attempt) {
		return
	}

	if o.Err != nil {
		m.logger.Error("submission failed", "session_id", m.id, "error", o.Err)
		m.submissionEvent(&fx, ctx, "failed", "", o.Duration)
		m.notify(&fx, ctx, domain.NotifySubmissionFailed, domain.SeverityDestructive,
			"Submission failed", "Your application could not be submitted. Please try again.")
		return
	}

	r := o.Receipt
	m.submitted = true
	m.receipt = &r
	m.errors = domain.FieldErrors{}

	// Keep the in-memory copy for the summary and export.
	if m.drafts != nil {
		err := m.drafts.Clear(ctx)
		m.draftEvent(&fx, ctx, "clear", err)
	}

	m.logger.Info("application submitted", "session_id", m.id, "confirmation", r.ConfirmationNumber)
	m.submissionEvent(&fx, ctx, "submitted", r.ConfirmationNumber, o.Duration)
	m.notify(&fx, ctx, domain.NotifySubmissionComplete, domain.SeverityInfo,
		"Application submitted", "Confirmation number: "+r.ConfirmationNumber)
}

// Export builds the downloadable artifact of a submitted application.
func (m *Machine) Export(ctx context.Context) (submission.Export, error) {
	var fx effects
	defer fx.run()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.submitted || m.receipt == nil {
		return submission.Export{}, domain.ErrNotSubmitted
	}
	e := submission.NewExport(m.formData(), m.receipt.ConfirmationNumber, m.now())
	m.notify(&fx, ctx, domain.NotifyApplicationExport, domain.SeverityInfo,
		"Application downloaded", "Your application has been downloaded as a JSON file.")
	return e, nil
}

// Snapshot returns an immutable copy of the whole session.
func (m *Machine) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := domain.Snapshot{
		SessionID:   m.id,
		CurrentStep: m.step,
		TotalSteps:  domain.TotalSteps,
		Data:        m.formData(),
		Errors:      m.errors.Clone(),
		Submitted:   m.submitted,
		Submission:  m.flow.Status(),
	}
	if m.receipt != nil {
		r := *m.receipt
		s.Receipt = &r
	}
	return s
}

// Close disposes the machine: a pending submission never lands and every
// preview is released. Close is idempotent.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.flow.Dispose()
	m.registry.Clear()
}

// flowForm keeps the flow callbacks off the public API. data is the
// application validated at confirmation.
type flowForm struct {
	m    *Machine
	data domain.FormData
}

func (f flowForm) Data() domain.FormData {
	return f.data.Clone()
}

func (f flowForm) Complete(ctx context.Context, o submission.Outcome) {
	f.m.complete(ctx, o)
}
