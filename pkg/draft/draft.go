// Package draft persists an in-progress application so it can be resumed.
//
// A draft occupies two slots of a ports.SlotStore: the form data as JSON
// (without any binary content or preview handles) and the step index as a
// decimal string.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/ports"
)

// Slot names, shared with every storage backend.
const (
	FormSlot = "govFormData"
	StepSlot = "govFormStep"
)

// Draft is a restored snapshot.
type Draft struct {
	Data domain.FormData
	Step domain.Step
}

// Store reads and writes the draft of one namespace (usually a session id).
type Store struct {
	slots     ports.SlotStore
	namespace string
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for abandoned loads.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New binds a draft store to a namespace. An empty namespace uses the bare
// slot names.
func New(slots ports.SlotStore, namespace string, opts ...Option) *Store {
	s := &Store{slots: slots, namespace: namespace, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the namespace the store is bound to.
func (s *Store) Namespace() string {
	return s.namespace
}

// FormKey and StepKey are the fully qualified slot keys.
func (s *Store) FormKey() string { return Key(s.namespace, FormSlot) }
func (s *Store) StepKey() string { return Key(s.namespace, StepSlot) }

// Key joins a namespace and a slot name.
func Key(namespace, slot string) string {
	if namespace == "" {
		return slot
	}
	return namespace + ":" + slot
}

// Save writes both slots. Documents lose their file and preview handle.
func (s *Store) Save(ctx context.Context, data domain.FormData, step domain.Step) error {
	persisted := Strip(data)
	raw, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.slots.Set(ctx, s.FormKey(), string(raw)); err != nil {
		return fmt.Errorf("failed to save form slot: %w", err)
	}
	if err := s.slots.Set(ctx, s.StepKey(), strconv.Itoa(int(step))); err != nil {
		return fmt.Errorf("failed to save step slot: %w", err)
	}
	return nil
}

// Load reads the draft. found is false when no form slot exists or when it
// could not be parsed; the latter is logged and the draft ignored.
func (s *Store) Load(ctx context.Context) (d Draft, found bool, err error) {
	raw, err := s.slots.Get(ctx, s.FormKey())
	if err != nil {
		if errors.Is(err, domain.ErrSlotNotFound) {
			return Draft{}, false, nil
		}
		return Draft{}, false, fmt.Errorf("failed to load form slot: %w", err)
	}

	data := domain.NewFormData()
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Warn("abandoning unreadable draft", "namespace", s.namespace, "error", err)
		return Draft{}, false, nil
	}
	data = Strip(data)
	if data.Documents == nil {
		data.Documents = []domain.Document{}
	}

	return Draft{Data: data, Step: s.loadStep(ctx)}, true, nil
}

// A missing or malformed step means the first step; others are clamped.
func (s *Store) loadStep(ctx context.Context) domain.Step {
	raw, err := s.slots.Get(ctx, s.StepKey())
	if err != nil {
		if !errors.Is(err, domain.ErrSlotNotFound) {
			s.logger.Warn("failed to load step slot", "namespace", s.namespace, "error", err)
		}
		return domain.FirstStep
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.FirstStep
	}
	return domain.Step(n).Clamp()
}

// Clear deletes both slots.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	if err := s.slots.Delete(ctx, s.FormKey()); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear form slot: %w", err))
	}
	if err := s.slots.Delete(ctx, s.StepKey()); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear step slot: %w", err))
	}
	return errors.Join(errs...)
}

// Exists reports whether a form slot is stored.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := s.slots.Get(ctx, s.FormKey())
	if errors.Is(err, domain.ErrSlotNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Strip removes the transient parts of every document.
func Strip(data domain.FormData) domain.FormData {
	out := data.Clone()
	for i, d := range out.Documents {
		out.Documents[i] = d.Stripped()
	}
	return out
}

// Sessions lists the namespaces holding a form slot.
func Sessions(ctx context.Context, slots ports.SlotStore) ([]string, error) {
	keys, err := slots.List(ctx)
	if err != nil {
		return nil, err
	}
	suffix := ":" + FormSlot
	var ids []string
	for _, k := range keys {
		if ns, ok := strings.CutSuffix(k, suffix); ok && ns != "" {
			ids = append(ids, ns)
		}
	}
	return ids, nil
}
