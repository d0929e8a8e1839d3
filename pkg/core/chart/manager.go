package chart

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Backend attaches real drawing resources to chart instances.
type Backend interface {
	Create(spec Spec) error
	Update(spec Spec) error
	Destroy(id string) error
}

// NopBackend accepts every call and holds nothing.
type NopBackend struct{}

func (NopBackend) Create(Spec) error    { return nil }
func (NopBackend) Update(Spec) error    { return nil }
func (NopBackend) Destroy(string) error { return nil }

// Action reports what Render did with an instance.
type Action string

const (
	ActionCreated  Action = "created"
	ActionReplaced Action = "replaced"
	ActionUpdated  Action = "updated"
)

// Instance is a live chart owned by a Manager.
type Instance struct {
	Spec     Spec
	Shape    Shape
	Revision int
}

// Manager owns every chart instance of one dashboard, keyed by canvas ID.
// An instance whose shape would change is destroyed and recreated, never
// reshaped in place.
type Manager struct {
	mu        sync.Mutex
	backend   Backend
	instances map[string]*Instance
	logger    *zap.Logger
}

// NewManager creates a manager drawing through backend. A nil backend is a
// NopBackend; a nil logger discards.
func NewManager(backend Backend, logger *zap.Logger) *Manager {
	if backend == nil {
		backend = NopBackend{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend:   backend,
		instances: make(map[string]*Instance),
		logger:    logger,
	}
}

// Render creates the instance for spec.ID, updates it in place when the
// shape is unchanged, or destroys and recreates it otherwise.
func (m *Manager) Render(spec Spec) (Action, error) {
	if spec.ID == "" {
		return "", fmt.Errorf("chart spec has no id")
	}
	shape := spec.Shape()

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[spec.ID]
	if ok && inst.Shape == shape {
		if err := m.backend.Update(spec); err != nil {
			return "", fmt.Errorf("update chart %s: %w", spec.ID, err)
		}
		inst.Spec = spec
		inst.Revision++
		m.logger.Debug("chart updated", zap.String("id", spec.ID), zap.Int("revision", inst.Revision))
		return ActionUpdated, nil
	}

	action := ActionCreated
	if ok {
		if err := m.backend.Destroy(spec.ID); err != nil {
			return "", fmt.Errorf("destroy chart %s: %w", spec.ID, err)
		}
		delete(m.instances, spec.ID)
		action = ActionReplaced
	}
	if err := m.backend.Create(spec); err != nil {
		return "", fmt.Errorf("create chart %s: %w", spec.ID, err)
	}
	m.instances[spec.ID] = &Instance{Spec: spec, Shape: shape, Revision: 1}
	m.logger.Debug("chart "+string(action), zap.String("id", spec.ID), zap.Int("datasets", len(spec.Datasets)))
	return action, nil
}

// Destroy tears down one instance. Unknown ids are ignored.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyLocked(id)
}

func (m *Manager) destroyLocked(id string) error {
	if _, ok := m.instances[id]; !ok {
		return nil
	}
	delete(m.instances, id)
	if err := m.backend.Destroy(id); err != nil {
		return fmt.Errorf("destroy chart %s: %w", id, err)
	}
	return nil
}

// DestroyPrefix tears down every instance whose id starts with prefix and
// returns how many were removed.
func (m *Manager) DestroyPrefix(prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range m.sortedIDsLocked() {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if err := m.destroyLocked(id); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Reset destroys every instance.
func (m *Manager) Reset() error {
	_, err := m.DestroyPrefix("")
	return err
}

// Get returns a copy of the instance for id.
func (m *Manager) Get(id string) (Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// IDs lists live instance ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedIDsLocked()
}

func (m *Manager) sortedIDsLocked() []string {
	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Event is one backend call, recorded by RecordingBackend.
type Event struct {
	Op string
	ID string
}

// RecordingBackend keeps the lifecycle calls it receives. The text renderer
// and tests use it to observe create/update/destroy ordering.
type RecordingBackend struct {
	mu     sync.Mutex
	events []Event
}

func (b *RecordingBackend) record(op, id string) {
	b.mu.Lock()
	b.events = append(b.events, Event{Op: op, ID: id})
	b.mu.Unlock()
}

func (b *RecordingBackend) Create(s Spec) error     { b.record("create", s.ID); return nil }
func (b *RecordingBackend) Update(s Spec) error     { b.record("update", s.ID); return nil }
func (b *RecordingBackend) Destroy(id string) error { b.record("destroy", id); return nil }

// Events returns a copy of the recorded calls.
func (b *RecordingBackend) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Live returns ids created and not yet destroyed.
func (b *RecordingBackend) Live() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	live := map[string]bool{}
	for _, e := range b.events {
		switch e.Op {
		case "create":
			live[e.ID] = true
		case "destroy":
			delete(live, e.ID)
		}
	}
	out := make([]string, 0, len(live))
	for id := range live {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
