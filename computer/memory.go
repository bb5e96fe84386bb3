package computer

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryKey declares a global aggregator and how concurrent contributions to it are folded.
type MemoryKey struct {
	Key      string
	Operator Operator
}

// Memory is the global key/value state shared by all vertices of a computation.
//
// Three views exist. The orchestrator holds the mutable one during setup, terminate and when map-reduce
// jobs store their results. Execute receives a worker view: reads come from the snapshot published at the
// end of the previous round and Add contributions become visible in the next one. Results carry an
// immutable snapshot.
type Memory interface {
	Get(key string) (any, error)
	Set(key string, value any) error
	Add(key string, value any) error
	Exists(key string) bool
	Keys() []string
	Iteration() int
	IsInitialIteration() bool
	Runtime() time.Duration
	IsComplete() bool
}

// Typed read of a memory value.
func MemoryGet[T any](m Memory, key string) (T, error) {
	var zero T
	raw, err := m.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrMemoryType, key, raw)
	}
	return typed, nil
}

// Every key must be named, have an operator, and be declared once. A program aggregator and a
// map-reduce job sharing a key would otherwise silently trade operators.
func validateMemoryKeys(keys []MemoryKey) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidMemoryKey)
		}
		if k.Operator == nil {
			return fmt.Errorf("%w: %q has no operator", ErrInvalidMemoryKey, k.Key)
		}
		if seen[k.Key] {
			return fmt.Errorf("%w: %q declared more than once", ErrInvalidMemoryKey, k.Key)
		}
		seen[k.Key] = true
	}
	return nil
}

func undefined(key string) error {
	return fmt.Errorf("%w: %q", ErrUndefinedAggregator, key)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var (
	_ Memory = (*memory)(nil)
	_ Memory = (*snapshot)(nil)
	_ Memory = (*workerMemory)(nil)
)

/* ------------------ Mutable memory ------------------ */

type memory struct {
	operators map[string]Operator

	mu        sync.RWMutex
	current   map[string]any
	iteration int
	runtime   time.Duration
	complete  bool

	published atomic.Pointer[snapshot]
}

func newMemory(keys []MemoryKey) (*memory, error) {
	if err := validateMemoryKeys(keys); err != nil {
		return nil, err
	}
	m := &memory{
		operators: make(map[string]Operator, len(keys)),
		current:   make(map[string]any, len(keys)),
	}
	for _, k := range keys {
		m.operators[k.Key] = k.Operator
	}
	m.completeSubRound()
	return m, nil
}

func (m *memory) Get(key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.current[key]
	if !ok {
		return nil, undefined(key)
	}
	return value, nil
}

func (m *memory) Set(key string, value any) error {
	if _, ok := m.operators[key]; !ok {
		return undefined(key)
	}
	m.mu.Lock()
	m.current[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memory) Add(key string, value any) error {
	op, ok := m.operators[key]
	if !ok {
		return undefined(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return foldInto(m.current, key, op, value)
}

func foldInto(values map[string]any, key string, op Operator, value any) error {
	current, exists := values[key]
	if !exists {
		values[key] = value
		return nil
	}
	folded, err := op(current, value)
	if err != nil {
		return fmt.Errorf("%q: %w", key, err)
	}
	values[key] = folded
	return nil
}

func (m *memory) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.current[key]
	return ok
}

func (m *memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.current)
}

func (m *memory) Iteration() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.iteration
}

func (m *memory) IsInitialIteration() bool {
	return m.Iteration() == 0
}

func (m *memory) Runtime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runtime
}

func (m *memory) IsComplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.complete
}

func (m *memory) incrementIteration() {
	m.mu.Lock()
	m.iteration++
	m.mu.Unlock()
}

func (m *memory) setRuntime(d time.Duration) {
	m.mu.Lock()
	m.runtime = d
	m.mu.Unlock()
}

func (m *memory) markComplete() {
	m.mu.Lock()
	m.complete = true
	m.mu.Unlock()
}

// Publishes the current state as the next immutable snapshot.
func (m *memory) completeSubRound() {
	m.mu.RLock()
	snap := &snapshot{
		values:    make(map[string]any, len(m.current)),
		iteration: m.iteration,
		runtime:   m.runtime,
		complete:  m.complete,
	}
	for k, v := range m.current {
		snap.values[k] = v
	}
	m.mu.RUnlock()
	m.published.Store(snap)
}

func (m *memory) asImmutable() *snapshot {
	return m.published.Load()
}

// Folds a worker's partial contributions, in key order.
func (m *memory) merge(partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range sortedKeys(partial) {
		if err := foldInto(m.current, key, m.operators[key], partial[key]); err != nil {
			return err
		}
	}
	return nil
}

/* ------------------ Immutable snapshot ------------------ */

type snapshot struct {
	values    map[string]any
	iteration int
	runtime   time.Duration
	complete  bool
}

func (s *snapshot) Get(key string) (any, error) {
	value, ok := s.values[key]
	if !ok {
		return nil, undefined(key)
	}
	return value, nil
}

func (s *snapshot) Set(string, any) error { return ErrImmutableMemory }
func (s *snapshot) Add(string, any) error { return ErrImmutableMemory }

func (s *snapshot) Exists(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *snapshot) Keys() []string           { return sortedKeys(s.values) }
func (s *snapshot) Iteration() int           { return s.iteration }
func (s *snapshot) IsInitialIteration() bool { return s.iteration == 0 }
func (s *snapshot) Runtime() time.Duration   { return s.runtime }
func (s *snapshot) IsComplete() bool         { return s.complete }

/* ------------------ Worker memory ------------------ */

// Round-scoped view for one worker. Only that worker touches partial, so no locking is needed.
type workerMemory struct {
	*snapshot
	operators map[string]Operator
	partial   map[string]any
}

func newWorkerMemory(m *memory) *workerMemory {
	return &workerMemory{snapshot: m.asImmutable(), operators: m.operators, partial: make(map[string]any)}
}

func (w *workerMemory) Set(key string, _ any) error {
	if _, ok := w.operators[key]; !ok {
		return undefined(key)
	}
	return ErrSetDuringExecute
}

func (w *workerMemory) Add(key string, value any) error {
	op, ok := w.operators[key]
	if !ok {
		return undefined(key)
	}
	return foldInto(w.partial, key, op, value)
}
