package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
)

// Store defines the record operations on the persisted machine collection.
type Store interface {
	Create(ctx context.Context, in NewMachine) (model.Machine, error)
	List(ctx context.Context) ([]model.Machine, error)
	Get(ctx context.Context, id int64) (model.Machine, error)
	Update(ctx context.Context, id int64, patch Patch) (model.Machine, error)
	Delete(ctx context.Context, id int64) error
	SortByNextServiceDate(ctx context.Context) ([]model.Machine, error)
	Import(ctx context.Context, records []model.Machine) (ImportResult, error)
}

// machineStore keeps the whole collection under one key and rewrites it on every mutation.
type machineStore struct {
	backend kv.Backend
	log     *zap.Logger
	now     func() time.Time

	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// Option configures a store.
type Option func(*machineStore)

// WithNow replaces the clock used for id assignment. Useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *machineStore) { s.now = now }
}

// WithLogger sets the logger used to report unreadable stored data.
func WithLogger(l *zap.Logger) Option {
	return func(s *machineStore) { s.log = l }
}

// New creates a record store on top of a key-value backend.
func New(backend kv.Backend, opts ...Option) Store {
	s := &machineStore{
		backend: backend,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *machineStore) Create(ctx context.Context, in NewMachine) (model.Machine, error) {
	if err := in.validate(); err != nil {
		return model.Machine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return model.Machine{}, err
	}

	m := model.Machine{
		ID:           s.nextID(machines),
		Name:         in.Name,
		Type:         in.Type,
		LastServiced: in.LastServiced,
		Interval:     in.Interval,
	}
	if err := s.save(ctx, append(machines, m)); err != nil {
		return model.Machine{}, err
	}
	return m, nil
}

func (s *machineStore) List(ctx context.Context) ([]model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *machineStore) Get(ctx context.Context, id int64) (model.Machine, error) {
	machines, err := s.List(ctx)
	if err != nil {
		return model.Machine{}, err
	}
	if i := indexOf(machines, id); i >= 0 {
		return machines[i], nil
	}
	return model.Machine{}, ErrNotFound
}

func (s *machineStore) Update(ctx context.Context, id int64, patch Patch) (model.Machine, error) {
	if err := patch.validate(); err != nil {
		return model.Machine{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return model.Machine{}, err
	}
	i := indexOf(machines, id)
	if i < 0 {
		return model.Machine{}, ErrNotFound
	}

	updated := machines[i]
	patch.apply(&updated)
	if err := checkNextService(updated.LastServiced, updated.Interval); err != nil {
		return model.Machine{}, err
	}
	machines[i] = updated
	if err := s.save(ctx, machines); err != nil {
		return model.Machine{}, err
	}
	return machines[i], nil
}

func (s *machineStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(machines, id)
	if i < 0 {
		return nil
	}
	return s.save(ctx, slices.Delete(machines, i, i+1))
}

func (s *machineStore) SortByNextServiceDate(ctx context.Context) ([]model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(machines, func(a, b model.Machine) int {
		return a.NextServiceDate().Compare(b.NextServiceDate())
	})
	if err := s.save(ctx, machines); err != nil {
		return nil, err
	}
	return machines, nil
}

// Import appends records whose ids are new and whose fields validate.
// Records without an id get a fresh one.
func (s *machineStore) Import(ctx context.Context, records []model.Machine) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for _, r := range records {
		in := NewMachine{Name: r.Name, Type: r.Type, LastServiced: r.LastServiced, Interval: r.Interval}
		if err := in.validate(); err != nil {
			s.log.Warn("skipping invalid imported record", zap.Int64("id", r.ID), zap.Error(err))
			res.Invalid++
			continue
		}
		if r.ID <= 0 {
			r.ID = s.nextID(machines)
		} else if indexOf(machines, r.ID) >= 0 {
			res.Duplicates++
			continue
		}
		machines = append(machines, r)
		res.Added++
		res.AddedIDs = append(res.AddedIDs, r.ID)
	}

	if res.Added == 0 {
		return res, nil
	}
	if err := s.save(ctx, machines); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// nextID derives an id from the current time in milliseconds, bumped past the
// largest existing id so it stays unique and increasing.
func (s *machineStore) nextID(machines []model.Machine) int64 {
	id := s.now().UnixMilli()
	for _, m := range machines {
		if m.ID >= id {
			id = m.ID + 1
		}
	}
	return id
}

// load reads the collection. Unparsable data reads as an empty collection.
func (s *machineStore) load(ctx context.Context) ([]model.Machine, error) {
	raw, err := s.backend.Get(ctx, kv.KeyMachines)
	if err != nil {
		return nil, fmt.Errorf("failed to load machines: %w", err)
	}
	if len(raw) == 0 {
		return []model.Machine{}, nil
	}

	var machines []model.Machine
	if err := json.Unmarshal(raw, &machines); err != nil {
		s.log.Warn("stored machines are unreadable, treating as empty", zap.Error(err))
		return []model.Machine{}, nil
	}
	if machines == nil {
		machines = []model.Machine{}
	}
	return machines, nil
}

func (s *machineStore) save(ctx context.Context, machines []model.Machine) error {
	raw, err := json.Marshal(machines)
	if err != nil {
		return fmt.Errorf("failed to encode machines: %w", err)
	}
	if err := s.backend.Set(ctx, kv.KeyMachines, raw); err != nil {
		return fmt.Errorf("failed to save machines: %w", err)
	}
	return nil
}

func indexOf(machines []model.Machine, id int64) int {
	return slices.IndexFunc(machines, func(m model.Machine) bool { return m.ID == id })
}
