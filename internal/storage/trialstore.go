package storage

import (
	"context"
	"errors"
	"math"
	"sync"
)

var ErrInvalidRecord = errors.New("storage: invalid trial record")

// Record is what the trial store server keeps per trial: oscillations,
// total seconds and period seconds.
type Record struct {
	N      float64
	T      float64
	Period float64
}

func (r Record) Validate() error {
	for _, v := range []float64{r.N, r.T, r.Period} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidRecord
		}
	}
	return nil
}

type Stats struct {
	Average float64
	Count   int
}

// TrialStore backs the trial store server.
type TrialStore interface {
	Add(ctx context.Context, r Record) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Memory is a TrialStore that forgets everything on exit.
type Memory struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Add(_ context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return Stats{}, nil
	}
	sum := 0.0
	for _, r := range m.records {
		sum += r.Period
	}
	return Stats{Average: sum / float64(len(m.records)), Count: len(m.records)}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.records = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
