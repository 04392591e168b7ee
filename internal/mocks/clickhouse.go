package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// MockAuditSink keeps audit records in memory for local development and tests
type MockAuditSink struct {
	mu      sync.Mutex
	ingests []models.IngestEvent
	health  []models.HealthRecord
	Err     error
}

// NewMockAuditSink creates an empty in-memory audit sink
func NewMockAuditSink() *MockAuditSink {
	logger.Info("Using MOCK ClickHouse audit sink for local development")
	return &MockAuditSink{}
}

// RecordIngest stores e unless Err is set
func (m *MockAuditSink) RecordIngest(ctx context.Context, e models.IngestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.ingests = append(m.ingests, e)
	return nil
}

// RecordHealth stores r unless Err is set
func (m *MockAuditSink) RecordHealth(ctx context.Context, r models.HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.health = append(m.health, r)
	return nil
}

// IngestCounts counts recorded ingests per target since the given time
func (m *MockAuditSink) IngestCounts(ctx context.Context, since time.Time) (map[string]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]uint64{}
	for _, e := range m.ingests {
		if !e.At.Before(since) {
			counts[e.TargetID]++
		}
	}
	return counts, nil
}

// Ingests returns a copy of the recorded ingest events
func (m *MockAuditSink) Ingests() []models.IngestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IngestEvent(nil), m.ingests...)
}

// HealthRecords returns a copy of the recorded health records
func (m *MockAuditSink) HealthRecords() []models.HealthRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.HealthRecord(nil), m.health...)
}

// Ping always succeeds
func (m *MockAuditSink) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for mock sink
func (m *MockAuditSink) Close() error {
	return nil
}
