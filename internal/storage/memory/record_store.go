package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/storage"
)

// RecordStore provides an in-memory implementation for development/testing.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]map[string]storage.StoredRecord
	clock   feed.Clock
}

// NewRecordStore constructs a RecordStore.
func NewRecordStore(clock feed.Clock) *RecordStore {
	if clock == nil {
		clock = feed.SystemClock()
	}
	return &RecordStore{
		records: make(map[string]map[string]storage.StoredRecord),
		clock:   clock,
	}
}

// Upsert inserts a record as pending or refreshes the content of an existing
// one. Review status survives refreshes.
func (s *RecordStore) Upsert(_ context.Context, tenant string, record feed.Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.records[tenant]
	if !ok {
		byID = make(map[string]storage.StoredRecord)
		s.records[tenant] = byID
	}

	now := s.clock.Now()
	existing, exists := byID[record.ID]
	if exists {
		existing.Record = record
		existing.UpdatedAt = now
		byID[record.ID] = existing
		return nil
	}
	byID[record.ID] = storage.StoredRecord{
		Tenant:    tenant,
		Record:    record,
		Status:    storage.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// Get fetches a record by ID.
func (s *RecordStore) Get(_ context.Context, tenant, id string) (storage.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[tenant][id]
	if !ok {
		return storage.StoredRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

// List returns the tenant's records matching the filter, newest update first.
func (s *RecordStore) List(_ context.Context, tenant string, filter storage.ListFilter) ([]storage.StoredRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.StoredRecord
	for _, rec := range s.records[tenant] {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Source != "" && rec.Record.Source != filter.Source {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateStatus moves a record to a new review status.
func (s *RecordStore) UpdateStatus(_ context.Context, tenant, id string, status storage.RecordStatus) error {
	if !storage.ValidStatus(status) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidStatus, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[tenant][id]
	if !ok {
		return storage.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = s.clock.Now()
	s.records[tenant][id] = rec
	return nil
}
