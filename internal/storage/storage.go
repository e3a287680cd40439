// Package storage defines the persistence ports for the feed service: a
// record store for reviewed canonical records and a blob store for raw search
// artifacts. The abstractions keep the service independent of a specific
// backend (Postgres, Google Cloud Storage, the local filesystem, or memory).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gigfeed/gigfeed/internal/feed"
)

// RecordStatus tracks a stored record through manual review.
type RecordStatus string

// Review statuses. New records always enter as pending.
const (
	StatusPending  RecordStatus = "pending"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
	StatusHidden   RecordStatus = "hidden"
)

// ValidStatus reports whether s is a known review status.
func ValidStatus(s RecordStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusHidden:
		return true
	default:
		return false
	}
}

// Store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid record status")
)

// StoredRecord is a canonical record under review, scoped to one tenant.
type StoredRecord struct {
	Tenant    string       `json:"tenant"`
	Record    feed.Record  `json:"record"`
	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ListFilter narrows a List call. Zero values mean no constraint.
type ListFilter struct {
	Status RecordStatus
	Source feed.SourceTag
	Limit  int
}

// Validate rejects filters naming an unknown status.
func (f ListFilter) Validate() error {
	if f.Status != "" && !ValidStatus(f.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	return nil
}

// RecordStore persists canonical records keyed by (tenant, record id).
// Upsert refreshes record content but never resets review status.
type RecordStore interface {
	Upsert(ctx context.Context, tenant string, record feed.Record) error
	Get(ctx context.Context, tenant, id string) (StoredRecord, error)
	List(ctx context.Context, tenant string, filter ListFilter) ([]StoredRecord, error)
	UpdateStatus(ctx context.Context, tenant, id string, status RecordStatus) error
}

// BlobStore writes raw artifacts and returns a backend-specific URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}
