// Package repository holds the court registry: the single owner of every
// live court, addressed by court id.
package repository

import (
	"context"

	"github.com/okian/courtside/internal/domain/court"
)

// Store provides creation and lookup of live courts.
type Store interface {
	// Create registers c. Returns model.ErrDuplicateCourt if its id is taken.
	Create(ctx context.Context, c *court.Court) error

	// Get returns the court or model.ErrUnknownCourt.
	Get(ctx context.Context, courtID string) (*court.Court, error)

	// List returns every court ordered by id.
	List(ctx context.Context) []*court.Court

	// Count returns the number of live courts.
	Count(ctx context.Context) int
}
