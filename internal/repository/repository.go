// Package repository declares the storage contracts the service layer depends on.
package repository

import (
	"context"

	"github.com/sakif/student-profiles/internal/model"
)

// Filter selects a single student record. Exactly one of ID or PublicLink is
// set; profile.Resolve is the only place that builds one from user input.
type Filter struct {
	ID         string
	PublicLink string
}

// String is used in log lines.
func (f Filter) String() string {
	if f.ID != "" {
		return "id=" + f.ID
	}
	return "publicLink=" + f.PublicLink
}

// StudentRepository stores student records.
//
// Every method touches exactly one record. Find, Update, Delete and Increment
// return an apperror.ErrNotFound error when nothing matches the filter.
type StudentRepository interface {
	// List returns all records, newest created first.
	List(ctx context.Context) ([]model.Student, error)
	Find(ctx context.Context, f Filter) (*model.Student, error)
	// Create assigns the ID and timestamps in place.
	Create(ctx context.Context, s *model.Student) error
	// Update applies the patch and bumps updatedAt in one statement.
	Update(ctx context.Context, f Filter, p model.Patch) (*model.Student, error)
	Delete(ctx context.Context, f Filter) error
	// Increment adds one to the counter atomically and returns the record as
	// it is after the increment. CounterVisits also sets lastViewed.
	Increment(ctx context.Context, f Filter, c model.Counter) (*model.Student, error)
}

// AdminRepository stores the singleton admin credential.
type AdminRepository interface {
	// Get returns apperror.ErrNotFound until the admin has been created.
	Get(ctx context.Context) (*model.Admin, error)
	// CreateIfAbsent inserts the admin unless one exists. created is false
	// when a row was already present; the stored row is never replaced.
	CreateIfAbsent(ctx context.Context, a *model.Admin) (created bool, err error)
	UpdatePassword(ctx context.Context, hash string) error
}
