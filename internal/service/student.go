// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services receive repository interfaces, never *sqlite.DB, so tests run
// against in-memory fakes (see *_test.go) and the handler never sees SQL.
// Services accept path segments as the caller sent them; resolving a segment
// to a record filter happens here, through profile.Resolve, and nowhere else.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/profile"
	"github.com/sakif/student-profiles/internal/repository"
)

// StudentService is the record access facade for student profiles.
type StudentService struct {
	repo   repository.StudentRepository
	links  *profile.Generator
	logger *slog.Logger
}

// NewStudentService creates a StudentService.
func NewStudentService(repo repository.StudentRepository, links *profile.Generator, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		links:  links,
		logger: logger,
	}
}

// List returns every profile, newest first, without edit secrets.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list students", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing students: %w", err)
	}

	for i := range students {
		students[i] = students[i].Public()
	}
	return students, nil
}

// Get resolves segment (an id, a slug, or a slug with /edit or /links) to
// a single profile.
func (s *StudentService) Get(ctx context.Context, segment string) (*model.Student, error) {
	st, err := s.repo.Find(ctx, profile.Resolve(segment))
	if err != nil {
		return nil, s.storeError("get", segment, err)
	}

	pub := st.Public()
	return &pub, nil
}

// Create validates the payload, derives links and the initial edit secret,
// and persists a new profile.
//
// The returned record is the only response that carries the edit secret, so
// the administrator can hand it to the student.
func (s *StudentService) Create(ctx context.Context, p model.Patch) (*model.Student, error) {
	var st model.Student
	p.Apply(&st)

	st.Name = strings.TrimSpace(st.Name)
	if st.Status == "" {
		st.Status = model.StatusActive
	}
	if err := checkFields(map[string]string{"name": st.Name, "status": string(st.Status)}); err != nil {
		return nil, err
	}

	// Caller-supplied links and secrets are replaced, never trusted.
	links := s.links.Generate(st.Name)
	st.PublicLink = links.PublicLink
	st.PrivateLink = links.PrivateLink
	st.EditPassword = links.EditPassword

	if err := s.repo.Create(ctx, &st); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("public link collision",
				slog.String("publicLink", st.PublicLink),
			)
			return nil, err
		}
		s.logger.Error("failed to create student",
			slog.String("name", st.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating student: %w", err)
	}

	s.logger.Info("student created",
		slog.String("id", st.ID),
		slog.String("publicLink", st.PublicLink),
	)
	return &st, nil
}

// EditProof is what a caller presents to change a profile's edit secret:
// either an admin session or the current secret.
type EditProof struct {
	Admin           bool
	CurrentPassword string
}

// Update applies a partial field-level merge. The patch has already lost
// identity, timestamp, link and counter keys in model.DecodePatch; the fields
// left are validated if they carry rules.
//
// A patch that sets editPassword is rejected unless proof is an admin session
// or carries the current secret.
func (s *StudentService) Update(ctx context.Context, segment string, p model.Patch, proof EditProof) (*model.Student, error) {
	if p.Has("name") {
		p["name"] = strings.TrimSpace(p["name"])
	}
	if err := checkFields(p); err != nil {
		return nil, err
	}

	filter := profile.Resolve(segment)
	if p.Has("editPassword") && !proof.Admin {
		current, err := s.repo.Find(ctx, filter)
		if err != nil {
			return nil, s.storeError("update", segment, err)
		}
		if !secretMatches(current.EditPassword, proof.CurrentPassword) {
			s.logger.Info("edit password change rejected", slog.String("id", current.ID))
			return nil, apperror.Unauthorized("Current edit password is incorrect")
		}
	}

	st, err := s.repo.Update(ctx, filter, p)
	if err != nil {
		return nil, s.storeError("update", segment, err)
	}

	s.logger.Info("student updated",
		slog.String("id", st.ID),
		slog.Int("fields", len(p)),
	)
	pub := st.Public()
	return &pub, nil
}

// Delete removes the profile segment resolves to.
func (s *StudentService) Delete(ctx context.Context, segment string) error {
	if err := s.repo.Delete(ctx, profile.Resolve(segment)); err != nil {
		return s.storeError("delete", segment, err)
	}

	s.logger.Info("student deleted", slog.String("segment", segment))
	return nil
}

// VerifyEditPassword checks the edit secret of the profile segment resolves
// to. A wrong secret is an Unauthorized error.
func (s *StudentService) VerifyEditPassword(ctx context.Context, segment, password string) error {
	st, err := s.repo.Find(ctx, profile.Resolve(segment))
	if err != nil {
		return s.storeError("verify", segment, err)
	}

	if !secretMatches(st.EditPassword, password) {
		s.logger.Info("edit password rejected", slog.String("id", st.ID))
		return apperror.Unauthorized("Invalid password")
	}
	return nil
}

func secretMatches(stored, given string) bool {
	return given != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// storeError logs real store failures and passes NotFound through unlogged.
func (s *StudentService) storeError(op, segment string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	s.logger.Error("student store failure",
		slog.String("op", op),
		slog.String("segment", segment),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s student: %w", op, err)
}
