package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/profile"
	"github.com/sakif/student-profiles/internal/repository"
)

// AnalyticsService records profile visits and outbound click-throughs.
//
// All counting goes through StudentRepository.Increment, which is a single
// atomic statement, so concurrent hits on one profile never lose updates.
type AnalyticsService struct {
	repo   repository.StudentRepository
	logger *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(repo repository.StudentRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, logger: logger}
}

// TrackClick counts a click on platform for the profile segment resolves to
// and returns the URL to redirect to.
//
// The counter is incremented before the target is checked, so a profile with
// no URL for the platform still records the click and then reports NotFound.
func (s *AnalyticsService) TrackClick(ctx context.Context, platform model.Platform, segment string) (string, error) {
	counter, ok := platform.Counter()
	if !ok {
		return "", apperror.ValidationFailed("platform", "Unknown platform")
	}

	st, err := s.repo.Increment(ctx, profile.Resolve(segment), counter)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", err
		}
		s.logger.Error("failed to track click",
			slog.String("platform", string(platform)),
			slog.String("segment", segment),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("tracking %s click: %w", platform, err)
	}

	target := platform.URL(st)
	if target == "" {
		return "", apperror.NotFound("Link")
	}
	return target, nil
}

// TrackVisit bumps the visit counter and lastViewed in one statement.
func (s *AnalyticsService) TrackVisit(ctx context.Context, segment string) error {
	if _, err := s.repo.Increment(ctx, profile.Resolve(segment), model.CounterVisits); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to track visit",
			slog.String("segment", segment),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("tracking visit: %w", err)
	}
	return nil
}
