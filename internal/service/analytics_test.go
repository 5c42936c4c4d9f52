package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
)

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *StudentService, *model.Student) {
	t.Helper()
	repo := newFakeStudentRepo()
	students := newTestStudentService(repo)
	st := createAda(t, students)
	return NewAnalyticsService(repo, testLogger()), students, st
}

func TestTrackClick_RedirectTarget(t *testing.T) {
	analytics, students, st := newAnalyticsFixture(t)

	target, err := analytics.TrackClick(context.Background(), model.PlatformGitHub, "ada_lovelace_42")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/ada", target)

	got, err := students.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.GitHubClicks)
}

func TestTrackClick_MissingURLStillCounts(t *testing.T) {
	analytics, students, st := newAnalyticsFixture(t)

	_, err := analytics.TrackClick(context.Background(), model.PlatformLinkedIn, st.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := students.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LinkedInClicks, "the click is counted before the target is checked")
}

func TestTrackClick_UnknownPlatform(t *testing.T) {
	analytics, _, st := newAnalyticsFixture(t)

	_, err := analytics.TrackClick(context.Background(), model.Platform("myspace"), st.ID)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTrackClick_UnknownStudent(t *testing.T) {
	analytics, _, _ := newAnalyticsFixture(t)

	_, err := analytics.TrackClick(context.Background(), model.PlatformGitHub, "ghost_7")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTrackClick_Concurrent(t *testing.T) {
	analytics, students, st := newAnalyticsFixture(t)

	const n = 40
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = analytics.TrackClick(context.Background(), model.PlatformGitHub, st.ID)
		}()
	}
	wg.Wait()

	got, err := students.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, got.GitHubClicks)
}

func TestTrackVisit(t *testing.T) {
	analytics, students, st := newAnalyticsFixture(t)

	require.NoError(t, analytics.TrackVisit(context.Background(), "ada_lovelace_42/links"))
	require.NoError(t, analytics.TrackVisit(context.Background(), st.ID))

	got, err := students.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.VisitCount)
	require.NotNil(t, got.LastViewed)

	assert.ErrorIs(t, analytics.TrackVisit(context.Background(), "ghost_7"), apperror.ErrNotFound)
}

func TestTrackVisit_StoreFailure(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.err = errors.New("database is locked")
	analytics := NewAnalyticsService(repo, testLogger())

	err := analytics.TrackVisit(context.Background(), "ada_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}
