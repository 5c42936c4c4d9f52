package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/repository"
)

// newTestDB opens a fresh in-memory database that lives for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestStudent(t *testing.T, db *DB, name, slug string) *model.Student {
	t.Helper()
	s := &model.Student{
		Name:         name,
		Status:       model.StatusActive,
		PublicLink:   "/student/" + slug,
		PrivateLink:  "/student/" + slug + "/edit",
		EditPassword: "123456789",
	}
	require.NoError(t, db.Create(context.Background(), s))
	return s
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	s := &model.Student{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Status:      model.StatusActive,
		GitHub:      "https://github.com/ada",
		PublicLink:  "/student/ada_lovelace_1",
		PrivateLink: "/student/ada_lovelace_1/edit",
		VisitCount:  42, // ignored: counters always start at zero
	}
	require.NoError(t, db.Create(context.Background(), s))

	assert.Len(t, s.ID, 20)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
	assert.Zero(t, s.VisitCount)

	found, err := db.Find(context.Background(), repository.Filter{ID: s.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.Name)
	assert.Equal(t, "ada@example.com", found.Email)
	assert.Equal(t, "https://github.com/ada", found.GitHub)
	assert.Equal(t, model.StatusActive, found.Status)
	assert.Nil(t, found.LastViewed)
	assert.Zero(t, found.VisitCount)
}

func TestCreate_DuplicatePublicLink(t *testing.T) {
	db := newTestDB(t)
	createTestStudent(t, db, "Ada", "ada_1")

	err := db.Create(context.Background(), &model.Student{
		Name:        "Ada",
		PublicLink:  "/student/ada_1",
		PrivateLink: "/student/ada_1/edit",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

// =========================================================================
// FIND TESTS
// =========================================================================

func TestFind_ByIDAndSlugAgree(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Grace Hopper", "grace_hopper_7")

	byID, err := db.Find(context.Background(), repository.Filter{ID: created.ID})
	require.NoError(t, err)
	bySlug, err := db.Find(context.Background(), repository.Filter{PublicLink: "/student/grace_hopper_7"})
	require.NoError(t, err)

	assert.Equal(t, byID, bySlug)
}

func TestFind_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Find(context.Background(), repository.Filter{PublicLink: "/student/nobody_1"})

	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.EqualError(t, err, "Student not found")
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	first := createTestStudent(t, db, "First", "first_1")
	second := createTestStudent(t, db, "Second", "second_2")
	third := createTestStudent(t, db, "Third", "third_3")

	students, err := db.List(context.Background())
	require.NoError(t, err)

	require.Len(t, students, 3)
	assert.Equal(t, third.ID, students[0].ID)
	assert.Equal(t, second.ID, students[1].ID)
	assert.Equal(t, first.ID, students[2].ID)
}

func TestList_Empty(t *testing.T) {
	db := newTestDB(t)

	students, err := db.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students, "empty list must encode as [] not null")
	assert.Empty(t, students)
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate_PartialMerge(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")
	time.Sleep(2 * time.Millisecond)

	updated, err := db.Update(context.Background(),
		repository.Filter{PublicLink: "/student/ada_1"},
		model.Patch{"status": "inactive"},
	)
	require.NoError(t, err)

	assert.Equal(t, model.StatusInactive, updated.Status)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, created.PublicLink, updated.PublicLink)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdate_EmptyPatchTouchesUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")
	time.Sleep(2 * time.Millisecond)

	updated, err := db.Update(context.Background(), repository.Filter{ID: created.ID}, model.Patch{})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Update(context.Background(),
		repository.Filter{PublicLink: "/student/ghost_1"},
		model.Patch{"name": "Ghost"},
	)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")

	require.NoError(t, db.Delete(context.Background(), repository.Filter{PublicLink: "/student/ada_1"}))

	_, err := db.Find(context.Background(), repository.Filter{ID: created.ID})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = db.Find(context.Background(), repository.Filter{PublicLink: "/student/ada_1"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Delete(context.Background(), repository.Filter{ID: "cv37rs3pp9olc6atsptg"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// INCREMENT TESTS
// =========================================================================

func TestIncrement_Click(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")

	s, err := db.Increment(context.Background(), repository.Filter{ID: created.ID}, model.CounterGitHubClicks)
	require.NoError(t, err)

	assert.EqualValues(t, 1, s.GitHubClicks)
	assert.Zero(t, s.LinkedInClicks)
	assert.Zero(t, s.VisitCount)
	assert.Nil(t, s.LastViewed, "clicks do not touch lastViewed")
}

func TestIncrement_VisitSetsLastViewed(t *testing.T) {
	db := newTestDB(t)
	createTestStudent(t, db, "Ada", "ada_1")
	before := time.Now().UTC().Add(-time.Second)

	s, err := db.Increment(context.Background(), repository.Filter{PublicLink: "/student/ada_1"}, model.CounterVisits)
	require.NoError(t, err)

	assert.EqualValues(t, 1, s.VisitCount)
	require.NotNil(t, s.LastViewed)
	assert.True(t, s.LastViewed.After(before))
}

func TestIncrement_Concurrent(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Increment(context.Background(), repository.Filter{ID: created.ID}, model.CounterLinkedInClicks)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	found, err := db.Find(context.Background(), repository.Filter{ID: created.ID})
	require.NoError(t, err)
	assert.EqualValues(t, n, found.LinkedInClicks)
}

func TestIncrement_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Increment(context.Background(), repository.Filter{PublicLink: "/student/ghost_1"}, model.CounterVisits)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestIncrement_UnknownCounter(t *testing.T) {
	db := newTestDB(t)
	created := createTestStudent(t, db, "Ada", "ada_1")

	_, err := db.Increment(context.Background(), repository.Filter{ID: created.ID}, model.Counter("name"))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
