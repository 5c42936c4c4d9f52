package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/repository"
	"github.com/sakif/student-profiles/internal/storage"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStudentRepo is an in-memory repository.StudentRepository. The mutex
// makes Increment atomic the way the real store is. IDs are real xids so
// profile.Resolve treats them as primary keys.
type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student
	nextID   int
	calls    int

	// set to a non-nil error to simulate a database failure
	err error
}

var _ repository.StudentRepository = (*fakeStudentRepo)(nil)

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[string]*model.Student)}
}

func (f *fakeStudentRepo) match(filter repository.Filter) *model.Student {
	for _, st := range f.students {
		if filter.ID != "" && st.ID == filter.ID {
			return st
		}
		if filter.PublicLink != "" && st.PublicLink == filter.PublicLink {
			return st
		}
	}
	return nil
}

func (f *fakeStudentRepo) List(ctx context.Context) ([]model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Student, 0, len(f.students))
	for _, st := range f.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStudentRepo) Find(ctx context.Context, filter repository.Filter) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := f.match(filter)
	if st == nil {
		return nil, apperror.NotFound("Student")
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, s *model.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.match(repository.Filter{PublicLink: s.PublicLink}) != nil {
		return apperror.Conflict("student", "publicLink")
	}
	f.nextID++
	s.ID = xid.New().String()
	s.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.students[s.ID] = &cp
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, filter repository.Filter, p model.Patch) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := f.match(filter)
	if st == nil {
		return nil, apperror.NotFound("Student")
	}
	p.Apply(st)
	st.UpdatedAt = time.Now()
	cp := *st
	return &cp, nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, filter repository.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	st := f.match(filter)
	if st == nil {
		return apperror.NotFound("Student")
	}
	delete(f.students, st.ID)
	return nil
}

func (f *fakeStudentRepo) Increment(ctx context.Context, filter repository.Filter, c model.Counter) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := f.match(filter)
	if st == nil {
		return nil, apperror.NotFound("Student")
	}
	switch c {
	case model.CounterVisits:
		st.VisitCount++
		now := time.Now()
		st.LastViewed = &now
	case model.CounterLinkedInClicks:
		st.LinkedInClicks++
	case model.CounterGitHubClicks:
		st.GitHubClicks++
	case model.CounterInstagramClicks:
		st.InstagramClicks++
	case model.CounterTikTokClicks:
		st.TikTokClicks++
	case model.CounterYouTubeClicks:
		st.YouTubeClicks++
	default:
		return nil, errors.New("unknown counter")
	}
	cp := *st
	return &cp, nil
}

// fakeAdminRepo is an in-memory repository.AdminRepository.
type fakeAdminRepo struct {
	admin  *model.Admin
	getErr error
}

var _ repository.AdminRepository = (*fakeAdminRepo)(nil)

func (f *fakeAdminRepo) Get(ctx context.Context) (*model.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.admin == nil {
		return nil, apperror.NotFound("Admin")
	}
	cp := *f.admin
	return &cp, nil
}

func (f *fakeAdminRepo) CreateIfAbsent(ctx context.Context, a *model.Admin) (bool, error) {
	if f.admin != nil {
		return false, nil
	}
	cp := *a
	f.admin = &cp
	return true, nil
}

func (f *fakeAdminRepo) UpdatePassword(ctx context.Context, hash string) error {
	if f.admin == nil {
		return apperror.NotFound("Admin")
	}
	f.admin.PasswordHash = hash
	return nil
}

// fakeUploader records the last object and returns a Cloudinary-shaped URL.
type fakeUploader struct {
	last storage.Object
	body []byte
	err  error
}

var _ storage.Uploader = (*fakeUploader)(nil)

func (f *fakeUploader) Upload(ctx context.Context, obj storage.Object) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.last = obj
	f.body, _ = io.ReadAll(obj.Body)
	return fmt.Sprintf("https://res.cloudinary.com/demo/%s/upload/v1/%s/%s", obj.ResourceType, obj.Folder, obj.PublicID), nil
}
