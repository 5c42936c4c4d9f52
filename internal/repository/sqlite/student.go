package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/repository"
)

var _ repository.StudentRepository = (*DB)(nil)

// studentColumns is the SELECT list. scanStudent reads columns in
// exactly this order.
var studentColumns = func() string {
	cols := []string{"id"}
	for _, f := range model.EditableFields {
		cols = append(cols, f.Column)
	}
	cols = append(cols,
		"public_link", "private_link",
		"visit_count", "last_viewed",
		"linkedin_clicks", "github_clicks", "instagram_clicks", "tiktok_clicks", "youtube_clicks",
		"created_at", "updated_at",
	)
	return strings.Join(cols, ", ")
}()

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*model.Student, error) {
	var (
		s          model.Student
		lastViewed sql.NullTime
	)

	dest := []any{&s.ID}
	for _, f := range model.EditableFields {
		dest = append(dest, f.Ptr(&s))
	}
	dest = append(dest,
		&s.PublicLink, &s.PrivateLink,
		&s.VisitCount, &lastViewed,
		&s.LinkedInClicks, &s.GitHubClicks, &s.InstagramClicks, &s.TikTokClicks, &s.YouTubeClicks,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if lastViewed.Valid {
		t := lastViewed.Time
		s.LastViewed = &t
	}
	return &s, nil
}

// where renders the filter as a WHERE clause and its single argument.
func where(f repository.Filter) (string, any) {
	if f.ID != "" {
		return "id = ?", f.ID
	}
	return "public_link = ?", f.PublicLink
}

// counterColumn whitelists the counters that may be interpolated into SQL.
func counterColumn(c model.Counter) (string, bool) {
	switch c {
	case model.CounterVisits:
		return "visit_count", true
	case model.CounterLinkedInClicks:
		return "linkedin_clicks", true
	case model.CounterGitHubClicks:
		return "github_clicks", true
	case model.CounterInstagramClicks:
		return "instagram_clicks", true
	case model.CounterTikTokClicks:
		return "tiktok_clicks", true
	case model.CounterYouTubeClicks:
		return "youtube_clicks", true
	}
	return "", false
}

// List returns every student, newest first. rowid breaks ties between rows
// created within the same clock tick.
func (db *DB) List(ctx context.Context) ([]model.Student, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing students: %w", err)
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning student row: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating students: %w", err)
	}

	return students, nil
}

func (db *DB) Find(ctx context.Context, f repository.Filter) (*model.Student, error) {
	clause, arg := where(f)
	s, err := scanStudent(db.conn.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE `+clause, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Student")
		}
		return nil, fmt.Errorf("sqlite: finding student %s: %w", f, err)
	}
	return s, nil
}

// Create inserts s. ID, timestamps and zeroed counters are set in place.
func (db *DB) Create(ctx context.Context, s *model.Student) error {
	s.ID = xid.New().String()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.VisitCount, s.LastViewed = 0, nil
	s.LinkedInClicks, s.GitHubClicks, s.InstagramClicks, s.TikTokClicks, s.YouTubeClicks = 0, 0, 0, 0, 0

	cols := []string{"id"}
	args := []any{s.ID}
	for _, f := range model.EditableFields {
		cols = append(cols, f.Column)
		args = append(args, *f.Ptr(s))
	}
	cols = append(cols, "public_link", "private_link", "created_at", "updated_at")
	args = append(args, s.PublicLink, s.PrivateLink, s.CreatedAt, s.UpdatedAt)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO students (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("student", "publicLink")
		}
		return fmt.Errorf("sqlite: creating student: %w", err)
	}

	return nil
}

// Update sets the patched columns and updated_at and returns the record as
// stored afterwards.
func (db *DB) Update(ctx context.Context, f repository.Filter, p model.Patch) (*model.Student, error) {
	sets := make([]string, 0, len(p)+1)
	args := make([]any, 0, len(p)+2)
	for _, field := range p.Fields() {
		sets = append(sets, field.Column+" = ?")
		args = append(args, p[field.JSON])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())

	s, err := db.updateAndFind(ctx, f, strings.Join(sets, ", "), args)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: updating student %s: %w", f, err)
	}
	return s, nil
}

// updateAndFind runs "UPDATE students SET <sets> WHERE <filter>" and reads the
// row back in the same transaction, so the caller sees its own write and
// nobody else's.
func (db *DB) updateAndFind(ctx context.Context, f repository.Filter, sets string, args []any) (*model.Student, error) {
	clause, arg := where(f)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE students SET `+sets+` WHERE `+clause, append(args, arg)...)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("Student")
	}

	s, err := scanStudent(tx.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE `+clause, arg))
	if err != nil {
		return nil, fmt.Errorf("reading back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return s, nil
}

func (db *DB) Delete(ctx context.Context, f repository.Filter) error {
	clause, arg := where(f)
	result, err := db.conn.ExecContext(ctx, `DELETE FROM students WHERE `+clause, arg)
	if err != nil {
		return fmt.Errorf("sqlite: deleting student %s: %w", f, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Student")
	}
	return nil
}

// Increment is a single "c = c + 1" UPDATE, so concurrent hits on one record
// never lose a count.
func (db *DB) Increment(ctx context.Context, f repository.Filter, c model.Counter) (*model.Student, error) {
	col, ok := counterColumn(c)
	if !ok {
		return nil, apperror.ValidationFailed("counter", fmt.Sprintf("unknown counter %q", c))
	}

	now := time.Now().UTC()
	sets := col + " = " + col + " + 1, updated_at = ?"
	args := []any{now}
	if c == model.CounterVisits {
		sets += ", last_viewed = ?"
		args = append(args, now)
	}

	s, err := db.updateAndFind(ctx, f, sets, args)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: incrementing %s on student %s: %w", c, f, err)
	}
	return s, nil
}
