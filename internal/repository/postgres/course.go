package postgres

import (
	"context"
	"database/sql"

	"github.com/spartanofurioso/platform/internal/domain/course"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// CourseRepository implements course.Repository
type CourseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course content repository
func NewCourseRepository(db *sql.DB) course.Repository {
	return &CourseRepository{db: db}
}

const lessonColumns = `l.id, l.module_id, l.title, l.description, l.video_url, l.vimeo_id, l.vimeo_hash,
	l.duration_seconds, l.position, l.is_free`

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetContent loads the module and lesson tree of a course
func (r *CourseRepository) GetContent(ctx context.Context, courseID int64) (*course.Content, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, title, description, position
		FROM course_modules WHERE course_id = $1
		ORDER BY position, id
	`, courseID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load course modules", err)
	}
	defer rows.Close()

	content := &course.Content{CourseID: courseID, Modules: []*course.Module{}}
	byID := make(map[int64]*course.Module)
	for rows.Next() {
		m := &course.Module{Lessons: []*course.Lesson{}}
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position); err != nil {
			return nil, errors.DatabaseError("Failed to scan course module", err)
		}
		content.Modules = append(content.Modules, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to load course modules", err)
	}

	lessonRows, err := r.db.QueryContext(ctx, `
		SELECT `+lessonColumns+`
		FROM course_lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE m.course_id = $1
		ORDER BY l.module_id, l.position, l.id
	`, courseID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load course lessons", err)
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		l, err := scanLesson(lessonRows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan course lesson", err)
		}
		if m, ok := byID[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, l)
		}
	}
	if err := lessonRows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to load course lessons", err)
	}

	content.Summarize()
	return content, nil
}

// ReplaceContent deletes the existing tree and inserts modules in order, renumbering positions
func (r *CourseRepository) ReplaceContent(ctx context.Context, courseID int64, modules []*course.Module) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM course_lessons
		WHERE module_id IN (SELECT id FROM course_modules WHERE course_id = $1)
	`, courseID); err != nil {
		return errors.DatabaseError("Failed to clear course lessons", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_modules WHERE course_id = $1", courseID); err != nil {
		return errors.DatabaseError("Failed to clear course modules", err)
	}

	for i, m := range modules {
		m.CourseID = courseID
		m.Position = i + 1
		if err := insertModule(ctx, tx, m); err != nil {
			return err
		}
		for j, l := range m.Lessons {
			l.ModuleID = m.ID
			l.Position = j + 1
			if err := insertLesson(ctx, tx, l); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit course content", err)
	}
	return nil
}

// CreateModule inserts a module
func (r *CourseRepository) CreateModule(ctx context.Context, m *course.Module) error {
	return insertModule(ctx, r.db, m)
}

func insertModule(ctx context.Context, q queryer, m *course.Module) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO course_modules (course_id, title, description, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.CourseID, m.Title, m.Description, m.Position).Scan(&m.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create course module", err)
	}
	if m.Lessons == nil {
		m.Lessons = []*course.Lesson{}
	}
	return nil
}

// GetModule retrieves a module belonging to a course, with its lessons
func (r *CourseRepository) GetModule(ctx context.Context, courseID, moduleID int64) (*course.Module, error) {
	m := &course.Module{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, title, description, position
		FROM course_modules WHERE id = $1 AND course_id = $2
	`, moduleID, courseID).Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Module")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get course module", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lessonColumns+` FROM course_lessons l
		WHERE l.module_id = $1 ORDER BY l.position, l.id
	`, moduleID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to load module lessons", err)
	}
	defer rows.Close()

	m.Lessons = []*course.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan course lesson", err)
		}
		m.Lessons = append(m.Lessons, l)
	}
	return m, rows.Err()
}

// UpdateModule updates a module's title, description and position
func (r *CourseRepository) UpdateModule(ctx context.Context, m *course.Module) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE course_modules SET title = $1, description = $2, position = $3
		WHERE id = $4 AND course_id = $5
	`, m.Title, m.Description, m.Position, m.ID, m.CourseID)
	if err != nil {
		return errors.DatabaseError("Failed to update course module", err)
	}
	return checkAffected(res, "Module")
}

// DeleteModule deletes a module and its lessons
func (r *CourseRepository) DeleteModule(ctx context.Context, courseID, moduleID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM course_lessons
		WHERE module_id IN (SELECT id FROM course_modules WHERE id = $1 AND course_id = $2)
	`, moduleID, courseID); err != nil {
		return errors.DatabaseError("Failed to delete module lessons", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM course_modules WHERE id = $1 AND course_id = $2", moduleID, courseID)
	if err != nil {
		return errors.DatabaseError("Failed to delete course module", err)
	}
	if err := checkAffected(res, "Module"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit module deletion", err)
	}
	return nil
}

// NextModulePosition returns max(position)+1 for a course
func (r *CourseRepository) NextModulePosition(ctx context.Context, courseID int64) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM course_modules WHERE course_id = $1", courseID,
	).Scan(&next)
	if err != nil {
		return 0, errors.DatabaseError("Failed to compute module position", err)
	}
	return next, nil
}

// CreateLesson inserts a lesson
func (r *CourseRepository) CreateLesson(ctx context.Context, l *course.Lesson) error {
	return insertLesson(ctx, r.db, l)
}

func insertLesson(ctx context.Context, q queryer, l *course.Lesson) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO course_lessons (module_id, title, description, video_url, vimeo_id, vimeo_hash,
			duration_seconds, position, is_free)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, l.ModuleID, l.Title, l.Description, l.VideoURL, l.VimeoID, nullString(l.VimeoHash),
		l.DurationSeconds, l.Position, l.IsFree,
	).Scan(&l.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create course lesson", err)
	}
	return nil
}

// GetLesson retrieves a lesson within a module
func (r *CourseRepository) GetLesson(ctx context.Context, moduleID, lessonID int64) (*course.Lesson, error) {
	return r.getLesson(ctx, `
		SELECT `+lessonColumns+` FROM course_lessons l
		WHERE l.id = $1 AND l.module_id = $2
	`, lessonID, moduleID)
}

// GetCourseLesson retrieves a lesson anywhere in a course
func (r *CourseRepository) GetCourseLesson(ctx context.Context, courseID, lessonID int64) (*course.Lesson, error) {
	return r.getLesson(ctx, `
		SELECT `+lessonColumns+` FROM course_lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.id = $1 AND m.course_id = $2
	`, lessonID, courseID)
}

func (r *CourseRepository) getLesson(ctx context.Context, query string, args ...interface{}) (*course.Lesson, error) {
	l, err := scanLesson(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Lesson")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get course lesson", err)
	}
	return l, nil
}

// UpdateLesson updates a lesson
func (r *CourseRepository) UpdateLesson(ctx context.Context, l *course.Lesson) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE course_lessons
		SET title = $1, description = $2, video_url = $3, vimeo_id = $4, vimeo_hash = $5,
			duration_seconds = $6, position = $7, is_free = $8
		WHERE id = $9 AND module_id = $10
	`, l.Title, l.Description, l.VideoURL, l.VimeoID, nullString(l.VimeoHash),
		l.DurationSeconds, l.Position, l.IsFree, l.ID, l.ModuleID)
	if err != nil {
		return errors.DatabaseError("Failed to update course lesson", err)
	}
	return checkAffected(res, "Lesson")
}

// DeleteLesson deletes a lesson
func (r *CourseRepository) DeleteLesson(ctx context.Context, moduleID, lessonID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM course_lessons WHERE id = $1 AND module_id = $2", lessonID, moduleID)
	if err != nil {
		return errors.DatabaseError("Failed to delete course lesson", err)
	}
	return checkAffected(res, "Lesson")
}

// NextLessonPosition returns max(position)+1 within a module
func (r *CourseRepository) NextLessonPosition(ctx context.Context, moduleID int64) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM course_lessons WHERE module_id = $1", moduleID,
	).Scan(&next)
	if err != nil {
		return 0, errors.DatabaseError("Failed to compute lesson position", err)
	}
	return next, nil
}

func scanLesson(s rowScanner) (*course.Lesson, error) {
	var l course.Lesson
	var hash sql.NullString
	err := s.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.VideoURL, &l.VimeoID, &hash,
		&l.DurationSeconds, &l.Position, &l.IsFree)
	if err != nil {
		return nil, err
	}
	l.VimeoHash = stringPtr(hash)
	return &l, nil
}
