package course

import "context"

// Repository defines the interface for course content data access
type Repository interface {
	// GetContent loads all modules and lessons of a course ordered by position
	GetContent(ctx context.Context, courseID int64) (*Content, error)

	// ReplaceContent atomically replaces the whole module/lesson tree
	ReplaceContent(ctx context.Context, courseID int64, modules []*Module) error

	CreateModule(ctx context.Context, m *Module) error
	GetModule(ctx context.Context, courseID, moduleID int64) (*Module, error)
	UpdateModule(ctx context.Context, m *Module) error
	DeleteModule(ctx context.Context, courseID, moduleID int64) error
	NextModulePosition(ctx context.Context, courseID int64) (int, error)

	CreateLesson(ctx context.Context, l *Lesson) error
	GetLesson(ctx context.Context, moduleID, lessonID int64) (*Lesson, error)
	GetCourseLesson(ctx context.Context, courseID, lessonID int64) (*Lesson, error)
	UpdateLesson(ctx context.Context, l *Lesson) error
	DeleteLesson(ctx context.Context, moduleID, lessonID int64) error
	NextLessonPosition(ctx context.Context, moduleID int64) (int, error)
}
