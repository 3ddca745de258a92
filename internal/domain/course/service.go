package course

import "context"

// Service defines course content management and playback
type Service interface {
	// GetContent returns the full tree; callers must have access
	GetContent(ctx context.Context, userID, courseID int64) (*Content, error)

	// GetOutline returns the tree with locked lessons stripped of video references
	GetOutline(ctx context.Context, courseID int64) (*Content, error)

	// ReplaceContent replaces the full tree, renumbering positions by input order
	ReplaceContent(ctx context.Context, courseID int64, modules []*Module) (*Content, error)

	AddModule(ctx context.Context, courseID int64, m *Module) (*Module, error)
	UpdateModule(ctx context.Context, courseID int64, m *Module) (*Module, error)
	DeleteModule(ctx context.Context, courseID, moduleID int64) error

	AddLesson(ctx context.Context, courseID, moduleID int64, l *Lesson) (*Lesson, error)
	UpdateLesson(ctx context.Context, courseID, moduleID int64, l *Lesson) (*Lesson, error)
	DeleteLesson(ctx context.Context, courseID, moduleID, lessonID int64) error

	// Playback returns the embed URL of a lesson the user may watch
	Playback(ctx context.Context, userID, courseID, lessonID int64) (*Playback, error)
}
