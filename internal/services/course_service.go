package services

import (
	"context"
	"strings"

	"github.com/spartanofurioso/platform/internal/domain/access"
	"github.com/spartanofurioso/platform/internal/domain/course"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

// CourseService implements course.Service
type CourseService struct {
	repo     course.Repository
	products product.Repository
	access   access.Checker
	logger   *logger.Logger
}

// NewCourseService creates a new course service
func NewCourseService(repo course.Repository, products product.Repository, checker access.Checker, log *logger.Logger) course.Service {
	return &CourseService{repo: repo, products: products, access: checker, logger: log}
}

// requireCourse ensures courseID names a course product
func (s *CourseService) requireCourse(ctx context.Context, courseID int64) error {
	p, err := s.products.GetByID(ctx, courseID)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NotFound("Course")
		}
		return err
	}
	if p.Type != product.TypeCourse {
		return errors.NotFound("Course")
	}
	return nil
}

// GetContent returns the full tree to users with access
func (s *CourseService) GetContent(ctx context.Context, userID, courseID int64) (*course.Content, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	grant, err := s.access.HasAccess(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !grant.Allowed {
		return nil, errors.Forbidden("You do not have access to this course")
	}
	return s.repo.GetContent(ctx, courseID)
}

// GetOutline returns the public outline
func (s *CourseService) GetOutline(ctx context.Context, courseID int64) (*course.Content, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	content, err := s.repo.GetContent(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return content.Outline(), nil
}

// ReplaceContent validates and replaces the whole tree
func (s *CourseService) ReplaceContent(ctx context.Context, courseID int64, modules []*course.Module) (*course.Content, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	for _, m := range modules {
		if err := normalizeModule(m); err != nil {
			return nil, err
		}
		for _, l := range m.Lessons {
			if err := normalizeLesson(l); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.ReplaceContent(ctx, courseID, modules); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"course_id": courseID,
		"modules":   len(modules),
	}).Info("Course content replaced")

	return s.repo.GetContent(ctx, courseID)
}

// AddModule appends a module to a course
func (s *CourseService) AddModule(ctx context.Context, courseID int64, m *course.Module) (*course.Module, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := normalizeModule(m); err != nil {
		return nil, err
	}

	pos, err := s.repo.NextModulePosition(ctx, courseID)
	if err != nil {
		return nil, err
	}
	m.CourseID = courseID
	m.Position = pos
	m.Lessons = nil

	if err := s.repo.CreateModule(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateModule changes a module's title, description or position
func (s *CourseService) UpdateModule(ctx context.Context, courseID int64, m *course.Module) (*course.Module, error) {
	existing, err := s.repo.GetModule(ctx, courseID, m.ID)
	if err != nil {
		return nil, err
	}
	if err := normalizeModule(m); err != nil {
		return nil, err
	}

	existing.Title = m.Title
	existing.Description = m.Description
	if m.Position > 0 {
		existing.Position = m.Position
	}
	if err := s.repo.UpdateModule(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteModule removes a module and its lessons
func (s *CourseService) DeleteModule(ctx context.Context, courseID, moduleID int64) error {
	return s.repo.DeleteModule(ctx, courseID, moduleID)
}

// AddLesson appends a lesson to a module
func (s *CourseService) AddLesson(ctx context.Context, courseID, moduleID int64, l *course.Lesson) (*course.Lesson, error) {
	if _, err := s.repo.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}
	if err := normalizeLesson(l); err != nil {
		return nil, err
	}

	pos, err := s.repo.NextLessonPosition(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	l.ModuleID = moduleID
	l.Position = pos

	if err := s.repo.CreateLesson(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLesson replaces a lesson's fields
func (s *CourseService) UpdateLesson(ctx context.Context, courseID, moduleID int64, l *course.Lesson) (*course.Lesson, error) {
	if _, err := s.repo.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetLesson(ctx, moduleID, l.ID)
	if err != nil {
		return nil, err
	}
	if err := normalizeLesson(l); err != nil {
		return nil, err
	}

	l.ModuleID = moduleID
	if l.Position <= 0 {
		l.Position = existing.Position
	}
	if err := s.repo.UpdateLesson(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLesson removes a lesson
func (s *CourseService) DeleteLesson(ctx context.Context, courseID, moduleID, lessonID int64) error {
	if _, err := s.repo.GetModule(ctx, courseID, moduleID); err != nil {
		return err
	}
	return s.repo.DeleteLesson(ctx, moduleID, lessonID)
}

// Playback returns the embed URL for free lessons or users with access
func (s *CourseService) Playback(ctx context.Context, userID, courseID, lessonID int64) (*course.Playback, error) {
	l, err := s.repo.GetCourseLesson(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	if !l.IsFree {
		grant, err := s.access.HasAccess(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if !grant.Allowed {
			return nil, errors.Forbidden("You do not have access to this lesson")
		}
	}

	if l.VimeoID == "" {
		return nil, errors.NotFound("Lesson video")
	}
	v := course.Video{ID: l.VimeoID}
	if l.VimeoHash != nil {
		v.Hash = *l.VimeoHash
	}

	return &course.Playback{
		LessonID:        l.ID,
		Title:           l.Title,
		EmbedURL:        v.EmbedURL(),
		DurationSeconds: l.DurationSeconds,
	}, nil
}

func normalizeModule(m *course.Module) error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return errors.BadRequest("Module title is required")
	}
	return nil
}

// normalizeLesson validates the title and derives Vimeo fields from VideoURL
func normalizeLesson(l *course.Lesson) error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return errors.BadRequest("Lesson title is required")
	}
	if l.DurationSeconds < 0 {
		return errors.BadRequest("Lesson duration cannot be negative")
	}

	l.VideoURL = strings.TrimSpace(l.VideoURL)
	if l.VideoURL == "" {
		l.VimeoID, l.VimeoHash = "", nil
		return nil
	}

	v, err := course.ParseVimeo(l.VideoURL)
	if err != nil {
		return errors.ValidationError("Invalid video URL", map[string]string{"videoUrl": err.Error()})
	}
	l.VimeoID = v.ID
	l.VimeoHash = nil
	if v.Hash != "" {
		h := v.Hash
		l.VimeoHash = &h
	}
	return nil
}
