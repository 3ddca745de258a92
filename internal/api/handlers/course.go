package handlers

import (
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/course"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// CourseHandler handles course content and playback
type CourseHandler struct {
	service   course.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(service course.Service, log *logger.Logger, val *validator.Validator) *CourseHandler {
	return &CourseHandler{service: service, logger: log, validator: val}
}

// Outline returns the public course outline
// @Summary Course outline
// @Description Module and lesson titles; video references are only included for free lessons
// @Tags Courses
// @Produce json
// @Param id path int true "Course product ID"
// @Success 200 {object} course.Content
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/courses/{id}/outline [get]
func (h *CourseHandler) Outline(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	content, err := h.service.GetOutline(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, content)
}

// Content returns the full course for a user with access
// @Summary Course content
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Success 200 {object} course.Content
// @Failure 403 {object} utils.ErrorResponse "No access"
// @Router /api/courses/{id}/content [get]
func (h *CourseHandler) Content(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	userID, _ := actor(r)
	content, err := h.service.GetContent(r.Context(), userID, id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, content)
}

// Playback returns the embed URL for a lesson
// @Summary Lesson playback
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} course.Playback
// @Failure 403 {object} utils.ErrorResponse "No access"
// @Router /api/courses/{id}/lessons/{lessonId}/playback [get]
func (h *CourseHandler) Playback(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	lessonID, err := idParam(r, "lessonId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	userID, _ := actor(r)
	pb, err := h.service.Playback(r.Context(), userID, id, lessonID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, pb)
}

// ReplaceContent replaces the whole module tree
// @Summary Replace course content
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param request body dto.ReplaceContentRequest true "Modules in display order"
// @Success 200 {object} course.Content
// @Router /api/courses/{id}/content [put]
func (h *CourseHandler) ReplaceContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.ReplaceContentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	modules := make([]*course.Module, 0, len(req.Modules))
	for _, m := range req.Modules {
		modules = append(modules, m.ToDomain())
	}
	content, err := h.service.ReplaceContent(r.Context(), id, modules)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, content)
}

// AddModule appends a module
// @Summary Add module
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param request body dto.ModuleRequest true "Module"
// @Success 201 {object} course.Module
// @Router /api/courses/{id}/module [post]
func (h *CourseHandler) AddModule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.ModuleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	m, err := h.service.AddModule(r.Context(), id, req.ToDomain())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, m)
}

// UpdateModule edits a module
// @Summary Update module
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param moduleId path int true "Module ID"
// @Param request body dto.ModuleRequest true "Module"
// @Success 200 {object} course.Module
// @Router /api/courses/{id}/module/{moduleId} [put]
func (h *CourseHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	moduleID, err := idParam(r, "moduleId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.ModuleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	m := req.ToDomain()
	m.ID = moduleID
	m, err = h.service.UpdateModule(r.Context(), id, m)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, m)
}

// DeleteModule removes a module and its lessons
// @Summary Delete module
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param moduleId path int true "Module ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/courses/{id}/module/{moduleId} [delete]
func (h *CourseHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	moduleID, err := idParam(r, "moduleId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if err := h.service.DeleteModule(r.Context(), id, moduleID); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Module deleted", nil)
}

// AddLesson appends a lesson to a module
// @Summary Add lesson
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param moduleId path int true "Module ID"
// @Param request body dto.LessonRequest true "Lesson"
// @Success 201 {object} course.Lesson
// @Router /api/courses/{id}/module/{moduleId}/lesson [post]
func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	moduleID, err := idParam(r, "moduleId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.LessonRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	l, err := h.service.AddLesson(r.Context(), id, moduleID, req.ToDomain())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, l)
}

// UpdateLesson edits a lesson
// @Summary Update lesson
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param moduleId path int true "Module ID"
// @Param lessonId path int true "Lesson ID"
// @Param request body dto.LessonRequest true "Lesson"
// @Success 200 {object} course.Lesson
// @Router /api/courses/{id}/module/{moduleId}/lesson/{lessonId} [put]
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	moduleID, err := idParam(r, "moduleId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	lessonID, err := idParam(r, "lessonId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.LessonRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	l := req.ToDomain()
	l.ID = lessonID
	l, err = h.service.UpdateLesson(r.Context(), id, moduleID, l)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, l)
}

// DeleteLesson removes a lesson
// @Summary Delete lesson
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Course product ID"
// @Param moduleId path int true "Module ID"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/courses/{id}/module/{moduleId}/lesson/{lessonId} [delete]
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	moduleID, err := idParam(r, "moduleId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	lessonID, err := idParam(r, "lessonId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if err := h.service.DeleteLesson(r.Context(), id, moduleID, lessonID); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Lesson deleted", nil)
}
