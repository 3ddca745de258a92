package dto

import (
	"strings"

	"github.com/spartanofurioso/platform/internal/domain/course"
	"github.com/spartanofurioso/platform/internal/domain/product"
)

// ProductRequest represents a product create or update
type ProductRequest struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Slug            string   `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	Description     string   `json:"description"`
	Type            string   `json:"type" validate:"required,oneof=bot course subscription indicator"`
	PriceCents      int64    `json:"priceCents" validate:"gte=0"`
	Currency        string   `json:"currency,omitempty" validate:"omitempty,currency"`
	BillingInterval string   `json:"billingInterval,omitempty" validate:"omitempty,oneof=one_time month year"`
	TrialEnabled    bool     `json:"trialEnabled"`
	ImageURL        string   `json:"imageUrl,omitempty" validate:"omitempty,max=1024"`
	Features        []string `json:"features,omitempty" validate:"omitempty,dive,max=255"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// ToDomain converts the request to a product; products are active unless stated otherwise
func (r ProductRequest) ToDomain() *product.Product {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &product.Product{
		Name:            strings.TrimSpace(r.Name),
		Slug:            r.Slug,
		Description:     r.Description,
		Type:            product.Type(r.Type),
		PriceCents:      r.PriceCents,
		Currency:        r.Currency,
		BillingInterval: r.BillingInterval,
		TrialEnabled:    r.TrialEnabled,
		ImageURL:        r.ImageURL,
		Features:        r.Features,
		IsActive:        active,
	}
}

// LessonRequest represents a lesson create or update
type LessonRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	Description     string `json:"description"`
	VideoURL        string `json:"videoUrl" validate:"required,max=512"`
	DurationSeconds int    `json:"durationSeconds" validate:"gte=0"`
	IsFree          bool   `json:"isFree"`
	Position        int    `json:"position,omitempty" validate:"gte=0"`
}

// ToDomain converts the request to a lesson
func (r LessonRequest) ToDomain() *course.Lesson {
	return &course.Lesson{
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		VideoURL:        strings.TrimSpace(r.VideoURL),
		DurationSeconds: r.DurationSeconds,
		IsFree:          r.IsFree,
		Position:        r.Position,
	}
}

// ModuleRequest represents a module create or update; lessons are only read by content replacement
type ModuleRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Position    int             `json:"position,omitempty" validate:"gte=0"`
	Lessons     []LessonRequest `json:"lessons,omitempty" validate:"omitempty,dive"`
}

// ToDomain converts the request to a module with its lessons
func (r ModuleRequest) ToDomain() *course.Module {
	m := &course.Module{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Position:    r.Position,
		Lessons:     make([]*course.Lesson, 0, len(r.Lessons)),
	}
	for _, l := range r.Lessons {
		m.Lessons = append(m.Lessons, l.ToDomain())
	}
	return m
}

// ReplaceContentRequest replaces the whole module tree of a course
type ReplaceContentRequest struct {
	Modules []ModuleRequest `json:"modules" validate:"dive"`
}
