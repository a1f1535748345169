// Package types provides type definitions for structured data used throughout the course-designer system.
package types

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/course-designer/internal/netguard"
)

// UserInput is the course description a pipeline run starts from.
type UserInput struct {
	CourseSubject      string   `json:"course_subject" validate:"required,min=1"`
	TargetAudience     string   `json:"target_audience,omitempty"`
	LearningObjectives string   `json:"learning_objectives,omitempty"`
	SourceText         string   `json:"source_text,omitempty"`
	ReferenceURLs      []string `json:"reference_urls,omitempty" validate:"omitempty,dive,http_url,public_host"`
	UploadedFiles      []string `json:"uploaded_files,omitempty"`
}

// Validate validates the UserInput using the validator.
func (u *UserInput) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("public_host", publicHost); err != nil {
		return err
	}
	return validate.Struct(u)
}

// publicHost rejects URLs naming localhost or a non-public IP literal.
func publicHost(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	return err == nil && netguard.LiteralHostAllowed(u.Hostname())
}

// ToMap returns the input as a generic document for storage.
// Empty optional fields are omitted.
func (u *UserInput) ToMap() map[string]any {
	m := map[string]any{"course_subject": u.CourseSubject}
	if strings.TrimSpace(u.TargetAudience) != "" {
		m["target_audience"] = u.TargetAudience
	}
	if strings.TrimSpace(u.LearningObjectives) != "" {
		m["learning_objectives"] = u.LearningObjectives
	}
	if strings.TrimSpace(u.SourceText) != "" {
		m["source_text"] = u.SourceText
	}
	if len(u.ReferenceURLs) > 0 {
		m["reference_urls"] = u.ReferenceURLs
	}
	if len(u.UploadedFiles) > 0 {
		m["uploaded_files"] = u.UploadedFiles
	}
	return m
}
