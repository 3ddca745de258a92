package dto

import "encoding/json"

// SubscribeRequest adds an address to the newsletter
type SubscribeRequest struct {
	Email  string  `json:"email" validate:"required,email,max=255"`
	Name   *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Source string  `json:"source,omitempty" validate:"omitempty,max=100"`
}

// UnsubscribeRequest removes an address by its unsubscribe token
type UnsubscribeRequest struct {
	Token string `json:"token" validate:"required"`
}

// CreateMessageRequest drafts a newsletter issue
type CreateMessageRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

// UpdateMessageRequest edits a draft
type UpdateMessageRequest struct {
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=1,max=255"`
	Body    *string `json:"body,omitempty" validate:"omitempty,min=1"`
}

// TrackEventRequest records a client interaction
type TrackEventRequest struct {
	SessionID string          `json:"sessionId" validate:"required,max=128"`
	Type      string          `json:"type" validate:"required,max=40"`
	Path      string          `json:"path"`
	Referrer  string          `json:"referrer,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// UploadResponse describes a stored file
type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}
