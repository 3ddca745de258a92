package client

import (
	"context"
	"fmt"
	"net/http"
)

// NewsletterService handles newsletter API calls
type NewsletterService struct {
	client *Client
}

// SubscriberList is one page of subscribers
type SubscriberList struct {
	PageInfo
	Data []Subscriber `json:"data"`
}

// MessageList is one page of messages
type MessageList struct {
	PageInfo
	Data []Message `json:"data"`
}

// Subscribe adds an email address to the newsletter
func (s *NewsletterService) Subscribe(ctx context.Context, email, name string) (*Subscriber, error) {
	req := map[string]string{"email": email}
	if name != "" {
		req["name"] = name
	}

	var sub Subscriber
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/newsletter/subscribe", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Unsubscribe removes a subscriber using the token from a newsletter email
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	return s.client.doRequest(ctx, http.MethodPost, "/api/newsletter/unsubscribe", map[string]string{"token": token}, nil)
}

// Subscribers lists subscribers (admin)
func (s *NewsletterService) Subscribers(ctx context.Context, opts *ListOptions, status string) (*SubscriberList, error) {
	var list SubscriberList
	path := "/api/newsletter/admin/subscribers" + query(opts, map[string]string{"status": status})
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteSubscriber removes a subscriber (admin)
func (s *NewsletterService) DeleteSubscriber(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/newsletter/admin/subscribers/%d", id), nil, nil)
}

// Messages lists newsletter messages (admin)
func (s *NewsletterService) Messages(ctx context.Context, opts *ListOptions) (*MessageList, error) {
	var list MessageList
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/newsletter/admin/messages"+query(opts, nil), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMessage retrieves a message (admin)
func (s *NewsletterService) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return s.message(ctx, http.MethodGet, fmt.Sprintf("/api/newsletter/admin/messages/%d", id), nil)
}

// CreateMessage drafts a message (admin)
func (s *NewsletterService) CreateMessage(ctx context.Context, subject, body string) (*Message, error) {
	return s.message(ctx, http.MethodPost, "/api/newsletter/admin/messages", map[string]string{"subject": subject, "body": body})
}

// DeleteMessage deletes a draft (admin)
func (s *NewsletterService) DeleteMessage(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/newsletter/admin/messages/%d", id), nil, nil)
}

// Send queues a message for delivery to every subscriber (admin)
func (s *NewsletterService) Send(ctx context.Context, id int64) (*Message, error) {
	return s.message(ctx, http.MethodPost, fmt.Sprintf("/api/newsletter/admin/messages/%d/send", id), nil)
}

func (s *NewsletterService) message(ctx context.Context, method, path string, body interface{}) (*Message, error) {
	var m Message
	if err := s.client.doRequest(ctx, method, path, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
