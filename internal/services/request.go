package services

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/pionia-project/pionia/internal/auth"
)

// Payload keys recognized on the inbound envelope. Both lowercase and
// uppercase spellings are accepted.
const (
	ServiceKey = "service"
	ActionKey  = "action"
)

// Request is the immutable per-call envelope handed to the dispatcher.
// It is constructed once per inbound call and discarded after dispatch.
type Request struct {
	// Service and Action name the target operation.
	Service string
	Action  string
	// Data holds the remaining payload fields.
	Data map[string]any
	// Files holds uploaded file parts from multipart requests.
	Files map[string][]*multipart.FileHeader
	// Identity is the authenticated caller, nil for anonymous calls.
	Identity *auth.Identity

	ctx context.Context
}

// NewRequest builds a Request from a decoded payload map. The service
// and action keys are lifted out of the payload; everything else stays
// in Data.
func NewRequest(ctx context.Context, payload map[string]any, files map[string][]*multipart.FileHeader, identity *auth.Identity) Request {
	data := make(map[string]any, len(payload))
	var service, action string
	for k, v := range payload {
		switch strings.ToLower(k) {
		case ServiceKey:
			if s, ok := v.(string); ok {
				service = s
			}
		case ActionKey:
			if s, ok := v.(string); ok {
				action = s
			}
		default:
			data[k] = v
		}
	}
	return Request{
		Service:  service,
		Action:   action,
		Data:     data,
		Files:    files,
		Identity: identity,
		ctx:      ctx,
	}
}

// Context returns the request's context.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// GetString returns a payload field coerced to string, empty when absent.
func (r Request) GetString(key string) string {
	v, ok := r.Data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetInt returns a payload field as an int with a fallback. JSON
// numbers decode as float64, so both forms are accepted.
func (r Request) GetInt(key string, fallback int) int {
	switch v := r.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
