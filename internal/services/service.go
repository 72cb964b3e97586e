package services

import "strings"

// Handler processes one action. It receives the full request envelope
// and returns a response or an error to be classified by the caller.
type Handler func(req Request) (Response, error)

// Service is a named group of related actions. Concrete services embed
// BaseService and register handlers at construction time.
type Service interface {
	// Name returns the service's registry name.
	Name() string
	// Handler resolves an action name to its handler, case-insensitively.
	Handler(action string) (Handler, bool)
	// RequiresAuth reports whether every action requires a caller identity.
	RequiresAuth() bool
	// Deactivated reports whether the action has been switched off.
	Deactivated(action string) bool
	// RequiredPermissions returns the permissions the action demands.
	// All listed permissions must hold.
	RequiredPermissions(action string) []string
}

// BaseService provides the action registry and policy configuration
// shared by all services.
type BaseService struct {
	name string

	handlers           map[string]Handler
	deactivatedActions map[string]struct{}
	actionPermissions  map[string][]string
	requiresAuth       bool
}

// NewBaseService creates a BaseService with the given registry name.
func NewBaseService(name string) BaseService {
	return BaseService{
		name:               name,
		handlers:           make(map[string]Handler),
		deactivatedActions: make(map[string]struct{}),
		actionPermissions:  make(map[string][]string),
	}
}

// Name returns the service's registry name.
func (s *BaseService) Name() string {
	return s.name
}

// RegisterAction binds an action name to its handler.
func (s *BaseService) RegisterAction(action string, handler Handler) {
	s.handlers[strings.ToLower(action)] = handler
}

// Handler resolves an action name to its handler.
func (s *BaseService) Handler(action string) (Handler, bool) {
	h, ok := s.handlers[strings.ToLower(action)]
	return h, ok
}

// SetRequiresAuth makes every action of the service demand a caller
// identity, regardless of per-action settings.
func (s *BaseService) SetRequiresAuth(required bool) {
	s.requiresAuth = required
}

// RequiresAuth reports whether the whole service requires authentication.
func (s *BaseService) RequiresAuth() bool {
	return s.requiresAuth
}

// DeactivateActions switches the listed actions off. Deactivated
// actions are unreachable even though their handlers stay registered.
func (s *BaseService) DeactivateActions(actions ...string) {
	for _, a := range actions {
		s.deactivatedActions[strings.ToLower(a)] = struct{}{}
	}
}

// Deactivated reports whether the action is switched off.
func (s *BaseService) Deactivated(action string) bool {
	_, ok := s.deactivatedActions[strings.ToLower(action)]
	return ok
}

// RequirePermissions declares the permissions an action demands. All
// of them must hold for dispatch to proceed.
func (s *BaseService) RequirePermissions(action string, permissions ...string) {
	s.actionPermissions[strings.ToLower(action)] = permissions
}

// RequiredPermissions returns the permissions declared for the action.
func (s *BaseService) RequiredPermissions(action string) []string {
	return s.actionPermissions[strings.ToLower(action)]
}
