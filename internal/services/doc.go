// Package services implements the request dispatch core: the request
// and response envelopes, the service model, the service registry, and
// the action dispatcher that routes every inbound call.
//
// # Architecture
//
// Every API call arrives as a single envelope naming a service and an
// action. Dispatch follows one path:
//
//	request -> registry lookup -> policy checks -> action handler -> response
//
// Policy checks run in a fixed order: service exists, action active,
// authentication, permissions. The first failure aborts the request.
//
// # Service Pattern
//
// A service embeds BaseService and registers its action handlers at
// construction time:
//
//	type TodoService struct {
//	    services.BaseService
//	}
//
//	func NewTodoService() services.Service {
//	    s := &TodoService{services.NewBaseService("todo")}
//	    s.RegisterAction("greet", s.greet)
//	    return s
//	}
//
// Handlers receive the full request and return a Response or an error.
// Errors are classified by the errors package and rendered by the
// transport layer; handlers never write to the connection themselves.
//
// # Lifecycle
//
// Services are constructed per request through their registered
// constructor, so a handler can keep per-call state on its receiver
// without synchronization. The registry and dispatcher themselves are
// stateless and safe for concurrent use.
package services
