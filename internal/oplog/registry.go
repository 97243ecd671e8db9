package oplog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GoPolymarket/oplog/internal/model"
)

// Binding says where an endpoint parameter comes from.
type Binding int

const (
	BindQuery Binding = iota
	BindBody
	BindPath
	BindFramework
)

type ParamSpec struct {
	Name    string
	Binding Binding
}

// ControllerSpec holds the class-level markers shared by a group of endpoints.
type ControllerSpec struct {
	Name   string
	Module string
	// Ignore excludes every endpoint of the controller from operation logs,
	// unless the endpoint carries its own ignore marker.
	Ignore bool
}

type OperationSpec struct {
	Name   string
	Type   model.OperationType
	Remark string
}

// AccessSpec mirrors the access-control declarations of an endpoint. It is
// only recorded, never enforced here.
type AccessSpec struct {
	Roles          []string
	Permissions    []string
	Authentication bool
	User           bool
	Guest          bool
}

// EndpointSpec holds the method-level markers of one endpoint.
type EndpointSpec struct {
	HTTPMethod string
	Route      string
	Handler    string
	Module     string
	Operation  *OperationSpec
	// IgnoreMarker present on the method always resolves ignore to false.
	IgnoreMarker bool
	Access       *AccessSpec
	Params       []ParamSpec
}

// Endpoint is a registered endpoint together with its controller markers.
type Endpoint struct {
	Controller ControllerSpec
	EndpointSpec
}

// HasBody reports whether any declared parameter binds the request body.
func (e *Endpoint) HasBody() bool {
	for _, p := range e.Params {
		if p.Binding == BindBody {
			return true
		}
	}
	return false
}

// Registry replaces runtime annotation scanning with explicit registration at
// startup. Lookups are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]*Endpoint)}
}

func routeKey(method, route string) string {
	return strings.ToUpper(method) + " " + route
}

// ControllerBuilder registers endpoints under one controller.
type ControllerBuilder struct {
	reg  *Registry
	spec ControllerSpec
}

func (r *Registry) Controller(spec ControllerSpec) *ControllerBuilder {
	return &ControllerBuilder{reg: r, spec: spec}
}

// Endpoint registers spec and returns the stored endpoint. Registering the
// same method and route twice panics, as with gin routes.
func (b *ControllerBuilder) Endpoint(spec EndpointSpec) *Endpoint {
	ep := &Endpoint{Controller: b.spec, EndpointSpec: spec}
	key := routeKey(spec.HTTPMethod, spec.Route)

	b.reg.mu.Lock()
	defer b.reg.mu.Unlock()
	if _, dup := b.reg.endpoints[key]; dup {
		panic(fmt.Sprintf("oplog: endpoint %s already registered", key))
	}
	b.reg.endpoints[key] = ep
	return ep
}

func (r *Registry) Lookup(method, route string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[routeKey(method, route)]
	return ep, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

// ResolveOperation builds the operation metadata of ep. Method-level values win
// over controller-level values only when they are non-blank.
func ResolveOperation(ep *Endpoint) *model.OperationInfo {
	info := &model.OperationInfo{
		ControllerClassName:  ep.Controller.Name,
		ControllerMethodName: ep.Handler,
		Module:               pick(ep.Controller.Module, ep.Module),
	}

	if ep.Controller.Ignore {
		info.Ignore = true
	}
	if ep.IgnoreMarker {
		info.Ignore = false
	}

	if op := ep.Operation; op != nil {
		info.Name = strings.TrimSpace(op.Name)
		info.Type = op.Type
		info.Remark = op.Remark
	}
	return info
}

func pick(classValue, methodValue string) string {
	if strings.TrimSpace(methodValue) != "" {
		return methodValue
	}
	if strings.TrimSpace(classValue) != "" {
		return classValue
	}
	return ""
}

// formatValues renders values the way access requirements are shown in logs: [a, b].
func formatValues(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return "[" + strings.Join(values, ", ") + "]"
}
