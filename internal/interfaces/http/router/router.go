// Package router assembles the studio API routes on a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is a single endpoint
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

func get(path string, h gin.HandlerFunc) Route  { return Route{http.MethodGet, path, h} }
func post(path string, h gin.HandlerFunc) Route { return Route{http.MethodPost, path, h} }

// Section is a set of routes mounted under a common prefix
type Section struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
}

func (s Section) mount(parent *gin.RouterGroup) {
	group := parent.Group(s.Prefix, s.Middleware...)
	for _, rt := range s.Routes {
		group.Handle(rt.Method, rt.Path, rt.Handler)
	}
}

// Router mounts sections under /api (callbacks whose URLs are registered
// with the providers) and /api/<version> (everything the frontend calls).
type Router struct {
	engine     *gin.Engine
	apiVersion string
	public     []Section
	versioned  []Section
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Public adds sections mounted directly under /api
func (r *Router) Public(sections ...Section) *Router {
	r.public = append(r.public, sections...)
	return r
}

// Versioned adds sections mounted under /api/<version>
func (r *Router) Versioned(sections ...Section) *Router {
	r.versioned = append(r.versioned, sections...)
	return r
}

// Setup registers every section with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api")
	for _, s := range r.public {
		s.mount(api)
	}
	v := api.Group("/" + r.apiVersion)
	for _, s := range r.versioned {
		s.mount(v)
	}
}
