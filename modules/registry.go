package modules

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds all registered vulnerability modules
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the global registry
func Register(module Module) error {
	return globalRegistry.Register(module)
}

// Get retrieves a module from the global registry
func Get(name string) (Module, error) {
	return globalRegistry.Get(name)
}

// List returns all registered module names
func List() []ModuleInfo {
	return globalRegistry.List()
}

// Has checks if a module is registered in the global registry
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// Register adds a module to the registry
func (r *Registry) Register(module Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := module.Info()
	if info.Name == "" {
		return fmt.Errorf("module name cannot be empty")
	}

	if _, exists := r.modules[info.Name]; exists {
		return fmt.Errorf("module '%s' is already registered", info.Name)
	}

	r.modules[info.Name] = module
	return nil
}

// Get retrieves a module by name
func (r *Registry) Get(name string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, exists := r.modules[name]
	if !exists {
		return nil, fmt.Errorf("module '%s' not found", name)
	}

	return module, nil
}

// List returns info about all registered modules, sorted by name
func (r *Registry) List() []ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ModuleInfo, 0, len(r.modules))
	for _, module := range r.modules {
		infos = append(infos, module.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Has checks if a module is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.modules[name]
	return exists
}

// Predicate decides whether a module fires for a parameter map.
// It returns the selected input value.
type Predicate func(params Params) (string, bool)

// HasValue matches when key is present with a non-empty value
func HasValue(key string) Predicate {
	return func(params Params) (string, bool) {
		v := params.Get(key)
		return v, v != ""
	}
}

// HasKey matches when key is present, even with an empty value
func HasKey(key string) Predicate {
	return func(params Params) (string, bool) {
		return params.Lookup(key)
	}
}

// Route pairs a module with the predicate that selects it
type Route struct {
	Module    Module
	Predicate Predicate
}

// Routes is an ordered dispatch table; the first matching route wins
type Routes struct {
	routes []Route
}

// Add appends a module from the registry to the table.
// The predicate is derived from the module's Key and MatchEmpty.
func (t *Routes) Add(r *Registry, name string) error {
	module, err := r.Get(name)
	if err != nil {
		return err
	}

	info := module.Info()
	if info.Key == "" {
		return fmt.Errorf("module '%s' has no trigger key", name)
	}

	predicate := HasValue(info.Key)
	if info.MatchEmpty {
		predicate = HasKey(info.Key)
	}

	t.routes = append(t.routes, Route{Module: module, Predicate: predicate})
	return nil
}

// Match returns the first module whose predicate accepts params
func (t *Routes) Match(params Params) (Module, string, bool) {
	for _, route := range t.routes {
		if input, ok := route.Predicate(params); ok {
			return route.Module, input, true
		}
	}
	return nil, "", false
}

// Keys returns the trigger keys in priority order
func (t *Routes) Keys() []string {
	keys := make([]string, 0, len(t.routes))
	for _, route := range t.routes {
		keys = append(keys, route.Module.Info().Key)
	}
	return keys
}

// Len returns the number of routes
func (t *Routes) Len() int {
	return len(t.routes)
}

// Priority is the order in which query keys on "/" are tried
var Priority = []string{
	"sql_injection",
	"xss_reflected",
	"insecure_deserialization",
	"file_access",
	"command_injection",
	"xxe",
	"xpath_injection",
	"resource_exhaustion",
	"xss_stored",
	"code_execution",
	"open_redirect",
}

// DefaultRoutes builds the dispatch table for "/" from the global registry
func DefaultRoutes() (*Routes, error) {
	routes := &Routes{}
	for _, name := range Priority {
		if err := routes.Add(globalRegistry, name); err != nil {
			return nil, fmt.Errorf("failed to add route: %w", err)
		}
	}
	return routes, nil
}

// PathRoutes maps request paths to the modules that serve them
func (r *Registry) PathRoutes() map[string]Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string]Module)
	for _, module := range r.modules {
		if path := module.Info().Path; path != "" {
			routes[path] = module
		}
	}
	return routes
}

// PathRoutes returns the path-served modules of the global registry
func PathRoutes() map[string]Module {
	return globalRegistry.PathRoutes()
}
