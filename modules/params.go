package modules

// Params maps query parameter names to their decoded values.
// Repeated keys are already joined with commas.
type Params map[string]string

// Has reports whether key was present, even with an empty value
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Get returns the value of key, or "" if absent
func (p Params) Get(key string) string {
	return p[key]
}

// Lookup returns the value of key and whether it was present
func (p Params) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}
