package provider

import "sort"

// Well-known provider names.
const (
	Facebook = "facebook"
	Google   = "google-oauth2"
)

// Config describes how to identify a user with a provider's access token.
type Config struct {
	Name        string
	UserinfoURL string
	UIDField    string
}

// Registry maps provider names to their userinfo configuration.
// It is fixed at construction and safe for concurrent reads.
type Registry struct {
	providers map[string]Config
}

// NewRegistry registers the given providers by name.
func NewRegistry(list ...Config) *Registry {
	m := make(map[string]Config, len(list))
	for _, p := range list {
		m[p.Name] = p
	}
	return &Registry{providers: m}
}

// DefaultRegistry returns the Facebook and Google providers at the given userinfo URLs.
func DefaultRegistry(facebookURL, googleURL string) *Registry {
	return NewRegistry(
		Config{Name: Facebook, UserinfoURL: facebookURL, UIDField: "id"},
		Config{Name: Google, UserinfoURL: googleURL, UIDField: "email"},
	)
}

// Get returns the provider configuration by name.
func (r *Registry) Get(name string) (Config, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
