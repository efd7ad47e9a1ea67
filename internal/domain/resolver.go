package domain

// CountryResolver maps a free-text country name to its ISO 3166-1 alpha-3
// code. Implementations must be pure: same name in, same answer out, no
// side effects, so lookups can be stubbed in tests and memoized by callers.
type CountryResolver interface {
	// Resolve returns the alpha-3 code for a country name. The second
	// return is false when the name is unrecognized, never an error, since
	// some views tolerate missing codes and others filter them out.
	Resolve(name string) (string, bool)
}

// ResolverFunc adapts a plain function to the CountryResolver interface.
type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Resolve(name string) (string, bool) { return f(name) }
