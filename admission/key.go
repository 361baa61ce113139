package admission

// KeyResolver derives composite counter keys from identity and endpoint
// pattern. The namespace keeps budgets of independent guard instances
// (upload limiter, search limiter) apart for the same identity.
type KeyResolver struct {
	namespace string
}

// NewKeyResolver creates a key resolver for the given namespace.
func NewKeyResolver(namespace string) *KeyResolver {
	if namespace == "" {
		namespace = "rl"
	}
	return &KeyResolver{namespace: namespace}
}

// Resolve returns the base counting key "{namespace}:{identity}:{pattern}".
// Distinct (namespace, identity, pattern) triples never collide because
// identity is the only free-form component and it cannot span the
// surrounding separators into a different triple of the same shape.
func (r *KeyResolver) Resolve(identity, pattern string) string {
	return r.namespace + ":" + identity + ":" + pattern
}

// DimensionKey appends the tracked dimension to a base key, one counter
// per (key, dimension) pair.
func DimensionKey(base string, dim Dimension) string {
	return base + ":" + dim.keySuffix()
}
