package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FrameKey generates a prefixed frame key.
func (k *ScopedKeyer) FrameKey(sourceHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(sourceHash, opts)
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(frameHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(frameHash, opts)
}
