package logbuf

import "sync"

// Registry maps game slugs to their shared log buffers. At most one buffer
// exists per live slug: concurrent GetOrCreate calls for the same slug
// always hand back the same instance.
//
// Buffers are shared by reference. A streamer or reader that already holds
// a buffer keeps a working handle after Remove; removal only affects future
// lookups.
type Registry struct {
	mu       sync.Mutex
	buffers  map[string]*Buffer
	maxLines int
}

// NewRegistry creates an empty registry whose buffers hold up to maxLines
// lines each (DefaultMaxLines when maxLines <= 0).
func NewRegistry(maxLines int) *Registry {
	return &Registry{
		buffers:  make(map[string]*Buffer),
		maxLines: maxLines,
	}
}

// Get returns the buffer registered for slug, if any.
func (r *Registry) Get(slug string) (*Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[slug]
	return buf, ok
}

// GetOrCreate returns the buffer registered for slug, creating and
// registering an empty one if absent.
func (r *Registry) GetOrCreate(slug string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[slug]
	if !ok {
		buf = NewBuffer(r.maxLines)
		r.buffers[slug] = buf
	}
	return buf
}

// Remove unregisters slug. Streamers already bound to the old buffer keep
// appending to it; it is freed once the last holder drops its reference.
func (r *Registry) Remove(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, slug)
}
