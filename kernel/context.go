package kernel

import "sync"

// object is the registry entry every kernel primitive embeds itself
// behind. refCount tracks open handles; Release removes the object from
// the registry once it drops to zero.
type object struct {
	id       ObjectID
	kind     string
	refCount int
	value    any
}

// Context is the per-process kernel object manager: the single
// authority that mints ObjectIDs and owns the registry (spec.md §3, §9).
// Its lock is held only across the short registry mutations named in
// spec.md §5 ("short-lived locks on the object manager") — never across
// a wait, which is why every primitive's blocking path reports
// blocked=true for the syscall handler to act on instead of parking here.
type Context struct {
	mu      sync.Mutex
	nextID  uint32
	objects map[ObjectID]*object
}

// NewContext creates an empty object manager. IDs are minted starting
// at 1; 0 is reserved as the never-valid sentinel.
func NewContext() *Context {
	return &Context{nextID: 1, objects: make(map[ObjectID]*object)}
}

// Create mints a fresh ObjectID, registers value under it tagged with
// kind (used only for diagnostics and type-mismatch error messages), and
// returns the id. The id is never reused even after the object is later
// destroyed (spec.md §3's "monotonic, never reused").
func (c *Context) Create(kind string, value any) ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := ObjectID(c.nextID)
	c.nextID++
	c.objects[id] = &object{id: id, kind: kind, refCount: 1, value: value}
	return id
}

// Lookup resolves id to its registered value, failing with InvalidIDError
// if id is unknown or has already been destroyed.
func (c *Context) Lookup(id ObjectID) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id]
	if !ok {
		return nil, &InvalidIDError{ID: id}
	}
	return obj.value, nil
}

// LookupKind is Lookup plus a kind tag check, for syscall handlers that
// must reject e.g. a semaphore id passed where a mutex id is expected.
func (c *Context) LookupKind(id ObjectID, kind string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id]
	if !ok {
		return nil, &InvalidIDError{ID: id}
	}
	if obj.kind != kind {
		return nil, &InvalidIDError{ID: id}
	}
	return obj.value, nil
}

// Retain increments id's reference count, for handle-duplicating
// syscalls (e.g. attaching an existing event queue from a second
// thread).
func (c *Context) Retain(id ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id]
	if !ok {
		return &InvalidIDError{ID: id}
	}
	obj.refCount++
	return nil
}

// Release drops id's reference count and removes it from the registry
// once it reaches zero. Returns true if this call removed the object,
// so the caller can run type-specific teardown (waking any remaining
// waiters with CancelledError) exactly once.
func (c *Context) Release(id ObjectID) (destroyed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[id]
	if !ok {
		return false, &InvalidIDError{ID: id}
	}
	obj.refCount--
	if obj.refCount <= 0 {
		delete(c.objects, id)
		return true, nil
	}
	return false, nil
}

// Count reports the number of live objects, for diagnostics and tests.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}
