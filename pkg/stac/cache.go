package stac

import "sync"

// ResolvedObjectCache is the identity registry of one root scope. It maps ids
// and self hrefs to the single in-memory instance of each resolved object.
// Every method is safe for concurrent use.
type ResolvedObjectCache struct {
	mu     sync.Mutex
	byID   map[string]Object
	byHref map[string]Object
	ids    map[Object]string
	hrefs  map[Object]string
	order  []Object
}

// NewResolvedObjectCache returns an empty cache.
func NewResolvedObjectCache() *ResolvedObjectCache {
	return &ResolvedObjectCache{
		byID:   make(map[string]Object),
		byHref: make(map[string]Object),
		ids:    make(map[Object]string),
		hrefs:  make(map[Object]string),
	}
}

// GetOrCache returns the cached instance sharing candidate's id or self href.
// When there is none, candidate is inserted and returned.
func (c *ResolvedObjectCache) GetOrCache(candidate Object) Object {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byID[candidate.ID()]; ok {
		return existing
	}
	if href := candidate.SelfHref(); href != "" {
		if existing, ok := c.byHref[href]; ok {
			return existing
		}
	}
	c.insert(candidate)
	return candidate
}

// Add inserts obj. It fails with a *DuplicateIDError when a different object
// already holds obj's id. Adding an object twice is a no-op.
func (c *ResolvedObjectCache) Add(obj Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byID[obj.ID()]; ok {
		if existing == obj {
			return nil
		}
		return &DuplicateIDError{ID: obj.ID()}
	}
	c.insert(obj)
	return nil
}

func (c *ResolvedObjectCache) insert(obj Object) {
	if _, ok := c.ids[obj]; ok {
		c.evict(obj)
	}
	id := obj.ID()
	c.byID[id] = obj
	c.ids[obj] = id
	if href := obj.SelfHref(); href != "" {
		c.byHref[href] = obj
		c.hrefs[obj] = href
	}
	c.order = append(c.order, obj)
}

// Remove evicts obj by id and by href.
func (c *ResolvedObjectCache) Remove(obj Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(obj)
}

func (c *ResolvedObjectCache) evict(obj Object) {
	id, ok := c.ids[obj]
	if !ok {
		return
	}
	if c.byID[id] == obj {
		delete(c.byID, id)
	}
	delete(c.ids, obj)
	if href, ok := c.hrefs[obj]; ok {
		if c.byHref[href] == obj {
			delete(c.byHref, href)
		}
		delete(c.hrefs, obj)
	}
	for i, o := range c.order {
		if o == obj {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Rehome re-keys obj after its id or self href changed. An id already held by
// another object fails with a *DuplicateIDError and leaves the cache as it was.
// Hrefs are last-writer-wins. Objects not in the cache are ignored.
func (c *ResolvedObjectCache) Rehome(obj Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldID, ok := c.ids[obj]
	if !ok {
		return nil
	}

	newID := obj.ID()
	if newID != oldID {
		if existing, ok := c.byID[newID]; ok && existing != obj {
			return &DuplicateIDError{ID: newID}
		}
		if c.byID[oldID] == obj {
			delete(c.byID, oldID)
		}
		c.byID[newID] = obj
		c.ids[obj] = newID
	}

	newHref := obj.SelfHref()
	oldHref, hadHref := c.hrefs[obj]
	if hadHref && oldHref == newHref {
		return nil
	}
	if hadHref && c.byHref[oldHref] == obj {
		delete(c.byHref, oldHref)
	}
	delete(c.hrefs, obj)
	if newHref != "" {
		if prev, ok := c.byHref[newHref]; ok && prev != obj {
			delete(c.hrefs, prev)
		}
		c.byHref[newHref] = obj
		c.hrefs[obj] = newHref
	}
	return nil
}

// checkID reports whether obj could take id without a collision.
func (c *ResolvedObjectCache) checkID(obj Object, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byID[id]; ok && existing != obj {
		return &DuplicateIDError{ID: id}
	}
	return nil
}

// Get returns the object holding id, or nil.
func (c *ResolvedObjectCache) Get(id string) Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byID[id]
}

// GetByHref returns the object whose self href is href, or nil.
func (c *ResolvedObjectCache) GetByHref(href string) Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byHref[href]
}

// Contains reports whether obj itself is cached.
func (c *ResolvedObjectCache) Contains(obj Object) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[obj]
	return ok
}

func (c *ResolvedObjectCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

// Objects returns the cached objects in insertion order.
func (c *ResolvedObjectCache) Objects() []Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Object, len(c.order))
	copy(out, c.order)
	return out
}
