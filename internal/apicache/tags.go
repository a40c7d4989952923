package apicache

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Tag labels cached results for invalidation. A tag with an empty ID is a
// bare tag.
type Tag struct {
	Type string
	ID   string
}

// T builds a bare tag.
func T(typ string) Tag { return Tag{Type: typ} }

// TagID builds a tag scoped to one entity.
func TagID(typ, id string) Tag { return Tag{Type: typ, ID: id} }

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + "{" + t.ID + "}"
}

// tagIndex maps tag type -> id -> cache keys. Bare provided tags live under
// the empty id. Callers hold API.mu.
type tagIndex map[string]map[string]mapset.Set[string]

func (idx tagIndex) add(key string, tags []Tag) {
	for _, tag := range tags {
		byID, ok := idx[tag.Type]
		if !ok {
			byID = make(map[string]mapset.Set[string])
			idx[tag.Type] = byID
		}
		keys, ok := byID[tag.ID]
		if !ok {
			keys = mapset.NewThreadUnsafeSet[string]()
			byID[tag.ID] = keys
		}
		keys.Add(key)
	}
}

func (idx tagIndex) remove(key string, tags []Tag) {
	for _, tag := range tags {
		byID, ok := idx[tag.Type]
		if !ok {
			continue
		}
		if keys, ok := byID[tag.ID]; ok {
			keys.Remove(key)
			if keys.Cardinality() == 0 {
				delete(byID, tag.ID)
			}
		}
		if len(byID) == 0 {
			delete(idx, tag.Type)
		}
	}
}

// match resolves invalidated tags to cache keys. A bare tag matches every
// entry providing its type, whatever the id. An id tag matches only entries
// that provided exactly that type and id.
func (idx tagIndex) match(tags []Tag) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	for _, tag := range tags {
		byID, ok := idx[tag.Type]
		if !ok {
			continue
		}
		if tag.ID == "" {
			for _, keys := range byID {
				out = out.Union(keys)
			}
			continue
		}
		if keys, ok := byID[tag.ID]; ok {
			out = out.Union(keys)
		}
	}
	return out
}
