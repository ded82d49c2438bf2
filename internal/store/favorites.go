package store

// FavoriteSet is an insertion-ordered set of recipe ids. Values are never
// mutated in place; Add and Remove return a new set.
type FavoriteSet struct {
	ids []string
}

// NewFavoriteSet builds a set from ids, dropping duplicates and empty ids
func NewFavoriteSet(ids ...string) FavoriteSet {
	var s FavoriteSet
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

// Has reports whether id is in the set
func (s FavoriteSet) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns a set that contains id, appended after the existing ids
func (s FavoriteSet) Add(id string) FavoriteSet {
	if id == "" || s.Has(id) {
		return s
	}
	ids := make([]string, len(s.ids), len(s.ids)+1)
	copy(ids, s.ids)
	return FavoriteSet{ids: append(ids, id)}
}

// Remove returns a set without id
func (s FavoriteSet) Remove(id string) FavoriteSet {
	if !s.Has(id) {
		return s
	}
	ids := make([]string, 0, len(s.ids)-1)
	for _, v := range s.ids {
		if v != id {
			ids = append(ids, v)
		}
	}
	return FavoriteSet{ids: ids}
}

// Len returns the number of ids
func (s FavoriteSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in insertion order
func (s FavoriteSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
