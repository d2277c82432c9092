package dataprocessing

// Keyed is anything with a composite identity key.
type Keyed interface {
	Key() string
}

// KeySet is the set of identity keys already present in a master collection.
type KeySet map[string]struct{}

// NewKeySet indexes the keys of records.
func NewKeySet[T Keyed](records []T) KeySet {
	set := make(KeySet, len(records))
	for _, r := range records {
		set[r.Key()] = struct{}{}
	}
	return set
}

// Has reports whether key is present.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Insert adds a key.
func (s KeySet) Insert(key string) {
	s[key] = struct{}{}
}

// Partition splits incoming into records whose key is absent from seen and
// records that are already known. A key repeated within incoming is unique
// only on its first occurrence. seen is not modified.
func Partition[T Keyed](incoming []T, seen KeySet) (unique, duplicates []T) {
	batch := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		key := r.Key()
		if seen.Has(key) {
			duplicates = append(duplicates, r)
			continue
		}
		if _, dup := batch[key]; dup {
			duplicates = append(duplicates, r)
			continue
		}
		batch[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique, duplicates
}

// Dedupe partitions incoming against an existing master collection.
func Dedupe[T Keyed](incoming, existing []T) (unique, duplicates []T) {
	return Partition(incoming, NewKeySet(existing))
}
