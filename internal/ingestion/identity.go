package ingestion

// lookupTable maps natural keys to records created or found during one
// import. Records live in the arena and the index holds their positions.
type lookupTable[T any] struct {
	arena []T
	index map[string]int
}

func newLookupTable[T any]() *lookupTable[T] {
	return &lookupTable[T]{index: make(map[string]int)}
}

func (t *lookupTable[T]) get(key string) (T, bool) {
	pos, ok := t.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return t.arena[pos], true
}

func (t *lookupTable[T]) put(key string, value T) {
	if pos, ok := t.index[key]; ok {
		t.arena[pos] = value
		return
	}
	t.index[key] = len(t.arena)
	t.arena = append(t.arena, value)
}
