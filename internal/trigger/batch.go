package trigger

// Batch accumulates build-relevant mutations observed during one transaction.
// The first label observed is retained; later ones are counted and dropped.
//
// A Batch belongs to exactly one transaction and must not be shared.
type Batch struct {
	label string
	count int
}

// Observe records a mutation and reports whether it was build-relevant.
func (b *Batch) Observe(entity Entity, operation Operation) bool {
	if !Classify(entity, operation) {
		return false
	}
	if b.count == 0 {
		b.label = Label(entity, operation)
	}
	b.count++
	return true
}

// Pending reports whether at least one build-relevant mutation was observed.
func (b *Batch) Pending() bool {
	return b.count > 0
}

// Label returns the retained cause label or "" when nothing is pending.
func (b *Batch) Label() string {
	return b.label
}

// Count returns how many build-relevant mutations were coalesced.
func (b *Batch) Count() int {
	return b.count
}

// Reset discards everything observed so far.
func (b *Batch) Reset() {
	b.label = ""
	b.count = 0
}
