package individual

// Base is an embeddable helper carrying the bookkeeping every concrete
// Individual needs (traits, dirty flag, processing outcome), mirroring the
// plain-struct-of-fields style the teacher used for its Organism type.
// Concrete individuals embed Base and only need to implement the
// domain-specific Adapt/Fitness/Amalgamate/Clone/LoadFrom methods.
type Base struct {
	traits                *Traits
	dirty                 bool
	processingSuccessful  bool
	processingCyclesAdvice int
}

// NewBase returns a Base marked dirty, as a freshly created individual has
// never been evaluated.
func NewBase() Base {
	return Base{traits: NewTraits(), dirty: true}
}

// Dirty reports whether the embedding individual needs (re-)evaluation.
func (b *Base) Dirty() bool { return b.dirty }

// MarkDirty flags the embedding individual as needing evaluation; concrete
// Adapt() implementations must call this after mutating parameters.
func (b *Base) MarkDirty() { b.dirty = true }

// MarkClean clears the dirty flag; concrete Fitness() implementations must
// call this after computing and caching a fresh score.
func (b *Base) MarkClean() { b.dirty = false }

// Traits returns the traits record.
func (b *Base) Traits() *Traits { return b.traits }

// ProcessingSuccessful reports the outcome of the most recent evaluation.
func (b *Base) ProcessingSuccessful() bool { return b.processingSuccessful }

// SetProcessingSuccessful records the outcome of the most recent evaluation.
func (b *Base) SetProcessingSuccessful(ok bool) { b.processingSuccessful = ok }

// SetProcessingCycles stores the advisory refinement-pass hint.
func (b *Base) SetProcessingCycles(n int) { b.processingCyclesAdvice = n }

// ProcessingCycles returns the advisory refinement-pass hint, for use by
// concrete Fitness() implementations.
func (b *Base) ProcessingCycles() int { return b.processingCyclesAdvice }

// CloneBase returns an independent copy of the bookkeeping state, for use by
// concrete Clone() implementations.
func (b *Base) CloneBase() Base {
	return Base{
		traits:                 b.traits.Clone(),
		dirty:                  b.dirty,
		processingSuccessful:   b.processingSuccessful,
		processingCyclesAdvice: b.processingCyclesAdvice,
	}
}

// LoadFromBase overwrites the bookkeeping state in place, for use by
// concrete LoadFrom() implementations.
func (b *Base) LoadFromBase(other *Base) {
	b.traits = other.traits.Clone()
	b.dirty = other.dirty
	b.processingSuccessful = other.processingSuccessful
	b.processingCyclesAdvice = other.processingCyclesAdvice
}
