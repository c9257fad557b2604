package stm

// Step is one unit of work inside a transaction. A non-nil error marks the
// attempt as failed; the transaction rolls back and reruns every step.
type Step func(tx *Transaction) error

// Builder assembles the ordered step list of a Transaction.
type Builder struct {
	label string
	steps []Step
}

// NewTransaction starts an empty builder.
func NewTransaction() *Builder {
	return &Builder{}
}

// Begin starts a builder with fn as its first step.
func Begin(fn Step) *Builder {
	return NewTransaction().Step(fn)
}

// Named sets a label used in logs and observer events.
func (b *Builder) Named(label string) *Builder {
	b.label = label
	return b
}

// Step appends fn. Nil steps are skipped.
func (b *Builder) Step(fn Step) *Builder {
	if fn != nil {
		b.steps = append(b.steps, fn)
	}
	return b
}

// Then is an alias of Step that reads naturally after Begin.
func (b *Builder) Then(fn Step) *Builder {
	return b.Step(fn)
}

// Build returns the transaction. The builder may be reused; each Build
// gets its own copy of the step list.
func (b *Builder) Build() *Transaction {
	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	return newTransaction(b.label, steps)
}
