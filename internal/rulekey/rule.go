package rulekey

// FieldInput is one (field-name, value) pair a BuildRule declares,
// contributed to its RuleKey via Builder.Set in declared order
// (spec.md §3 "a rule depends on ... its declared inputs").
type FieldInput struct {
	Name  string
	Value Value
}

// BuildRule has a BuildTarget, a set of declared input Values, and, once
// computed, a memoized RuleKey (spec.md §3). Rules form a DAG: Inputs may
// themselves reference other BuildRules (directly, or transitively through
// SourcePath/Appendable values), and F's resolveRule detects cycles rather
// than recursing forever.
type BuildRule struct {
	Target BuildTarget
	Inputs []FieldInput
}

// NewBuildRule constructs a BuildRule from its target and declared
// inputs. Inputs are contributed to the RuleKey builder in the given
// order via set(), one after another, so the same (name, value) pairs
// in a different order generally produce a different digest (I1).
func NewBuildRule(target BuildTarget, inputs ...FieldInput) *BuildRule {
	return &BuildRule{Target: target, Inputs: inputs}
}

// Appendable is a sub-structure that contributes its own sub-key rather
// than inlining its fields directly into the parent builder (spec.md §4.F).
type Appendable interface {
	// AppendToRuleKey drives a fresh Builder with this value's fields.
	// The sub-builder's eventual Finalize() produces the sub-key the
	// caller absorbs under a derived field name.
	AppendToRuleKey(b *Builder) error
}

// AppendableFunc adapts a plain function to the Appendable interface,
// mirroring the small-interface-as-function-value idiom used elsewhere in
// this codebase for single-method collaborators.
type AppendableFunc func(b *Builder) error

// AppendToRuleKey implements Appendable.
func (f AppendableFunc) AppendToRuleKey(b *Builder) error { return f(b) }

// AppendToRuleKey implements Appendable for *BuildRule, contributing each
// declared input in order. This lets a BuildRule be wrapped in an
// AppendableVal: SetReflectively's Appendable branch then both derives a
// sub-key from these same inputs AND (because the wrapped item is also a
// *BuildRule) contributes the rule's own memoized RuleKey, exactly as
// spec.md §4.E's "value is an Appendable ... also a BuildRule" case
// describes.
func (r *BuildRule) AppendToRuleKey(b *Builder) error {
	for _, in := range r.Inputs {
		if err := b.SetReflectively(in.Name, in.Value); err != nil {
			return err
		}
	}
	return nil
}
