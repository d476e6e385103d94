package rulekey

// Builder is the Rule-Key Builder (spec.md §4.E). It owns a Digest Sink, a
// Path Resolver, a File-Hash Oracle, a rule-key memo, and the key-context
// stack. A Builder is created per rule-keying request, fed in a
// single-threaded fashion, and finalized exactly once (spec.md §3
// Lifecycle, §5).
type Builder struct {
	sink     *Sink
	resolver *PathResolver
	oracle   FileHashOracle
	memo     *RuleKeyMemo
	strict   bool
	log      LogSink

	// ctx is the key-context stack: field names pushed but not yet
	// drained (spec.md §4.E "context emission"). Draining happens in
	// LIFO order ("top to bottom" per spec.md §4.E) the moment any
	// primitive is about to be absorbed, and clears the whole stack —
	// not just the most recently pushed frame.
	ctx []string
}

// NewBuilder constructs a Builder sharing resolver, oracle, memo, and
// strict/log configuration with any sibling builders created for nested
// rules or appendables (spec.md §4.F, §5).
func NewBuilder(resolver *PathResolver, oracle FileHashOracle, memo *RuleKeyMemo, strict bool, log LogSink) *Builder {
	if log == nil {
		log = NoopLogSink{}
	}
	return &Builder{
		sink:     NewSink(),
		resolver: resolver,
		oracle:   oracle,
		memo:     memo,
		strict:   strict,
		log:      log,
	}
}

// withField pushes name onto the context stack, runs body, then restores
// the stack to its pre-call height — but only if nothing inside body
// drained it. This is the shared implementation behind both Set (spec.md
// §4.E: "push name, recurse on value, pop to prior stack height") and the
// per-entry re-push a Map's encoding performs (spec.md §8 scenario 5).
//
// If body never causes a primitive to be absorbed, the frame we pushed is
// still sitting on top of the stack when body returns, and we remove
// exactly that frame — this is what makes an empty collection invisible
// to the digest (spec.md §4.E, P4): nothing was ever drained, so nothing
// was ever written, and the pushed name leaves no trace once popped.
//
// If body does cause a drain, the ENTIRE stack (including frames pushed
// by an enclosing withField call, if any) was already cleared and
// permanently absorbed into the sink; there is nothing left to pop.
func (b *Builder) withField(name string, body func() error) error {
	before := len(b.ctx)
	b.ctx = append(b.ctx, name)
	b.log.PushKey(name)
	err := body()
	if len(b.ctx) > before {
		b.ctx = b.ctx[:before]
	}
	return err
}

// Set pushes name, classifies value, and pops back to the prior stack
// height (spec.md §4.E).
func (b *Builder) Set(name string, v Value) error {
	return b.withField(name, func() error {
		return b.classify(v)
	})
}

// SetReflectively is the builder's public entry point (spec.md §4.E).
// Before classifying, it handles the one case classify() cannot handle on
// its own: resolving an Appendable (and, if the same value is also a
// BuildRule, falling through to contribute that rule's own RuleKey too).
// SetReflectively's other described pre-steps — unwrapping an Option, and
// splatting a Sequence/Map's elements under the shared field name — need
// no special code here: classify()'s generic table entries for Option,
// Sequence, and Map (classifier.go) already produce exactly that
// behavior for ANY value they see, at any nesting depth, not just at the
// top level SetReflectively is called from.
func (b *Builder) SetReflectively(name string, v Value) error {
	if av, ok := v.(AppendableVal); ok {
		subKey, err := b.computeAppendableSubKey(av.Item)
		if err != nil {
			return err
		}
		if err := b.Set(name+".appendableSubKey", RuleKeyVal{Key: subKey}); err != nil {
			return err
		}
		if rule, ok := av.Item.(*BuildRule); ok {
			return b.Set(name, BuildRuleVal{Rule: rule})
		}
		return nil
	}
	return b.Set(name, v)
}

// Finalize drains any residual key-context (none should remain for a
// well-formed Value tree) and asks the sink for its digest.
func (b *Builder) Finalize() (RuleKey, error) {
	b.drain()
	return b.sink.Finalize(), nil
}

// drain absorbs any pending field-context names (LIFO) into the sink,
// each followed by a separator, then clears the stack. It is called from
// every primitive-emitting path in classifier.go, never directly by
// callers.
func (b *Builder) drain() {
	if len(b.ctx) == 0 {
		return
	}
	for i := len(b.ctx) - 1; i >= 0; i-- {
		b.sink.AbsorbChars(b.ctx[i])
		b.sink.AbsorbSeparator()
	}
	b.ctx = b.ctx[:0]
}

// activeFieldName returns the most recently pushed, not-yet-drained field
// name, or "" if the stack is empty. classifyMap uses this to re-push the
// enclosing field name around each entry's key and value (spec.md §8
// scenario 5).
func (b *Builder) activeFieldName() string {
	if len(b.ctx) == 0 {
		return ""
	}
	return b.ctx[len(b.ctx)-1]
}

// emitChars drains the context, then absorbs s's UTF-8 bytes followed by
// a separator — the shared tail of nearly every row in spec.md §4.D's
// encoding table.
func (b *Builder) emitChars(s string) {
	b.drain()
	b.sink.AbsorbChars(s)
	b.sink.AbsorbSeparator()
}

// emitBytes drains the context, then absorbs raw bytes followed by a
// separator.
func (b *Builder) emitBytes(p []byte) {
	b.drain()
	b.sink.AbsorbBytes(p)
	b.sink.AbsorbSeparator()
}

// emitFixedInt drains the context, then absorbs a big-endian fixed-width
// integer followed by a separator.
func (b *Builder) emitFixedInt(v int64, widthBytes int) {
	b.drain()
	b.sink.AbsorbFixedInt(v, widthBytes)
	b.sink.AbsorbSeparator()
}

// emitFixedFloat drains the context, then absorbs an IEEE-754 fixed-width
// float followed by a separator.
func (b *Builder) emitFixedFloat(v float64, widthBytes int) {
	b.drain()
	b.sink.AbsorbFixedFloat(v, widthBytes)
	b.sink.AbsorbSeparator()
}

// ComputeRuleKey is the package's external entry point for computing a
// BuildRule's RuleKey: it owns the RuleKeyMemo for the whole call (so
// every transitively-referenced rule in this computation shares one
// memo and one cycle-detection pass) and delegates to the same
// resolveRule a BuildRuleVal encountered mid-classification would use.
func ComputeRuleKey(rule *BuildRule, resolver *PathResolver, oracle FileHashOracle, strict bool, log LogSink) (RuleKey, error) {
	memo := NewRuleKeyMemo()
	b := NewBuilder(resolver, oracle, memo, strict, log)
	return b.resolveRule(rule)
}

// resolveRule implements §4.F's BuildRule resolution: a memoized lookup
// by BuildTarget, or — on first sight of a target — a fresh Builder that
// lets the rule contribute its own inputs, detecting cycles along the way.
func (b *Builder) resolveRule(rule *BuildRule) (RuleKey, error) {
	key, done, cyclic := b.memo.begin(rule.Target)
	if done {
		return key, nil
	}
	if cyclic {
		return RuleKey{}, newBuildErrorf(codeCyclicRuleGraph,
			"cyclic rule graph detected while resolving %s", rule.Target)
	}

	sub := NewBuilder(b.resolver, b.oracle, b.memo, b.strict, b.log)
	for _, in := range rule.Inputs {
		if err := sub.SetReflectively(in.Name, in.Value); err != nil {
			b.memo.abandon(rule.Target)
			return RuleKey{}, err
		}
	}
	key, err := sub.Finalize()
	if err != nil {
		b.memo.abandon(rule.Target)
		return RuleKey{}, err
	}
	b.memo.finish(rule.Target, key)
	b.log.RegisteredRuleKey(rule.Target, key)
	return key, nil
}

// computeAppendableSubKey implements §4.F's Appendable resolution: a
// fresh Builder drives item.AppendToRuleKey and finalizes. Unlike
// BuildRule resolution, this is never memoized — an Appendable has no
// BuildTarget to key a cache by, and spec.md describes it only as "a
// fresh Rule-Key Builder", not a cached one.
func (b *Builder) computeAppendableSubKey(item Appendable) (RuleKey, error) {
	sub := NewBuilder(b.resolver, b.oracle, b.memo, b.strict, b.log)
	if err := item.AppendToRuleKey(sub); err != nil {
		return RuleKey{}, err
	}
	return sub.Finalize()
}
