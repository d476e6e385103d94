package rulekey

import "testing"

// newTestBuilder returns a Builder with no files registered in its oracle
// and strict mode on, suitable for scenarios that never touch a
// SourcePath.
func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	resolver, err := NewPathResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewPathResolver: %v", err)
	}
	return NewBuilder(resolver, NewCachingOracle(), NewRuleKeyMemo(), true, nil)
}

func mustFinalize(t *testing.T, b *Builder) RuleKey {
	t.Helper()
	key, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return key
}

// scenario 1 (spec.md §8): set("flag", true) absorbs flag, sep, t, sep.
func TestScenario1Bool(t *testing.T) {
	expected := NewSink()
	expected.AbsorbChars("flag")
	expected.AbsorbSeparator()
	expected.AbsorbChars("t")
	expected.AbsorbSeparator()
	want := expected.Finalize()

	b := newTestBuilder(t)
	if err := b.Set("flag", BoolVal(true)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b)

	if got != want {
		t.Errorf("scenario 1: got %s, want %s", got, want)
	}
}

// scenario 2: set("n", 7_i32) absorbs n, sep, BE 00000007, sep.
func TestScenario2Int32(t *testing.T) {
	expected := NewSink()
	expected.AbsorbChars("n")
	expected.AbsorbSeparator()
	expected.AbsorbFixedInt(7, 4)
	expected.AbsorbSeparator()
	want := expected.Finalize()

	b := newTestBuilder(t)
	if err := b.Set("n", IntVal(7, Int32)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b)

	if got != want {
		t.Errorf("scenario 2: got %s, want %s", got, want)
	}
}

// scenario 3 / P4: set("xs", []) absorbs nothing.
func TestScenario3EmptySequenceInvisible(t *testing.T) {
	empty := NewSink().Finalize()

	b := newTestBuilder(t)
	if err := b.Set("xs", SequenceVal()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b)

	if got != empty {
		t.Errorf("scenario 3: got %s, want digest of empty input %s", got, empty)
	}
}

// scenario 4: set("xs", [1,2]) absorbs xs once, then both elements.
func TestScenario4SequenceSharesFieldNameOnce(t *testing.T) {
	expected := NewSink()
	expected.AbsorbChars("xs")
	expected.AbsorbSeparator()
	expected.AbsorbFixedInt(1, 4)
	expected.AbsorbSeparator()
	expected.AbsorbFixedInt(2, 4)
	expected.AbsorbSeparator()
	want := expected.Finalize()

	b := newTestBuilder(t)
	if err := b.Set("xs", SequenceVal(IntVal(1, Int32), IntVal(2, Int32))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b)

	if got != want {
		t.Errorf("scenario 4: got %s, want %s", got, want)
	}
}

// scenario 5: ordered map re-drains the field name around every entry.
func TestScenario5MapRepushesFieldNamePerEntry(t *testing.T) {
	expected := NewSink()
	expected.AbsorbChars("m")
	expected.AbsorbSeparator()
	expected.AbsorbChars("{")
	expected.AbsorbSeparator()
	expected.AbsorbChars("m")
	expected.AbsorbSeparator()
	expected.AbsorbChars("a")
	expected.AbsorbSeparator()
	expected.AbsorbChars(" -> ")
	expected.AbsorbSeparator()
	expected.AbsorbChars("m")
	expected.AbsorbSeparator()
	expected.AbsorbFixedInt(1, 4)
	expected.AbsorbSeparator()
	expected.AbsorbChars("m")
	expected.AbsorbSeparator()
	expected.AbsorbChars("b")
	expected.AbsorbSeparator()
	expected.AbsorbChars(" -> ")
	expected.AbsorbSeparator()
	expected.AbsorbChars("m")
	expected.AbsorbSeparator()
	expected.AbsorbFixedInt(2, 4)
	expected.AbsorbSeparator()
	expected.AbsorbChars("}")
	expected.AbsorbSeparator()
	want := expected.Finalize()

	b := newTestBuilder(t)
	m := OrderedMapVal(
		MapEntry{Key: StringVal("a"), Value: IntVal(1, Int32)},
		MapEntry{Key: StringVal("b"), Value: IntVal(2, Int32)},
	)
	if err := b.Set("m", m); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b)

	if got != want {
		t.Errorf("scenario 5: got %s, want %s", got, want)
	}
}

// scenario 8: a BuildRule's textual identity precedes its resolved RuleKey.
func TestScenario8BuildRuleIdentityThenKey(t *testing.T) {
	b := newTestBuilder(t)
	target := NewBuildTarget("pkg", "dep")
	rule := NewBuildRule(target, FieldInput{Name: "x", Value: IntVal(1, Int32)})

	key, err := b.resolveRule(rule)
	if err != nil {
		t.Fatalf("resolveRule: %v", err)
	}

	expected := NewSink()
	expected.AbsorbChars("dep")
	expected.AbsorbSeparator()
	expected.AbsorbChars(target.FullyQualifiedName())
	expected.AbsorbSeparator()
	expected.AbsorbChars(key.String())
	expected.AbsorbSeparator()
	want := expected.Finalize()

	b2 := newTestBuilder(t)
	if err := b2.Set("dep", BuildRuleVal{Rule: rule}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := mustFinalize(t, b2)

	if got != want {
		t.Errorf("scenario 8: got %s, want %s", got, want)
	}
}

// P1: determinism across independent builders fed the same tree.
func TestDeterminism(t *testing.T) {
	build := func() RuleKey {
		b := newTestBuilder(t)
		v := SequenceVal(StringVal("a"), IntVal(3, Int64), BoolVal(false))
		if err := b.Set("xs", v); err != nil {
			t.Fatalf("Set: %v", err)
		}
		return mustFinalize(t, b)
	}
	if build() != build() {
		t.Error("two independent builders fed the same value tree diverged")
	}
}

// P2: separation by field name.
func TestSeparationByFieldName(t *testing.T) {
	keyFor := func(name string) RuleKey {
		b := newTestBuilder(t)
		if err := b.Set(name, StringVal("same")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		return mustFinalize(t, b)
	}
	if keyFor("a") == keyFor("b") {
		t.Error("distinct field names produced the same RuleKey")
	}
}

// P5: Option transparency.
func TestOptionTransparency(t *testing.T) {
	keyFor := func(v Value) RuleKey {
		b := newTestBuilder(t)
		if err := b.Set("opt", v); err != nil {
			t.Fatalf("Set: %v", err)
		}
		return mustFinalize(t, b)
	}

	if keyFor(NoneVal()) != keyFor(NullValue) {
		t.Error("None and null diverged")
	}
	inner := IntVal(42, Int32)
	if keyFor(SomeVal(inner)) != keyFor(inner) {
		t.Error("Some(v) and v diverged")
	}
}

// P7: rule identity — two rules with equal declared inputs agree.
func TestRuleIdentity(t *testing.T) {
	target1 := NewBuildTarget("pkg", "one")
	target2 := NewBuildTarget("pkg", "two")
	inputs := []FieldInput{{Name: "x", Value: IntVal(9, Int32)}}

	b := newTestBuilder(t)
	k1, err := b.resolveRule(NewBuildRule(target1, inputs...))
	if err != nil {
		t.Fatalf("resolveRule: %v", err)
	}
	k2, err := b.resolveRule(NewBuildRule(target2, inputs...))
	if err != nil {
		t.Fatalf("resolveRule: %v", err)
	}
	// A rule's own sub-key absorbs only its declared inputs; the target's
	// FQN is contributed only where the rule is referenced from another
	// field (scenario 8). Distinct targets with identical inputs therefore
	// agree.
	if k1 != k2 {
		t.Error("two rules with equal declared inputs produced different RuleKeys")
	}

	b2 := newTestBuilder(t)
	k1Again, err := b2.resolveRule(NewBuildRule(target1, inputs...))
	if err != nil {
		t.Fatalf("resolveRule: %v", err)
	}
	if k1 != k1Again {
		t.Error("same target with equal declared inputs produced different RuleKeys across builders")
	}
}

// P8: a bare filesystem path always fails with AmbiguousPath.
func TestBareFilesystemPathRejected(t *testing.T) {
	b := newTestBuilder(t)
	err := b.Set("src", BareFilesystemPathVal("/tmp/whatever"))
	if err == nil {
		t.Fatal("expected an error for a bare filesystem path")
	}
}

// Cyclic rule graphs are detected rather than overflowing the stack.
func TestCyclicRuleGraphDetected(t *testing.T) {
	b := newTestBuilder(t)
	targetA := NewBuildTarget("pkg", "a")
	targetB := NewBuildTarget("pkg", "b")

	ruleA := &BuildRule{Target: targetA}
	ruleB := &BuildRule{Target: targetB}
	ruleA.Inputs = []FieldInput{{Name: "dep", Value: BuildRuleVal{Rule: ruleB}}}
	ruleB.Inputs = []FieldInput{{Name: "dep", Value: BuildRuleVal{Rule: ruleA}}}

	if _, err := b.resolveRule(ruleA); err == nil {
		t.Fatal("expected a cyclic rule graph error")
	}
}

// An Appendable field contributes "<field>.appendableSubKey" set to the
// RuleKey of the Appendable's own inputs.
func TestAppendableSubKeyDerivedFromInputs(t *testing.T) {
	item := AppendableFunc(func(sub *Builder) error {
		return sub.Set("x", IntVal(5, Int32))
	})

	b := newTestBuilder(t)
	if err := b.SetReflectively("field", AppendableVal{Item: item}); err != nil {
		t.Fatalf("SetReflectively: %v", err)
	}
	got := mustFinalize(t, b)

	// Recompute independently: should equal Set("field.appendableSubKey", subKey).
	b2 := newTestBuilder(t)
	subBuilder := NewBuilder(b2.resolver, b2.oracle, b2.memo, b2.strict, nil)
	if err := subBuilder.Set("x", IntVal(5, Int32)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	subKey, err := subBuilder.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := b2.Set("field.appendableSubKey", RuleKeyVal{Key: subKey}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	want := mustFinalize(t, b2)

	if got != want {
		t.Errorf("appendable sub-key mismatch: got %s, want %s", got, want)
	}
}
