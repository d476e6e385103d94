package rulekey

import "testing"

func TestSinkSameInputSameDigest(t *testing.T) {
	build := func() RuleKey {
		s := NewSink()
		s.AbsorbChars("hello")
		s.AbsorbSeparator()
		s.AbsorbFixedInt(42, 8)
		return s.Finalize()
	}
	if build() != build() {
		t.Error("identical absorb sequences produced different digests")
	}
}

func TestSinkSeparatorDisambiguatesConcatenation(t *testing.T) {
	a := NewSink()
	a.AbsorbChars("ab")
	a.AbsorbSeparator()
	a.AbsorbChars("c")
	keyA := a.Finalize()

	b := NewSink()
	b.AbsorbChars("a")
	b.AbsorbSeparator()
	b.AbsorbChars("bc")
	keyB := b.Finalize()

	if keyA == keyB {
		t.Error("absorb_separator failed to disambiguate ab|c from a|bc")
	}
}

func TestSinkFixedIntWidths(t *testing.T) {
	s8 := NewSink()
	s8.AbsorbFixedInt(1, 1)
	k8 := s8.Finalize()

	s32 := NewSink()
	s32.AbsorbFixedInt(1, 4)
	k32 := s32.Finalize()

	if k8 == k32 {
		t.Error("different fixed-width encodings of the same value produced the same digest")
	}
}

func TestSinkFinalizeThenAbsorbPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic absorbing into a finalized sink")
		}
	}()
	s := NewSink()
	s.Finalize()
	s.AbsorbChars("too late")
}

func TestSinkAbsorbFixedIntInvalidWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an unsupported fixed-width integer size")
		}
	}()
	s := NewSink()
	s.AbsorbFixedInt(1, 3)
}

func TestRuleKeyStringIsHex(t *testing.T) {
	s := NewSink()
	s.AbsorbChars("x")
	k := s.Finalize()
	if len(k.String()) != digestSize*2 {
		t.Errorf("RuleKey.String() length = %d, want %d", len(k.String()), digestSize*2)
	}
}
