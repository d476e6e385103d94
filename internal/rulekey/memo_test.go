package rulekey

import "testing"

func TestMemoFirstBeginIsNotDoneOrCyclic(t *testing.T) {
	m := NewRuleKeyMemo()
	target := NewBuildTarget("pkg", "x")

	_, done, cyclic := m.begin(target)
	if done || cyclic {
		t.Errorf("first begin: done=%v cyclic=%v, want both false", done, cyclic)
	}
}

func TestMemoSecondBeginWhileInProgressIsCyclic(t *testing.T) {
	m := NewRuleKeyMemo()
	target := NewBuildTarget("pkg", "x")
	m.begin(target)

	_, done, cyclic := m.begin(target)
	if done || !cyclic {
		t.Errorf("second begin while in progress: done=%v cyclic=%v, want done=false cyclic=true", done, cyclic)
	}
}

func TestMemoFinishThenBeginReturnsCachedKey(t *testing.T) {
	m := NewRuleKeyMemo()
	target := NewBuildTarget("pkg", "x")
	m.begin(target)

	var want RuleKey
	want[0] = 0xAB
	m.finish(target, want)

	got, done, cyclic := m.begin(target)
	if !done || cyclic {
		t.Fatalf("begin after finish: done=%v cyclic=%v, want done=true cyclic=false", done, cyclic)
	}
	if got != want {
		t.Errorf("begin after finish returned %v, want %v", got, want)
	}
}

func TestMemoAbandonAllowsRetry(t *testing.T) {
	m := NewRuleKeyMemo()
	target := NewBuildTarget("pkg", "x")
	m.begin(target)
	m.abandon(target)

	_, done, cyclic := m.begin(target)
	if done || cyclic {
		t.Errorf("begin after abandon: done=%v cyclic=%v, want both false", done, cyclic)
	}
}
