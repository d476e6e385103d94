package rulekey

import "sync"

// memoState tracks one BuildTarget's resolution state in a RuleKeyMemo.
type memoState int

const (
	memoInProgress memoState = iota
	memoDone
)

type memoEntry struct {
	state memoState
	key   RuleKey
}

// RuleKeyMemo is the process-wide, shared collaborator that memoizes
// BuildRule RuleKeys by BuildTarget (spec.md §3 Lifecycle, §4.F, §5).
// It is internally synchronized and write-once-per-target: concurrent
// requesters of the same unresolved target either share one computation
// or each compute independently and agree on the result, because
// computation is deterministic (spec.md §9 design note). It also detects
// cyclic rule graphs by tracking targets that are mid-computation,
// grounded on the mutex-guarded map pattern in the teacher's
// internal/cache.CapsuleCache, generalized from a TTL'd existence cache
// to a write-once resolution cache (rule keys never expire mid-build).
type RuleKeyMemo struct {
	mu sync.Mutex
	// entries is keyed by BuildTarget.FullyQualifiedName() rather than by
	// BuildTarget itself: BuildTarget carries a Flavors []string field,
	// making it a non-comparable type and therefore unusable as a map
	// key. FullyQualifiedName already serves as BuildTarget's identity
	// everywhere else in this package.
	entries map[string]*memoEntry
}

// NewRuleKeyMemo creates an empty RuleKeyMemo.
func NewRuleKeyMemo() *RuleKeyMemo {
	return &RuleKeyMemo{entries: make(map[string]*memoEntry)}
}

// begin registers target as in-progress, or reports its already-resolved
// key. It returns cyclic=true if target is already in progress on the
// calling goroutine's path (spec.md §4.F step "a cycle is a fatal
// invariant violation" / CyclicRuleGraph).
//
// This memo does not attempt single-flight deduplication across
// goroutines computing the same target concurrently (spec.md §9 notes
// that racy recomputation is also correct, since the computation is
// deterministic); it only needs to detect a cycle on the caller's own
// recursion path, which a single in-progress marker per target achieves
// for any one caller's depth-first walk.
func (m *RuleKeyMemo) begin(target BuildTarget) (key RuleKey, done bool, cyclic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := target.FullyQualifiedName()
	entry, ok := m.entries[name]
	if !ok {
		m.entries[name] = &memoEntry{state: memoInProgress}
		return RuleKey{}, false, false
	}
	switch entry.state {
	case memoDone:
		return entry.key, true, false
	case memoInProgress:
		return RuleKey{}, false, true
	default:
		return RuleKey{}, false, false
	}
}

// finish records target's resolved key and clears its in-progress marker.
func (m *RuleKeyMemo) finish(target BuildTarget, key RuleKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[target.FullyQualifiedName()] = &memoEntry{state: memoDone, key: key}
}

// abandon clears target's in-progress marker without recording a result,
// used when resolution fails so a later retry isn't permanently treated
// as cyclic.
func (m *RuleKeyMemo) abandon(target BuildTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, target.FullyQualifiedName())
}
