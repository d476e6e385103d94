package rulekey

// LogSink receives structured diagnostic events from a Builder (spec.md
// §6). It must never influence the digest: every method here returns
// nothing, and Builder never branches on a LogSink call's outcome. The
// default is NoopLogSink; LoggerSink (in the cli-facing adapter, see
// internal/rulekey/log_logger.go) forwards events to pkg/logger for
// diagnosis.
type LogSink interface {
	AddedValue(field string, kind string)
	PushKey(field string)
	NullValue(field string)
	AddedPath(field string, path string, hash Sha1HashCode)
	AddedArchiveMember(field string, archivePath string, memberPath string, hash Sha1HashCode)
	PushMap(field string)
	PushMapKey(field string)
	PushMapValue(field string)
	PushSourceWithFlags(field string)
	RegisteredRuleKey(target BuildTarget, key RuleKey)
}

// NoopLogSink discards every event. It is the Builder's default.
type NoopLogSink struct{}

func (NoopLogSink) AddedValue(string, string)                              {}
func (NoopLogSink) PushKey(string)                                         {}
func (NoopLogSink) NullValue(string)                                       {}
func (NoopLogSink) AddedPath(string, string, Sha1HashCode)                 {}
func (NoopLogSink) AddedArchiveMember(string, string, string, Sha1HashCode) {}
func (NoopLogSink) PushMap(string)                                         {}
func (NoopLogSink) PushMapKey(string)                                      {}
func (NoopLogSink) PushMapValue(string)                                    {}
func (NoopLogSink) PushSourceWithFlags(string)                             {}
func (NoopLogSink) RegisteredRuleKey(BuildTarget, RuleKey)                 {}

// MultiLogSink fans one Builder's events out to several sinks, e.g. a
// NoopLogSink in production and a recording sink in tests.
type MultiLogSink []LogSink

func (m MultiLogSink) AddedValue(field, kind string) {
	for _, s := range m {
		s.AddedValue(field, kind)
	}
}
func (m MultiLogSink) PushKey(field string) {
	for _, s := range m {
		s.PushKey(field)
	}
}
func (m MultiLogSink) NullValue(field string) {
	for _, s := range m {
		s.NullValue(field)
	}
}
func (m MultiLogSink) AddedPath(field, path string, hash Sha1HashCode) {
	for _, s := range m {
		s.AddedPath(field, path, hash)
	}
}
func (m MultiLogSink) AddedArchiveMember(field, archivePath, memberPath string, hash Sha1HashCode) {
	for _, s := range m {
		s.AddedArchiveMember(field, archivePath, memberPath, hash)
	}
}
func (m MultiLogSink) PushMap(field string) {
	for _, s := range m {
		s.PushMap(field)
	}
}
func (m MultiLogSink) PushMapKey(field string) {
	for _, s := range m {
		s.PushMapKey(field)
	}
}
func (m MultiLogSink) PushMapValue(field string) {
	for _, s := range m {
		s.PushMapValue(field)
	}
}
func (m MultiLogSink) PushSourceWithFlags(field string) {
	for _, s := range m {
		s.PushSourceWithFlags(field)
	}
}
func (m MultiLogSink) RegisteredRuleKey(target BuildTarget, key RuleKey) {
	for _, s := range m {
		s.RegisteredRuleKey(target, key)
	}
}
