package rulekey

import "rulekeybuilder/pkg/logger"

// LoggerSink forwards every LogSink event to pkg/logger at debug level,
// for diagnosing exactly why two supposedly-identical builds produced
// different rule keys (spec.md §6 motivation). It holds no state of its
// own — pkg/logger's global logger is the real destination — so the zero
// value is ready to use.
type LoggerSink struct{}

func (LoggerSink) AddedValue(field, kind string) {
	logger.Debugf("rulekey: %s += %s", field, kind)
}

func (LoggerSink) PushKey(field string) {
	logger.Debugf("rulekey: push %s", field)
}

func (LoggerSink) NullValue(field string) {
	logger.Debugf("rulekey: %s = null", field)
}

func (LoggerSink) AddedPath(field, path string, hash Sha1HashCode) {
	logger.Debugf("rulekey: %s += path %s (%s)", field, path, hash)
}

func (LoggerSink) AddedArchiveMember(field, archivePath, memberPath string, hash Sha1HashCode) {
	logger.Debugf("rulekey: %s += archive member %s!%s (%s)", field, archivePath, memberPath, hash)
}

func (LoggerSink) PushMap(field string) {
	logger.Debugf("rulekey: %s = map {", field)
}

func (LoggerSink) PushMapKey(field string) {
	logger.Debugf("rulekey: %s -> entry key", field)
}

func (LoggerSink) PushMapValue(field string) {
	logger.Debugf("rulekey: %s -> entry value", field)
}

func (LoggerSink) PushSourceWithFlags(field string) {
	logger.Debugf("rulekey: %s = source-with-flags", field)
}

func (LoggerSink) RegisteredRuleKey(target BuildTarget, key RuleKey) {
	logger.Debugf("rulekey: registered %s -> %s", target, key)
}
