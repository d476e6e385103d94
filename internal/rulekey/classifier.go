package rulekey

import (
	"path/filepath"

	"rulekeybuilder/pkg/logger"
)

// classify dispatches v through the encoding table in spec.md §4.D. It is
// the single recursive entry point every Value variant passes through,
// whether reached directly from Builder.Set or nested arbitrarily deep
// inside a Sequence, Map, Option, Either, or Thunk. Every branch that
// absorbs a primitive goes through one of Builder's emit* helpers, which
// drain the key-context stack first — classify itself never touches the
// sink directly; even the bracket/separator literals a collection's own
// encoding contributes go through emitChars.
func (b *Builder) classify(v Value) error {
	switch val := v.(type) {

	case Null:
		b.log.NullValue(b.activeFieldName())
		b.emitBytes(nil)
		return nil

	case Bool:
		s := "f"
		if val.V {
			s = "t"
		}
		b.logAdded("bool")
		b.emitChars(s)
		return nil

	case Int:
		width, err := intWidthBytes(val.Width)
		if err != nil {
			return err
		}
		b.logAdded("int")
		b.emitFixedInt(val.V, width)
		return nil

	case Float:
		width, err := floatWidthBytes(val.Width)
		if err != nil {
			return err
		}
		b.logAdded("float")
		b.emitFixedFloat(val.V, width)
		return nil

	case String:
		b.logAdded("string")
		b.emitChars(val.V)
		return nil

	case Regex:
		b.logAdded("regex")
		b.emitChars(val.Source)
		return nil

	case Bytes:
		b.logAdded("bytes")
		b.emitBytes(val.V)
		return nil

	case Enum:
		b.logAdded("enum")
		b.emitChars(val.Name)
		return nil

	case Sequence:
		for _, item := range val.Items {
			if err := b.classify(item); err != nil {
				return err
			}
		}
		return nil

	case Set:
		if !val.Ordered {
			if b.strict {
				return newBuildError(codeUnorderedCollection,
					"unordered set encountered in strict mode")
			}
			// Outside strict mode an unordered set is tolerated and encoded
			// in whatever order the caller iterated it (spec.md I3), but
			// the non-determinism is always surfaced so a flaky digest can
			// be traced back to its source.
			logger.Warnf("rulekey: unordered set tolerated under field %q (strict_collections disabled)", b.activeFieldName())
		}
		// `(` / `)` tag the set shape so SequenceVal(a,b) and
		// OrderedSetVal(a,b) — otherwise identical item-by-item encodings —
		// don't collide on the same digest.
		b.emitChars("(")
		for _, item := range val.Items {
			if err := b.classify(item); err != nil {
				return err
			}
		}
		b.emitChars(")")
		return nil

	case Map:
		return b.classifyMap(val)

	case Thunk:
		forced, err := val.Force()
		if err != nil {
			return err
		}
		return b.classify(forced)

	case Option:
		if !val.Present {
			return b.classify(NullValue)
		}
		return b.classify(val.Inner)

	case Either:
		return b.classify(val.Inner)

	case RuleKeyVal:
		b.logAdded("rule-key")
		b.emitChars(val.Key.String())
		return nil

	case Sha1HashCodeVal:
		b.logAdded("sha1-hash-code")
		b.emitBytes(val.Hash[:])
		return nil

	case SourceRoot:
		b.logAdded("source-root")
		b.emitChars(val.Name)
		return nil

	case SourceWithFlags:
		b.log.PushSourceWithFlags(b.activeFieldName())
		if err := b.classify(val.Path); err != nil {
			return err
		}
		b.emitChars("[")
		for _, flag := range val.Flags {
			b.emitChars(flag)
			b.emitChars(",")
		}
		b.emitChars("]")
		return nil

	case BuildTargetVal:
		b.logAdded("build-target")
		b.emitChars(val.Target.FullyQualifiedName())
		return nil

	case BuildRuleVal:
		return b.classifyBuildRule(val.Rule)

	case AppendableVal:
		subKey, err := b.computeAppendableSubKey(val.Item)
		if err != nil {
			return err
		}
		b.logAdded("appendable")
		b.emitChars(subKey.String())
		return nil

	case SourcePathValue:
		return b.classifySourcePath(val.Path)

	case NonHashingSourcePathValue:
		return b.classifyNonHashingSourcePath(val.Path)

	case ArchiveMemberSourcePathValue:
		return b.classifyArchiveMember(val.Path)

	case BareFilesystemPath:
		return newBuildErrorf(codeAmbiguousPath,
			"bare filesystem path %q passed directly as a Value; wrap it in a SourcePath first", val.Path)

	default:
		return newBuildErrorf(codeUnsupportedValue, "unsupported value shape %s", valueKind(v))
	}
}

// logAdded reports a scalar-primitive absorption via the LogSink's
// generic added-value event (spec.md §6). It is never consulted for
// control flow — purely diagnostic.
func (b *Builder) logAdded(kind string) {
	b.log.AddedValue(b.activeFieldName(), kind)
}

// classifyMap encodes an ordered (or, outside strict mode, tolerated
// unordered) map as `{`, then for each entry: key, ` -> `, value, then
// `}` (spec.md §4.D). Each entry's key and value are processed under a
// fresh push of the map's own field name — re-pushed per entry, not just
// once for the whole map — reproducing the exact byte sequence spec.md
// §8 scenario 5 verifies: the field name drains again before every
// primitive an entry contributes, because each entry pops the prior
// push before the next one begins.
func (b *Builder) classifyMap(m Map) error {
	if !m.Ordered {
		if b.strict {
			return newBuildError(codeUnorderedCollection,
				"unordered map encountered in strict mode")
		}
		logger.Warnf("rulekey: unordered map tolerated under field %q (strict_collections disabled)", b.activeFieldName())
	}

	field := b.activeFieldName()
	b.log.PushMap(field)
	b.emitChars("{")
	for _, entry := range m.Entries {
		b.log.PushMapKey(field)
		if err := b.withField(field, func() error { return b.classify(entry.Key) }); err != nil {
			return err
		}
		b.emitChars(" -> ")
		b.log.PushMapValue(field)
		if err := b.withField(field, func() error { return b.classify(entry.Value) }); err != nil {
			return err
		}
	}
	b.emitChars("}")
	return nil
}

// classifyBuildRule resolves a BuildRule's RuleKey (memoized, §4.F) and
// contributes its target identity followed by the resolved key, mirroring
// the rule-output source-path branch below (spec.md §8 scenario 8).
func (b *Builder) classifyBuildRule(rule *BuildRule) error {
	b.emitChars(rule.Target.FullyQualifiedName())
	key, err := b.resolveRule(rule)
	if err != nil {
		return err
	}
	b.emitChars(key.String())
	return nil
}

// classifySourcePath implements spec.md §4.D.1: dispatch on the concrete
// SourcePath variant.
func (b *Builder) classifySourcePath(sp SourcePath) error {
	switch p := sp.(type) {

	case ArchiveMemberSourcePath:
		return b.classifyArchiveMember(p)

	case RuleOutputSourcePath:
		b.emitChars(p.identity())
		if p.Rule == nil {
			return errInternalf("RuleOutputSourcePath %s has a nil owning rule", p.identity())
		}
		return b.classifyBuildRule(p.Rule)

	case FilesystemSourcePath:
		absolutePath, err := b.resolver.ResolveAbsolute(p)
		if err != nil {
			return err
		}
		hash, ok := b.oracle.Digest(absolutePath)
		if !ok {
			return newBuildErrorf(codeMissingFileHash,
				"no content hash available for %s", absolutePath)
		}
		pathText, relOK, err := b.resolver.ResolveRelative(p)
		if err != nil {
			return err
		}
		if !relOK {
			pathText = filepath.Base(absolutePath)
		}
		field := b.activeFieldName()
		b.emitChars(pathText)
		b.log.AddedPath(field, pathText, hash)
		b.emitChars(hash.String())
		return nil

	case ResourceSourcePath:
		return newBuildErrorf(codeUnsupportedValue,
			"ResourceSourcePath %q is only valid under a non-hashing source path", p.Identifier)

	default:
		return newBuildErrorf(codeUnsupportedValue, "unsupported source path shape %T", sp)
	}
}

// classifyNonHashingSourcePath implements spec.md §4.D.2: identity only,
// no content digest is resolved or contributed.
func (b *Builder) classifyNonHashingSourcePath(sp SourcePath) error {
	switch p := sp.(type) {

	case ResourceSourcePath:
		b.emitChars(p.Identifier)
		return nil

	case FilesystemSourcePath:
		absolutePath, err := b.resolver.ResolveAbsolute(p)
		if err != nil {
			return err
		}
		pathText, relOK, err := b.resolver.ResolveRelative(p)
		if err != nil {
			return err
		}
		if !relOK {
			pathText = filepath.Base(absolutePath)
		}
		b.emitChars(pathText)
		return nil

	case RuleOutputSourcePath:
		b.emitChars(p.identity())
		return nil

	case ArchiveMemberSourcePath:
		_, relativeMember, err := b.resolver.ResolveArchiveMember(p)
		if err != nil {
			return err
		}
		b.emitChars(relativeMember)
		return nil

	default:
		return newBuildErrorf(codeUnsupportedValue, "unsupported source path shape %T", sp)
	}
}

// classifyArchiveMember implements spec.md §4.D.3: the member's own
// content digest is resolved and contributed alongside its relative path.
func (b *Builder) classifyArchiveMember(sp ArchiveMemberSourcePath) error {
	archiveAbsolutePath, relativeMember, err := b.resolver.ResolveArchiveMember(sp)
	if err != nil {
		return err
	}
	hash, ok := b.oracle.DigestArchiveMember(archiveAbsolutePath, relativeMember)
	if !ok {
		return newBuildErrorf(codeMissingFileHash,
			"no content hash available for archive member %s in %s", relativeMember, archiveAbsolutePath)
	}
	field := b.activeFieldName()
	b.emitChars(relativeMember)
	b.log.AddedArchiveMember(field, archiveAbsolutePath, relativeMember, hash)
	b.emitChars(hash.String())
	return nil
}

// intWidthBytes converts a declared IntWidth to a byte count for
// Sink.AbsorbFixedInt.
func intWidthBytes(w IntWidth) (int, error) {
	switch w {
	case Int8:
		return 1, nil
	case Int16:
		return 2, nil
	case Int32:
		return 4, nil
	case Int64:
		return 8, nil
	default:
		return 0, newBuildErrorf(codeUnsupportedValue, "unsupported integer width %d", w)
	}
}

// floatWidthBytes converts a declared FloatWidth to a byte count for
// Sink.AbsorbFixedFloat.
func floatWidthBytes(w FloatWidth) (int, error) {
	switch w {
	case Float32:
		return 4, nil
	case Float64:
		return 8, nil
	default:
		return 0, newBuildErrorf(codeUnsupportedValue, "unsupported float width %d", w)
	}
}
