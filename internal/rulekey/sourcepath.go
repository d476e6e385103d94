package rulekey

import "fmt"

// SourcePath is the polymorphic handle to a file input (spec.md §3).
// It is sealed to the four variants below: a workspace/absolute
// filesystem location, a rule-produced output, an archive member, or an
// opaque resource identifier (used only under NonHashingSourcePathValue).
type SourcePath interface {
	isSourcePath()
}

type sealedSourcePath struct{}

func (sealedSourcePath) isSourcePath() {}

// FilesystemSourcePath is an absolute or workspace-relative filesystem
// location. Which it is, is determined by the PathResolver, not by this
// type: a FilesystemSourcePath simply carries whatever path string the
// caller constructed it with.
type FilesystemSourcePath struct {
	sealedSourcePath
	// Raw is the path as the caller supplied it (absolute or relative to
	// the workspace root).
	Raw string
}

// NewFilesystemSourcePath constructs a FilesystemSourcePath.
func NewFilesystemSourcePath(raw string) FilesystemSourcePath {
	return FilesystemSourcePath{Raw: raw}
}

// RuleOutputSourcePath identifies a file produced by another rule's
// build step. Its content is never resolved directly; the owning rule's
// RuleKey is resolved and contributed instead (spec.md §4.D.1 step 2).
type RuleOutputSourcePath struct {
	sealedSourcePath
	Target BuildTarget
	Rule   *BuildRule
	// OutputPath is the path relative to the owning rule's output
	// directory, used only for the textual identity absorbed before the
	// rule's own RuleKey.
	OutputPath string
}

// NewRuleOutputSourcePath constructs a RuleOutputSourcePath.
func NewRuleOutputSourcePath(rule *BuildRule, outputPath string) RuleOutputSourcePath {
	return RuleOutputSourcePath{Target: rule.Target, Rule: rule, OutputPath: outputPath}
}

// identity is the textual identity absorbed for a rule-output source path
// before its owning rule's RuleKey (spec.md §4.D.1 step 2).
func (p RuleOutputSourcePath) identity() string {
	return fmt.Sprintf("%s#%s", p.Target.FullyQualifiedName(), p.OutputPath)
}

// ResourceSourcePath is an opaque resource identifier, valid only under
// NonHashingSourcePathValue (spec.md §3, §4.D.2).
type ResourceSourcePath struct {
	sealedSourcePath
	Identifier string
}

// NewResourceSourcePath constructs a ResourceSourcePath.
func NewResourceSourcePath(identifier string) ResourceSourcePath {
	return ResourceSourcePath{Identifier: identifier}
}

// ArchiveMemberSourcePath is a containing archive path plus an inner
// member path (spec.md §3, §4.D.3). It doubles as both a SourcePath
// variant and a standalone top-level Value variant
// (ArchiveMemberSourcePathValue in value.go); InvalidArchiveMemberPaths
// fires whenever the absolute/relative invariants below are violated.
type ArchiveMemberSourcePath struct {
	sealedSourcePath
	// ArchiveAbsolutePath is the absolute path to the containing archive.
	ArchiveAbsolutePath string
	// MemberRelativePath is the member's path within the archive,
	// relative to the archive root.
	MemberRelativePath string
}

// NewArchiveMemberSourcePath constructs an ArchiveMemberSourcePath.
func NewArchiveMemberSourcePath(archiveAbsolutePath, memberRelativePath string) ArchiveMemberSourcePath {
	return ArchiveMemberSourcePath{
		ArchiveAbsolutePath: archiveAbsolutePath,
		MemberRelativePath:  memberRelativePath,
	}
}

// BuildTarget is a canonicalized fully-qualified rule name: a namespace,
// a name, and an ordered flavor set (spec.md §3). Identity is the
// fully-qualified string.
type BuildTarget struct {
	Namespace string
	Name      string
	// Flavors must already be in the target's declared total order;
	// BuildTarget does not sort them (collection-ordering invariants are
	// the caller's responsibility throughout this package, per I3).
	Flavors []string
}

// NewBuildTarget constructs a BuildTarget.
func NewBuildTarget(namespace, name string, flavors ...string) BuildTarget {
	return BuildTarget{Namespace: namespace, Name: name, Flavors: flavors}
}

// FullyQualifiedName renders the target's canonical identity string,
// "//namespace:name#flavor1,flavor2".
func (t BuildTarget) FullyQualifiedName() string {
	s := fmt.Sprintf("//%s:%s", t.Namespace, t.Name)
	for i, f := range t.Flavors {
		if i == 0 {
			s += "#"
		} else {
			s += ","
		}
		s += f
	}
	return s
}

// String implements fmt.Stringer.
func (t BuildTarget) String() string { return t.FullyQualifiedName() }
