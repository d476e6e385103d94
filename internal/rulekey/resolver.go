package rulekey

import (
	"path/filepath"
	"strings"
)

// PathResolver resolves SourcePath handles to absolute paths,
// workspace-relative paths, and (for rule-output paths) the originating
// rule (spec.md §4.C). It is immutable after construction and safe for
// concurrent use by multiple Builders (spec.md §5).
type PathResolver struct {
	workspaceRoot string
}

// NewPathResolver constructs a PathResolver rooted at workspaceRoot.
// workspaceRoot is made absolute and cleaned so relativization below is
// well-defined regardless of how the caller spelled it.
func NewPathResolver(workspaceRoot string) (*PathResolver, error) {
	abs, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, err
	}
	return &PathResolver{workspaceRoot: filepath.Clean(abs)}, nil
}

// ResolveAbsolute resolves a SourcePath to an absolute filesystem path.
// It is only meaningful for FilesystemSourcePath; callers must route
// RuleOutputSourcePath and ArchiveMemberSourcePath through their own
// branches in classifier.go (spec.md §4.D.1).
func (r *PathResolver) ResolveAbsolute(sp SourcePath) (string, error) {
	fsp, ok := sp.(FilesystemSourcePath)
	if !ok {
		return "", errInternalf("ResolveAbsolute called on non-filesystem SourcePath %T", sp)
	}
	if filepath.IsAbs(fsp.Raw) {
		return filepath.Clean(fsp.Raw), nil
	}
	return filepath.Clean(filepath.Join(r.workspaceRoot, fsp.Raw)), nil
}

// ResolveRelative resolves a SourcePath to a workspace-relative path. ok
// is false when relativization is impossible (the path falls outside the
// workspace root) — per spec.md I4, the caller then falls back to the
// absolute path's filename.
func (r *PathResolver) ResolveRelative(sp SourcePath) (relPath string, ok bool, err error) {
	abs, err := r.ResolveAbsolute(sp)
	if err != nil {
		return "", false, err
	}
	rel, err := filepath.Rel(r.workspaceRoot, abs)
	if err != nil {
		return "", false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false, nil
	}
	return filepath.ToSlash(rel), true, nil
}

// OwningRule returns the BuildRule that produces sp, if sp is a
// RuleOutputSourcePath; absent for any other SourcePath variant.
func (r *PathResolver) OwningRule(sp SourcePath) (*BuildRule, bool) {
	rop, ok := sp.(RuleOutputSourcePath)
	if !ok || rop.Rule == nil {
		return nil, false
	}
	return rop.Rule, true
}

// ResolveArchiveMember validates and returns the archive-member path
// pair. Both ArchiveAbsolutePath and MemberRelativePath must already
// satisfy their absolute/relative invariants — a path that violates them
// is rejected, never rewritten into a valid one, because that is a
// programmer error (spec.md §4.C, InvalidArchiveMemberPaths). Paths that
// pass are returned cleaned, the member path with forward slashes.
func (r *PathResolver) ResolveArchiveMember(sp ArchiveMemberSourcePath) (absoluteArchive, relativeMember string, err error) {
	if !filepath.IsAbs(sp.ArchiveAbsolutePath) {
		return "", "", newBuildError(codeInvalidArchiveMember,
			"archive-member source path's archive path must be absolute: "+sp.ArchiveAbsolutePath)
	}
	if filepath.IsAbs(sp.MemberRelativePath) {
		return "", "", newBuildError(codeInvalidArchiveMember,
			"archive-member source path's member path must be relative: "+sp.MemberRelativePath)
	}
	return filepath.Clean(sp.ArchiveAbsolutePath), filepath.ToSlash(filepath.Clean(sp.MemberRelativePath)), nil
}
