package rulekey

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileHashOracle maps an absolute file path (or archive-member path) to
// the content digest of that file (spec.md §4.B). It is the sole
// authority on file content identity for the duration of a build: once an
// entry is computed it is referentially transparent until explicitly
// invalidated between builds (internal/watch is the only caller allowed
// to do that).
type FileHashOracle interface {
	// Digest returns the content digest of the file at absolutePath, or
	// ok=false if the oracle has no entry for it (spec.md §4.B,
	// "Missing entries are fatal" is the caller's responsibility to
	// enforce — see classifier.go).
	Digest(absolutePath string) (Sha1HashCode, bool)
	// DigestArchiveMember returns the content digest of a member inside
	// an archive.
	DigestArchiveMember(archiveAbsolutePath, memberRelativePath string) (Sha1HashCode, bool)
}

// cacheKey identifies one oracle cache entry.
type cacheKey struct {
	archive string // empty for a plain file
	member  string // the file path itself when archive == ""
}

// CachingOracle is a FileHashOracle backed by a thread-safe, read-mostly
// cache (spec.md §5: "shared, internally synchronized, read-mostly
// cache"). Entries are computed lazily on first access and held for the
// CachingOracle's lifetime, mirroring the teacher's
// internal/digest.Calculator chunked-read approach (oracle.go's
// hashFile), generalized into a cache rather than a one-shot calculator.
type CachingOracle struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry

	bufPool sync.Pool
}

type cacheEntry struct {
	hash Sha1HashCode
	ok   bool
}

// NewCachingOracle creates an empty CachingOracle.
func NewCachingOracle() *CachingOracle {
	return &CachingOracle{
		entries: make(map[cacheKey]cacheEntry),
		bufPool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 32*1024)
				return &buf
			},
		},
	}
}

// Digest implements FileHashOracle.
func (o *CachingOracle) Digest(absolutePath string) (Sha1HashCode, bool) {
	key := cacheKey{member: absolutePath}
	return o.lookupOrCompute(key, func() (Sha1HashCode, bool) {
		return o.hashFile(absolutePath)
	})
}

// DigestArchiveMember implements FileHashOracle.
func (o *CachingOracle) DigestArchiveMember(archiveAbsolutePath, memberRelativePath string) (Sha1HashCode, bool) {
	key := cacheKey{archive: archiveAbsolutePath, member: memberRelativePath}
	return o.lookupOrCompute(key, func() (Sha1HashCode, bool) {
		return o.hashArchiveMember(archiveAbsolutePath, memberRelativePath)
	})
}

func (o *CachingOracle) lookupOrCompute(key cacheKey, compute func() (Sha1HashCode, bool)) (Sha1HashCode, bool) {
	o.mu.RLock()
	entry, found := o.entries[key]
	o.mu.RUnlock()
	if found {
		return entry.hash, entry.ok
	}

	hash, ok := compute()

	o.mu.Lock()
	o.entries[key] = cacheEntry{hash: hash, ok: ok}
	o.mu.Unlock()

	return hash, ok
}

// Invalidate drops a cached entry for absolutePath, forcing the next
// Digest call to recompute it. Used only between builds by
// internal/watch — never during a single rule-key computation, preserving
// the "immutable for the duration of a build" guarantee (spec.md §3, §5).
func (o *CachingOracle) Invalidate(absolutePath string) {
	o.mu.Lock()
	delete(o.entries, cacheKey{member: absolutePath})
	o.mu.Unlock()
}

func (o *CachingOracle) hashFile(absolutePath string) (Sha1HashCode, bool) {
	f, err := os.Open(absolutePath)
	if err != nil {
		return Sha1HashCode{}, false
	}
	defer f.Close()

	sink := NewSink()
	bufPtr := o.bufPool.Get().(*[]byte)
	defer o.bufPool.Put(bufPtr)
	buf := *bufPtr

	for {
		n, err := f.Read(buf)
		if n > 0 {
			sink.AbsorbBytes(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Sha1HashCode{}, false
		}
	}
	return Sha1HashCode(sink.Finalize()), true
}

// hashArchiveMember hashes a member inside a filesystem archive. Archives
// in this module are represented as plain directories standing in for an
// extracted archive root (the core never needs to understand an archive
// container format — spec.md's data model only cares about the member's
// content digest). A caller backing ArchiveMemberSourcePath with a real
// archive format (zip, jar, tar) adapts it to this same directory-rooted
// convention before handing paths to the oracle.
func (o *CachingOracle) hashArchiveMember(archiveAbsolutePath, memberRelativePath string) (Sha1HashCode, bool) {
	return o.hashFile(filepath.Join(archiveAbsolutePath, filepath.FromSlash(memberRelativePath)))
}
