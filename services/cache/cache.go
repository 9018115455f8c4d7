package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotFound reports a cache miss. Callers distinguish it from other read
// failures because only a miss is allowed to trigger a write-through.
var ErrNotFound = errors.New("cache entry not found")

// Kind names the artifact type a cache entry belongs to. Each kind gets its
// own subdirectory so keys from different artifact types never collide.
type Kind string

const (
	// KindEpisodeList caches the raw episode-list payload of one series.
	KindEpisodeList Kind = "episode-list"
)

// Gateway is a keyed read/write-through file cache. It has no knowledge of
// episode semantics; keys are derived deterministically from an artifact
// kind and an identifier.
type Gateway struct {
	fs  afero.Fs
	dir string
}

// New creates a gateway storing entries under the provided directory on the
// real filesystem.
func New(dir string) *Gateway {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs creates a gateway on an arbitrary filesystem, used by tests.
func NewWithFs(fsys afero.Fs, dir string) *Gateway {
	return &Gateway{fs: fsys, dir: dir}
}

// EntryPath resolves the storage location for an artifact. The mapping is
// pure: the same (kind, id) pair always resolves to the same path.
func (g *Gateway) EntryPath(kind Kind, id string) string {
	return filepath.Join(g.dir, string(kind), id+".json")
}

// Read returns the cached payload for the artifact. A miss satisfies
// errors.Is(err, ErrNotFound); any other error is an IO failure on an
// existing (possibly corrupt or locked) entry.
func (g *Gateway) Read(kind Kind, id string) ([]byte, error) {
	path := g.EntryPath(kind, id)
	data, err := afero.ReadFile(g.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s %s: %w", kind, id, err)
	}
	return data, nil
}

// Write stores the payload for the artifact. The cache is an optimization,
// not the source of truth, so failures are logged and swallowed.
func (g *Gateway) Write(kind Kind, id string, payload []byte) {
	path := g.EntryPath(kind, id)
	if err := g.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[cache] failed to create dir for %s %s: %v", kind, id, err)
		return
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(g.fs, tmp, payload, 0o644); err != nil {
		log.Printf("[cache] failed to write %s %s: %v", kind, id, err)
		return
	}
	if err := g.fs.Rename(tmp, path); err != nil {
		_ = g.fs.Remove(tmp)
		log.Printf("[cache] failed to replace %s %s: %v", kind, id, err)
	}
}
