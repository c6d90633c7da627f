package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"termkit/internal/diag"
	"termkit/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// DiskCache хранит результаты проверки файлов по хешу содержимого.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedNote is a diag.Note without its file id.
type CachedNote struct {
	Start, End uint32
	HasSpan    bool
	Msg        string
}

// CachedDiagnostic is a diag.Diagnostic whose spans refer to the file the
// payload was computed for.
type CachedDiagnostic struct {
	Severity  uint8
	Code      uint16
	Message   string
	HasSpan   bool
	Start     uint32
	End       uint32
	Line, Col uint32
	Context   string
	Notes     []CachedNote
}

// DiskPayload is the cached outcome of checking one file.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path        string
	ContentHash Digest
	Terms       int
	Nodes       int
	Symbols     int
	Checksum    Digest

	Diagnostics []CachedDiagnostic
}

// OpenDiskCache opens (creating if needed) a cache rooted at dir. An
// empty dir selects $XDG_CACHE_HOME/termkit or ~/.cache/termkit.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "termkit")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "checks", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после Rename файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. Payloads
// written with another schema are reported as a miss.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// cacheKey mixes the content hash with every option that changes the
// outcome of a check.
func cacheKey(content Digest, opts *CheckOptions) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	var buf [8]byte
	for _, v := range []int{opts.Store.MaxSymbolLen, opts.MaxDepth, boolInt(opts.Store.KeepUnusedSymbols), boolInt(opts.NoLint)} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toPayload(res *FileResult, file *source.File) *DiskPayload {
	p := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        res.Path,
		ContentHash: file.Hash,
		Terms:       res.Terms,
		Nodes:       res.Stats.Nodes,
		Symbols:     res.Stats.Symbols,
		Checksum:    res.Checksum,
	}
	for _, d := range res.Bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			HasSpan:  d.HasSpan,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Line:     d.Pos.Line,
			Col:      d.Pos.Col,
			Context:  d.Context,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, HasSpan: n.Span != (source.Span{}), Msg: n.Msg})
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// restore rebuilds the diagnostics of a payload against file.
func (p *DiskPayload) restore(bag *diag.Bag, file *source.File) {
	for _, cd := range p.Diagnostics {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), cd.Message).
			WithPath(file.Path).
			WithPos(source.LineCol{Line: cd.Line, Col: cd.Col}, cd.Context)
		if cd.HasSpan {
			d = d.WithSpan(source.Span{File: file.ID, Start: cd.Start, End: cd.End})
		}
		for _, n := range cd.Notes {
			var sp source.Span
			if n.HasSpan {
				sp = source.Span{File: file.ID, Start: n.Start, End: n.End}
			}
			d = d.WithNote(sp, n.Msg)
		}
		bag.Add(d)
	}
}
