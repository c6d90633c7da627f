package driver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"termkit/internal/codec"
	"termkit/internal/diag"
	"termkit/internal/observ"
	"termkit/internal/source"
	"termkit/internal/term"
	"termkit/internal/trace"
)

// CheckOptions configure Check.
type CheckOptions struct {
	Jobs           int // 0 - GOMAXPROCS
	MaxDiagnostics int // per file
	MaxDepth       int // bracket nesting limit, 0 - codec default

	// Store is the template for the per-file stores. Its Tracer also
	// receives the driver's own spans.
	Store term.Options

	Cache  *DiskCache // nil disables caching
	NoLint bool
	Sink   ProgressSink
	Timer  *observ.Timer
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Bag      *diag.Bag
	Terms    int
	Stats    term.StoreStats // after the final collection
	Checksum Digest          // over the checksums of all terms in order
	Cached   bool
	Elapsed  time.Duration
}

// CheckResult collects the per-file results in input order.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// Diagnostics merges the per-file bags into one sorted bag. A file named
// twice reports its diagnostics once.
func (r *CheckResult) Diagnostics(max int) *diag.Bag {
	out := diag.NewBag(max)
	for i := range r.Files {
		out.Merge(r.Files[i].Bag)
	}
	out.Dedup()
	out.Sort()
	return out
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *CheckResult) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Check parses every term of every file, each file in its own store,
// running up to opts.Jobs files at a time. Directories are expanded to
// their *.trm files. Problems in the files are reported as diagnostics;
// the returned error is only for cancellation.
func Check(ctx context.Context, paths []string, opts CheckOptions) (*CheckResult, error) {
	tracer := opts.Store.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	span := trace.Begin(tracer, trace.ScopeDriver, "check", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	span.WithExtra("files", strconv.Itoa(len(files)))

	fileSet := source.NewFileSet()
	results := make([]FileResult, len(files))
	for i, path := range files {
		results[i] = FileResult{Path: path, Bag: diag.NewBag(max(opts.MaxDiagnostics, 1))}
		emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(files)), 1))
	for i := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			checkFile(fileSet, &results[i], &opts, span.ID())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &CheckResult{FileSet: fileSet, Files: results}, nil
}

func checkFile(fileSet *source.FileSet, res *FileResult, opts *CheckOptions, parent uint64) {
	started := time.Now()
	tracer := opts.Store.Tracer
	span := trace.Begin(tracer, trace.ScopeFile, "file", parent).WithExtra("path", res.Path)
	defer func() {
		res.Elapsed = time.Since(started)
		status := StatusDone
		switch {
		case res.Bag.HasErrors():
			status = StatusError
		case res.Cached:
			status = StatusCached
		}
		emit(opts.Sink, Event{File: res.Path, Status: status, Elapsed: res.Elapsed})
		span.WithExtra("terms", strconv.Itoa(res.Terms)).End(string(status))
	}()

	emit(opts.Sink, Event{File: res.Path, Stage: StageLoad, Status: StatusWorking})
	t0 := time.Now()
	fileID, err := fileSet.Load(res.Path)
	track(opts.Timer, "load", t0)
	if err != nil {
		res.Bag.Add(diag.NewError(diag.IOLoadFileError, err.Error()).WithPath(res.Path))
		return
	}
	res.FileID = fileID
	file := fileSet.Get(fileID)

	key := cacheKey(file.Hash, opts)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err == nil && hit && payload.ContentHash == file.Hash {
			payload.restore(res.Bag, file)
			res.Terms = payload.Terms
			res.Stats = term.StoreStats{Nodes: payload.Nodes, Symbols: payload.Symbols}
			res.Checksum = payload.Checksum
			res.Cached = true
			return
		}
	}

	checkContent(file, res, opts, span.ID())

	if opts.Cache != nil && res.Bag.Dropped() == 0 {
		if err := opts.Cache.Put(key, toPayload(res, file)); err != nil {
			trace.Point(tracer, trace.ScopeFile, "cache-put-failed", err.Error(), span.ID(), nil)
		}
	}
}

// parsedTerm is a top-level term with where it was read.
type parsedTerm struct {
	id     term.ID
	span   source.Span
	quoted []string
}

func checkContent(file *source.File, res *FileResult, opts *CheckOptions, parent uint64) {
	storeOpts := opts.Store
	store := term.NewStore(storeOpts)
	r := codec.NewMemoryReader(store, file.Content, codec.Options{File: file, MaxDepth: opts.MaxDepth})

	emit(opts.Sink, Event{File: res.Path, Stage: StageParse, Status: StatusWorking})
	t0 := time.Now()
	var terms []parsedTerm
	var handles []term.RootHandle
	for {
		id, err := r.ReadTerm()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *codec.ParseError
			if errors.As(err, &pe) {
				res.Bag.Add(pe.Diag)
			} else {
				res.Bag.Add(diag.NewError(diag.IOLoadFileError, err.Error()).WithPath(file.Path))
			}
			// после синтаксической ошибки продолжать чтение бессмысленно
			break
		}
		terms = append(terms, parsedTerm{id: id, span: r.LastSpan(), quoted: r.QuotedNames()})
		handles = append(handles, store.Protect(id))
	}
	track(opts.Timer, "parse", t0)
	res.Terms = len(terms)
	trace.Point(opts.Store.Tracer, trace.ScopeFile, "parsed", strconv.Itoa(len(terms))+" terms", parent, nil)

	emit(opts.Sink, Event{File: res.Path, Stage: StageVerify, Status: StatusWorking})
	t0 = time.Now()
	sum := sha256.New()
	for _, pt := range terms {
		verifyRoundTrip(store, pt, file, res.Bag)
		cs := codec.Checksum(store, pt.id)
		_, _ = sum.Write(cs[:])
	}
	copy(res.Checksum[:], sum.Sum(nil))

	if !opts.NoLint {
		emit(opts.Sink, Event{File: res.Path, Stage: StageLint, Status: StatusWorking})
		lintTerms(store, terms, file, res.Bag)
		if len(terms) == 0 && !res.Bag.HasErrors() {
			res.Bag.Add(diag.New(diag.SevWarning, diag.LntEmptyFile, "file holds no terms").WithPath(file.Path))
		}
	}

	for _, h := range handles {
		store.Unprotect(h)
	}
	// живых корней нет: сборка должна освободить всё, кроме пустого списка
	store.Collect()
	if err := store.Validate(); err != nil {
		res.Bag.Add(diag.NewError(diag.StoInvariant, err.Error()).WithPath(file.Path))
	}
	res.Stats = store.Stats()
	track(opts.Timer, "verify", t0)
}

// verifyRoundTrip re-reads the canonical text of a term into the same
// store; hash consing must give back the same id.
func verifyRoundTrip(store *term.Store, pt parsedTerm, file *source.File, bag *diag.Bag) {
	text := codec.Print(store, pt.id)
	back, err := codec.ParseExact(store, text)
	switch {
	case err != nil:
		bag.Add(diag.NewError(diag.StoRoundTrip, fmt.Sprintf("canonical text does not parse: %v", err)).
			WithPath(file.Path).WithSpan(pt.span))
	case back != pt.id:
		bag.Add(diag.NewError(diag.StoRoundTrip, "canonical text reads back as a different term").
			WithPath(file.Path).WithSpan(pt.span))
	}
}

func track(t *observ.Timer, phase string, since time.Time) {
	if t != nil {
		t.Add(phase, time.Since(since))
	}
}
