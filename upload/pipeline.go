package upload

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	claims "github.com/goliatone/go-claims"
)

// DefaultMaxFiles caps how many files one pipeline manages.
const DefaultMaxFiles = 20

// Aggregate is the readiness summary recomputed on every file-state change.
type Aggregate struct {
	Count        int
	IsUploading  bool
	HasErrors    bool
	AllCompleted bool
	CanAddMore   bool
}

// Pipeline drives 0..N independent file uploads to completion. Files
// upload concurrently with no ordering between them; the composing form
// observes the aggregate signals and gates record creation on Wait.
//
// The pipeline lives as long as the composing form: Close it when the form
// is dismissed or the record has been created.
type Pipeline struct {
	adapter   Adapter
	transport Transport
	logger    claims.Logger
	limiter   *rate.Limiter
	maxFiles  int

	mu       sync.Mutex
	category Category
	entries  []*fileEntry
	index    map[string]*fileEntry
	waitCh   chan struct{}
	closed   bool
	observer func(Aggregate)

	wg sync.WaitGroup
}

// PipelineOption customizes pipeline behavior.
type PipelineOption func(*Pipeline)

// WithMaxFiles overrides the file cap.
func WithMaxFiles(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxFiles = n
		}
	}
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(logger claims.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = claims.NormalizeLogger(logger)
	}
}

// WithObserver registers a callback invoked with the recomputed aggregate
// after every file-state change.
func WithObserver(fn func(Aggregate)) PipelineOption {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithAddLimit throttles how fast files can enter the pipeline.
func WithAddLimit(limit rate.Limit, burst int) PipelineOption {
	return func(p *Pipeline) {
		p.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithCategory sets the initially selected category tag.
func WithCategory(c Category) PipelineOption {
	return func(p *Pipeline) {
		p.category = c
	}
}

// NewPipeline builds a pipeline over the given protocol adapter and byte
// transport.
func NewPipeline(adapter Adapter, transport Transport, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		adapter:   adapter,
		transport: transport,
		logger:    claims.NormalizeLogger(nil),
		limiter:   rate.NewLimiter(rate.Limit(20), 20),
		maxFiles:  DefaultMaxFiles,
		category:  CategoryOther,
		index:     make(map[string]*fileEntry),
		waitCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// SetCategory selects the category newly added files are tagged with.
func (p *Pipeline) SetCategory(c Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.category = c
}

// Category returns the currently selected category.
func (p *Pipeline) Category() Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category
}

// Add enters a file into the pipeline. The file starts in pending, is
// tagged with the current category and is immediately driven to uploading
// by its own goroutine. Returns the file id.
func (p *Pipeline) Add(ctx context.Context, input FileInput) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", claims.CloneError(claims.ErrUnknown, "add cancelled", err, nil)
		}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", claims.CloneError(claims.ErrUnknown, "pipeline is closed", nil, nil)
	}
	if len(p.entries) >= p.maxFiles {
		p.mu.Unlock()
		return "", claims.CloneError(claims.ErrUploadLimit, "", nil, map[string]any{
			"max_files": p.maxFiles,
		})
	}

	entry := &fileEntry{
		UploadingFile: UploadingFile{
			ID:          uuid.NewString(),
			Name:        input.Name,
			ContentType: input.ContentType,
			Size:        input.Size,
			Category:    p.category,
			Status:      FilePending,
			AddedAt:     time.Now().UTC(),
		},
		input: input,
	}
	fileCtx, cancel := context.WithCancel(context.Background())
	entry.cancel = cancel
	p.entries = append(p.entries, entry)
	p.index[entry.ID] = entry
	p.wg.Add(1)
	p.mu.Unlock()
	p.notify()

	go p.run(fileCtx, entry)
	return entry.ID, nil
}

// Retry re-drives a failed upload. Only files in error may retry.
func (p *Pipeline) Retry(id string) error {
	p.mu.Lock()
	entry, ok := p.index[id]
	if !ok {
		p.mu.Unlock()
		return claims.CloneError(claims.ErrUnknown, "unknown file id", nil, map[string]any{"file_id": id})
	}
	if entry.Status != FileError {
		status := entry.Status
		p.mu.Unlock()
		return claims.CloneError(claims.ErrInvalidTransition, "retry is only allowed from error", nil, map[string]any{
			"file_id":     id,
			"file_status": status,
		})
	}
	entry.Status = FileUploading
	entry.Progress = 0
	entry.Error = ""
	entry.ref = nil
	fileCtx, cancel := context.WithCancel(context.Background())
	entry.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()
	p.notify()

	go p.run(fileCtx, entry)
	return nil
}

// Remove deletes a file from the pipeline in any state, cancelling the
// underlying transfer if one is in flight. The aggregate reflects the
// removal immediately.
func (p *Pipeline) Remove(id string) {
	p.mu.Lock()
	entry, ok := p.index[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	entry.removed = true
	if entry.cancel != nil {
		entry.cancel()
	}
	delete(p.index, id)
	for i, e := range p.entries {
		if e.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	p.notify()
}

// Files returns snapshots of every entry in insertion order.
func (p *Pipeline) Files() []UploadingFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]UploadingFile, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.snapshot())
	}
	return out
}

// File returns the snapshot for one id.
func (p *Pipeline) File(id string) (UploadingFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.index[id]
	if !ok {
		return UploadingFile{}, false
	}
	return entry.snapshot(), true
}

// Aggregate folds the current file list into the readiness summary.
func (p *Pipeline) Aggregate() Aggregate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aggregateLocked()
}

// IsUploading reports whether at least one file is mid-transfer.
func (p *Pipeline) IsUploading() bool { return p.Aggregate().IsUploading }

// HasErrors reports whether at least one file failed.
func (p *Pipeline) HasErrors() bool { return p.Aggregate().HasErrors }

// AllCompleted reports whether the list is non-empty and every file
// succeeded. This is the signal record creation gates on.
func (p *Pipeline) AllCompleted() bool { return p.Aggregate().AllCompleted }

// CanAddMore reports whether the file cap leaves room.
func (p *Pipeline) CanAddMore() bool { return p.Aggregate().CanAddMore }

// SubmissionValues collects the per-file submission values of every
// succeeded upload, in insertion order. For the staged adapter these are
// the pending-upload identifiers sent with the create payload.
func (p *Pipeline) SubmissionValues() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.entries {
		if e.Status == FileSuccess && e.ref != nil {
			out = append(out, p.adapter.SubmissionValue(*e.ref))
		}
	}
	return out
}

// Wait blocks until no file is pending or uploading, or ctx is done. It
// does not imply success: check HasErrors / AllCompleted afterwards.
func (p *Pipeline) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		active := false
		for _, e := range p.entries {
			if e.Status == FilePending || e.Status == FileUploading {
				active = true
				break
			}
		}
		ch := p.waitCh
		p.mu.Unlock()

		if !active {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Expire removes failed entries older than maxAge and returns how many
// were dropped. The janitor runs this so an abandoned compose form does
// not accumulate dead staged uploads.
func (p *Pipeline) Expire(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	p.mu.Lock()
	var expired []string
	for _, e := range p.entries {
		if e.Status == FileError && e.AddedAt.Before(cutoff) {
			expired = append(expired, e.ID)
		}
	}
	p.mu.Unlock()
	for _, id := range expired {
		p.Remove(id)
	}
	return len(expired)
}

// Close cancels every in-flight transfer and waits for the workers to
// drain. The pipeline rejects further adds.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	for _, e := range p.entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// run drives one file through begin → transfer → confirm.
func (p *Pipeline) run(ctx context.Context, entry *fileEntry) {
	defer p.wg.Done()

	err := p.attempt(ctx, entry)

	p.mu.Lock()
	if entry.removed {
		p.mu.Unlock()
		return
	}
	if err != nil {
		entry.Status = FileError
		entry.Error = failureMessage(err)
	} else {
		entry.Status = FileSuccess
		entry.Progress = 1
		entry.Error = ""
	}
	p.mu.Unlock()
	p.notify()

	if err != nil {
		p.logger.Warn("upload failed file=%s name=%s: %v", entry.ID, entry.Name, err)
	} else {
		p.logger.Debug("upload completed file=%s name=%s", entry.ID, entry.Name)
	}
}

func (p *Pipeline) attempt(ctx context.Context, entry *fileEntry) error {
	p.mu.Lock()
	entry.Status = FileUploading
	entry.Progress = 0
	spec := FileSpec{
		Name:        entry.Name,
		ContentType: entry.ContentType,
		Size:        entry.Size,
		Category:    entry.Category,
	}
	p.mu.Unlock()
	p.notify()

	begin, err := p.adapter.Begin(ctx, spec)
	if err != nil {
		return err
	}

	p.mu.Lock()
	entry.ref = &begin.Ref
	p.mu.Unlock()

	body, err := entry.input.Open()
	if err != nil {
		return claims.CloneError(claims.ErrUnknown, "open file payload", err, nil)
	}
	defer body.Close()

	if err := p.transport.Send(ctx, begin.Target, spec, body, func(frac float64) {
		p.setProgress(entry, frac)
	}); err != nil {
		return err
	}

	// The post-creation protocol requires the confirm round trip before
	// the file may count as uploaded.
	return p.adapter.Confirm(ctx, begin.Ref)
}

func (p *Pipeline) setProgress(entry *fileEntry, frac float64) {
	p.mu.Lock()
	if entry.removed || entry.Status != FileUploading {
		p.mu.Unlock()
		return
	}
	entry.Progress = frac
	p.mu.Unlock()
	p.notify()
}

func (p *Pipeline) aggregateLocked() Aggregate {
	agg := Aggregate{Count: len(p.entries)}
	completed := len(p.entries) > 0
	for _, e := range p.entries {
		switch e.Status {
		case FileUploading, FilePending:
			agg.IsUploading = true
			completed = false
		case FileError:
			agg.HasErrors = true
			completed = false
		}
	}
	agg.AllCompleted = completed
	agg.CanAddMore = len(p.entries) < p.maxFiles
	return agg
}

// notify wakes Wait callers and fans the fresh aggregate to the observer.
func (p *Pipeline) notify() {
	p.mu.Lock()
	close(p.waitCh)
	p.waitCh = make(chan struct{})
	observer := p.observer
	agg := p.aggregateLocked()
	p.mu.Unlock()

	if observer != nil {
		observer(agg)
	}
}

func failureMessage(err error) string {
	if display := claims.Display(err); display != nil {
		if display.Description != "" {
			return display.Description
		}
		return display.Title
	}
	return err.Error()
}
