package upload

import (
	"bytes"
	"context"
	"io"
	"time"
)

// FileStatus is the per-file upload state.
//
// Transitions: pending → uploading → success | error; error → uploading on
// explicit retry; any state → removed on explicit delete (cancelling the
// transfer if in flight).
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileUploading FileStatus = "uploading"
	FileSuccess   FileStatus = "success"
	FileError     FileStatus = "error"
)

// Category tags what kind of document a file is.
type Category string

const (
	CategoryInvoice Category = "invoice"
	CategoryPhoto   Category = "photo"
	CategoryReport  Category = "report"
	CategoryOther   Category = "other"
)

// UploadingFile is the externally visible snapshot of one pipeline entry.
type UploadingFile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Category    Category   `json:"category"`
	Status      FileStatus `json:"status"`
	Progress    float64    `json:"progress"`
	Error       string     `json:"error,omitempty"`
	AddedAt     time.Time  `json:"added_at"`
}

// FileInput describes a file being added to the pipeline. Open is invoked
// once per upload attempt so retries re-read from the source.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromBytes builds a FileInput over an in-memory payload.
func FromBytes(name, contentType string, payload []byte) FileInput {
	return FileInput{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(payload)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		},
	}
}

// fileEntry is the pipeline-internal record. Snapshots handed out through
// the public API are value copies; state changes replace fields under the
// pipeline lock.
type fileEntry struct {
	UploadingFile
	input  FileInput
	ref    *UploadRef
	cancel context.CancelFunc
	// removed marks a deleted entry so a late goroutine result is dropped.
	removed bool
}

func (e *fileEntry) snapshot() UploadingFile {
	return e.UploadingFile
}
