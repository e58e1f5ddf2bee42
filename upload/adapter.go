package upload

import (
	"context"

	claims "github.com/goliatone/go-claims"
)

// FileSpec is the file description posted to the begin-upload endpoints.
type FileSpec struct {
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Size        int64    `json:"size"`
	Category    Category `json:"category"`
}

// TransferTarget tells the transport where the bytes go. Exactly one of
// URL or Bucket/Object is populated, depending on what the backend hands
// out.
type TransferTarget struct {
	URL     string            `json:"url,omitempty"`
	Bucket  string            `json:"bucket,omitempty"`
	Object  string            `json:"object,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// UploadRef is the opaque server-side handle for a begun upload: a pending
// upload identifier for staged files, a durable file identifier for
// attachments.
type UploadRef struct {
	ID string `json:"id"`
}

// BeginResult is what a begin-upload call returns.
type BeginResult struct {
	Target TransferTarget `json:"target"`
	Ref    UploadRef      `json:"ref"`
}

// Adapter is the pluggable upload protocol driven by the Pipeline. Two
// wirings exist: staged (pre-creation, no confirm step) and attachment
// (post-creation, confirm mandatory before success).
type Adapter interface {
	// Begin announces the file to the backend and returns where to put the
	// bytes plus the opaque handle.
	Begin(ctx context.Context, spec FileSpec) (*BeginResult, error)
	// Confirm finalizes the upload. Staged adapters treat it as a no-op.
	Confirm(ctx context.Context, ref UploadRef) error
	// SubmissionValue yields the value collected into the record payload.
	SubmissionValue(ref UploadRef) string
}

// StagingAPI is the remote surface behind the pre-creation protocol.
type StagingAPI interface {
	BeginStagedUpload(ctx context.Context, spec FileSpec) (*BeginResult, error)
}

// AttachmentAPI is the remote surface behind the post-creation protocol.
type AttachmentAPI interface {
	BeginAttachmentUpload(ctx context.Context, claimID string, spec FileSpec) (*BeginResult, error)
	ConfirmAttachment(ctx context.Context, ref UploadRef) error
}

// StagedAdapter stages files before the claim exists: the backend parks
// the upload under a pending identifier and associates it when the record
// is created with the collected identifier list.
type StagedAdapter struct {
	api StagingAPI
}

// NewStagedAdapter wires the pre-creation protocol.
func NewStagedAdapter(api StagingAPI) *StagedAdapter {
	return &StagedAdapter{api: api}
}

func (a *StagedAdapter) Begin(ctx context.Context, spec FileSpec) (*BeginResult, error) {
	return a.api.BeginStagedUpload(ctx, spec)
}

// Confirm is absent from the staged protocol; association happens at
// record creation.
func (a *StagedAdapter) Confirm(context.Context, UploadRef) error {
	return nil
}

func (a *StagedAdapter) SubmissionValue(ref UploadRef) string {
	return ref.ID
}

// AttachmentAdapter uploads against an already-persisted claim; the
// confirm round trip finalizes the attachment record and must succeed
// before a file counts as uploaded.
type AttachmentAdapter struct {
	api     AttachmentAPI
	claimID string
}

// NewAttachmentAdapter wires the post-creation protocol for one claim.
func NewAttachmentAdapter(api AttachmentAPI, claimID string) *AttachmentAdapter {
	return &AttachmentAdapter{api: api, claimID: claimID}
}

func (a *AttachmentAdapter) Begin(ctx context.Context, spec FileSpec) (*BeginResult, error) {
	if a.claimID == "" {
		return nil, claims.CloneError(claims.ErrUnknown, "attachment adapter requires a claim id", nil, nil)
	}
	return a.api.BeginAttachmentUpload(ctx, a.claimID, spec)
}

func (a *AttachmentAdapter) Confirm(ctx context.Context, ref UploadRef) error {
	return a.api.ConfirmAttachment(ctx, ref)
}

func (a *AttachmentAdapter) SubmissionValue(ref UploadRef) string {
	return ref.ID
}
