// Package client implements the HTTP surface of the claims service: the
// transition operations, record create/read/update and both upload
// protocols. Every failure that leaves this package carries a taxonomy
// code so the presentation layer can render it without string matching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/sony/gobreaker"

	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/changeset"
	"github.com/goliatone/go-claims/lifecycle"
	"github.com/goliatone/go-claims/transition"
	"github.com/goliatone/go-claims/upload"
)

// Client talks to the claims service. It satisfies transition.Service and
// both upload begin/confirm surfaces.
type Client struct {
	base    string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  claims.Logger
}

var (
	_ transition.Service   = (*Client)(nil)
	_ upload.StagingAPI    = (*Client)(nil)
	_ upload.AttachmentAPI = (*Client)(nil)
)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger claims.Logger) Option {
	return func(c *Client) {
		c.logger = claims.NormalizeLogger(logger)
	}
}

// New builds a client from a resolved configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		token:  cfg.Token,
		http:   &http.Client{Timeout: cfg.Timeout.Duration()},
		logger: claims.NormalizeLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "claims-service",
		MaxRequests: cfg.Breaker.HalfOpenMaxSuccesses,
		Timeout:     cfg.Breaker.Timeout.Duration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("breaker %s: %s -> %s", name, from, to)
		},
	})
	return c, nil
}

// --- transition.Service ---

func (c *Client) StartReview(ctx context.Context, claimID string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "start-review", nil)
}

func (c *Client) Submit(ctx context.Context, claimID string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "submit", nil)
}

func (c *Client) ResubmitWithInfo(ctx context.Context, claimID, reason string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "resubmit", &reason)
}

func (c *Client) RequestInfo(ctx context.Context, claimID, reason string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "request-info", &reason)
}

func (c *Client) Return(ctx context.Context, claimID, reason string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "return", &reason)
}

func (c *Client) Settle(ctx context.Context, claimID string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "settle", nil)
}

func (c *Client) Cancel(ctx context.Context, claimID, reason string) (*claims.Projection, error) {
	return c.transition(ctx, claimID, "cancel", &reason)
}

// transition posts one lifecycle operation. The reason key is present in
// the payload exactly when the operation demands one.
func (c *Client) transition(ctx context.Context, claimID, verb string, reason *string) (*claims.Projection, error) {
	var body any
	if reason != nil {
		body = map[string]string{"reason": *reason}
	}
	var out claims.Projection
	path := fmt.Sprintf("/claims/%s/%s", url.PathEscape(claimID), verb)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- records ---

type createPayload struct {
	Fields           changeset.Values `json:"fields"`
	PendingUploadIDs []string         `json:"pending_upload_ids,omitempty"`
}

type updatePayload struct {
	Fields changeset.Values `json:"fields"`
}

// GetClaim fetches one record.
func (c *Client) GetClaim(ctx context.Context, claimID string) (*claims.Claim, error) {
	var out claims.Claim
	if err := c.do(ctx, http.MethodGet, "/claims/"+url.PathEscape(claimID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClaims fetches the status-bearing projections of every visible claim.
func (c *Client) ListClaims(ctx context.Context) ([]claims.Projection, error) {
	var out []claims.Projection
	if err := c.do(ctx, http.MethodGet, "/claims", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClaim creates a record in DRAFT, optionally associating staged
// uploads by their pending identifiers.
func (c *Client) CreateClaim(ctx context.Context, fields changeset.Values, pendingUploadIDs []string) (*claims.Claim, error) {
	var out claims.Claim
	payload := createPayload{Fields: fields, PendingUploadIDs: pendingUploadIDs}
	if err := c.do(ctx, http.MethodPost, "/claims", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClaimWithUploads waits for the staged pipeline to settle and
// creates the record with every collected pending-upload identifier. Any
// failed file blocks creation.
func (c *Client) CreateClaimWithUploads(ctx context.Context, fields changeset.Values, pipeline *upload.Pipeline) (*claims.Claim, error) {
	if pipeline == nil {
		return c.CreateClaim(ctx, fields, nil)
	}
	if err := pipeline.Wait(ctx); err != nil {
		return nil, claims.CloneError(claims.ErrUnknown, "waiting for uploads", err, nil)
	}
	agg := pipeline.Aggregate()
	if agg.HasErrors {
		return nil, claims.CloneError(claims.ErrUnknown, "some attachments failed to upload", nil, nil)
	}
	return c.CreateClaim(ctx, fields, pipeline.SubmissionValues())
}

// SaveClaim diffs the edited draft against the original and patches only
// the changed fields. Edits outside the current status's editable set are
// refused locally; an unchanged draft skips the round trip and returns the
// original record.
func (c *Client) SaveClaim(ctx context.Context, original *claims.Claim, draft changeset.Values) (*claims.Claim, error) {
	if original == nil {
		return nil, claims.CloneError(claims.ErrUnknown, "no original record to diff against", nil, nil)
	}

	diff := changeset.Diff(changeset.FromClaim(original), draft)
	if diff.IsEmpty() {
		return original, nil
	}

	if violations := diff.Disallowed(lifecycle.EditableFields(original.Status)); len(violations) > 0 {
		return nil, claims.CloneError(claims.ErrNotEditable, "", nil, map[string]any{
			claims.MetaFields:     violations,
			claims.MetaFromStatus: original.Status,
		})
	}

	var out claims.Claim
	path := "/claims/" + url.PathEscape(original.ID)
	if err := c.do(ctx, http.MethodPatch, path, updatePayload{Fields: diff}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- upload protocols ---

// BeginStagedUpload announces a pre-creation file and returns the transfer
// target plus a pending-upload identifier.
func (c *Client) BeginStagedUpload(ctx context.Context, spec upload.FileSpec) (*upload.BeginResult, error) {
	var out upload.BeginResult
	if err := c.do(ctx, http.MethodPost, "/uploads/staged", spec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BeginAttachmentUpload announces a file against an existing claim.
func (c *Client) BeginAttachmentUpload(ctx context.Context, claimID string, spec upload.FileSpec) (*upload.BeginResult, error) {
	var out upload.BeginResult
	path := fmt.Sprintf("/claims/%s/files", url.PathEscape(claimID))
	if err := c.do(ctx, http.MethodPost, path, spec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmAttachment finalizes an attachment after its bytes have landed.
func (c *Client) ConfirmAttachment(ctx context.Context, ref upload.UploadRef) error {
	path := fmt.Sprintf("/files/%s/confirm", url.PathEscape(ref.ID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// --- plumbing ---

// do executes one round trip through the circuit breaker. Only transport
// failures count against the breaker; HTTP error statuses are service
// answers and pass through untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return claims.CloneError(claims.ErrUnknown, "encode request payload", err, nil)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return claims.CloneError(claims.ErrUnknown, "build request", err, nil)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return claims.CloneError(claims.ErrNetwork, "claims service suspended after repeated failures", err, nil)
		}
		c.logger.Error("request failed %s %s: %v", method, path, err)
		return claims.CloneError(claims.ErrNetwork, "", err, nil)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return claims.CloneError(claims.ErrNetwork, "read response body", err, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeFailure(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return claims.CloneError(claims.ErrUnknown, "decode response payload", err, nil)
	}
	return nil
}

// errorEnvelope is the structured error body the service responds with.
type errorEnvelope struct {
	Code          string                `json:"code"`
	Message       string                `json:"message"`
	MissingFields []string              `json:"missing_fields,omitempty"`
	FieldErrors   []claims.FieldMessage `json:"field_errors,omitempty"`
	Fields        []string              `json:"fields,omitempty"`
	FromStatus    string                `json:"from_status,omitempty"`
	TargetStatus  string                `json:"target_status,omitempty"`
}

var codeSentinels = map[string]*errors.Error{
	claims.ErrCodeNetwork:           claims.ErrNetwork,
	claims.ErrCodeUnauthorized:      claims.ErrUnauthorized,
	claims.ErrCodeMissingFields:     claims.ErrMissingFields,
	claims.ErrCodeFieldErrors:       claims.ErrFieldErrors,
	claims.ErrCodeNotEditable:       claims.ErrNotEditable,
	claims.ErrCodeInvalidTransition: claims.ErrInvalidTransition,
	claims.ErrCodeUploadLimit:       claims.ErrUploadLimit,
}

// decodeFailure maps an HTTP error response onto the taxonomy. A 401 is
// always a session failure; everything else resolves through the coded
// body when one is present.
func (c *Client) decodeFailure(status int, raw []byte) error {
	if status == http.StatusUnauthorized {
		return claims.CloneError(claims.ErrUnauthorized, "", nil, nil)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Code == "" {
		return claims.CloneError(claims.ErrUnknown,
			fmt.Sprintf("service responded with status %d", status), nil, map[string]any{
				"http_status": status,
			})
	}

	base, ok := codeSentinels[envelope.Code]
	if !ok {
		base = claims.ErrUnknown
	}

	meta := map[string]any{"http_status": status}
	if len(envelope.MissingFields) > 0 {
		meta[claims.MetaMissingFields] = toFields(envelope.MissingFields)
	}
	if len(envelope.FieldErrors) > 0 {
		meta[claims.MetaFieldErrors] = envelope.FieldErrors
	}
	if len(envelope.Fields) > 0 {
		meta[claims.MetaFields] = toFields(envelope.Fields)
	}
	if s, ok := claims.ParseStatus(envelope.FromStatus); ok {
		meta[claims.MetaFromStatus] = s
	}
	if s, ok := claims.ParseStatus(envelope.TargetStatus); ok {
		meta[claims.MetaTargetStatus] = s
	}

	return claims.CloneError(base, envelope.Message, nil, meta)
}

func toFields(names []string) []claims.Field {
	out := make([]claims.Field, 0, len(names))
	for _, name := range names {
		out = append(out, claims.Field(name))
	}
	return out
}
