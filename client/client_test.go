package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/changeset"
	"github.com/goliatone/go-claims/upload"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
	server   *httptest.Server
}

func newFakeServer(t *testing.T, handler http.HandlerFunc) *fakeServer {
	t.Helper()
	fs := &fakeServer{handler: handler}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(raw) > 0 {
			json.Unmarshal(raw, &body)
		}
		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		fs.mu.Unlock()
		if fs.handler != nil {
			fs.handler(w, r)
		}
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeServer) recorded() []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]recordedRequest, len(fs.requests))
	copy(out, fs.requests)
	return out
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Token = "token-123"
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func writeProjection(w http.ResponseWriter, id string, status claims.Status) {
	json.NewEncoder(w).Encode(claims.Projection{ID: id, Status: status, UpdatedAt: time.Now().UTC()})
}

func TestTransitionWithReasonPostsReasonKey(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeProjection(w, "c1", claims.StatusPendingInfo)
	})
	c := newTestClient(t, fs.server.URL)

	proj, err := c.RequestInfo(context.Background(), "c1", "need the police report")
	require.NoError(t, err)
	assert.Equal(t, claims.StatusPendingInfo, proj.Status)

	reqs := fs.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/claims/c1/request-info", reqs[0].Path)
	assert.Equal(t, "need the police report", reqs[0].Body["reason"])
}

func TestTransitionWithoutReasonSendsNoBody(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeProjection(w, "c1", claims.StatusInReview)
	})
	c := newTestClient(t, fs.server.URL)

	_, err := c.StartReview(context.Background(), "c1")
	require.NoError(t, err)

	reqs := fs.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/claims/c1/start-review", reqs[0].Path)
	assert.Nil(t, reqs[0].Body)
}

func TestUnauthorizedMapsToSessionError(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, fs.server.URL)

	_, err := c.Submit(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, claims.IsCode(err, claims.ErrCodeUnauthorized))
}

func TestCodedEnvelopeCarriesMetadata(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"code":          claims.ErrCodeMissingFields,
			"message":       "claim is not ready for review",
			"missing_fields": []string{"policy_number", "incident_date"},
			"target_status": "IN_REVIEW",
		})
	})
	c := newTestClient(t, fs.server.URL)

	_, err := c.StartReview(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, claims.IsCode(err, claims.ErrCodeMissingFields))

	meta := claims.ErrorMetadata(err)
	assert.Equal(t, []claims.Field{claims.FieldPolicyNumber, claims.FieldIncidentDate}, meta[claims.MetaMissingFields])
	assert.Equal(t, claims.StatusInReview, meta[claims.MetaTargetStatus])

	display := claims.Display(err)
	require.Len(t, display.Items, 2)
	assert.Equal(t, "Policy number", display.Items[0].Label)
}

func TestTransportFailureMapsToNetwork(t *testing.T) {
	fs := newFakeServer(t, nil)
	fs.server.Close()
	c := newTestClient(t, fs.server.URL)

	_, err := c.Submit(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, claims.IsCode(err, claims.ErrCodeNetwork))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fs := newFakeServer(t, nil)
	fs.server.Close()
	c := newTestClient(t, fs.server.URL)

	for i := 0; i < 3; i++ {
		_, err := c.Submit(context.Background(), "c1")
		require.Error(t, err)
	}

	_, err := c.Submit(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, claims.IsCode(err, claims.ErrCodeNetwork))
	// The open circuit rejects before dialing, so no further requests land.
	assert.Empty(t, fs.recorded())
}

func TestSaveClaimPatchesOnlyTheDiff(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claims.Claim{ID: "c1", Status: claims.StatusDraft})
	})
	c := newTestClient(t, fs.server.URL)

	original := &claims.Claim{
		ID:     "c1",
		Status: claims.StatusDraft,
		Fields: map[claims.Field]any{
			claims.FieldClaimantName: "Ada Smith",
			claims.FieldPolicyNumber: "P-100",
		},
	}
	draft := changeset.FromClaim(original)
	draft[claims.FieldPolicyNumber] = "P-200"

	_, err := c.SaveClaim(context.Background(), original, draft)
	require.NoError(t, err)

	reqs := fs.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/claims/c1", reqs[0].Path)
	fields := reqs[0].Body["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"policy_number": "P-200"}, fields)
}

func TestSaveClaimSkipsRoundTripWhenUnchanged(t *testing.T) {
	fs := newFakeServer(t, nil)
	c := newTestClient(t, fs.server.URL)

	original := &claims.Claim{
		ID:     "c1",
		Status: claims.StatusDraft,
		Fields: map[claims.Field]any{claims.FieldClaimantName: "Ada Smith"},
	}

	got, err := c.SaveClaim(context.Background(), original, changeset.FromClaim(original))
	require.NoError(t, err)
	assert.Same(t, original, got)
	assert.Empty(t, fs.recorded())
}

func TestSaveClaimRefusesLockedFieldsLocally(t *testing.T) {
	fs := newFakeServer(t, nil)
	c := newTestClient(t, fs.server.URL)

	// In DRAFT only the core fields are editable; settled_amount is not.
	original := &claims.Claim{ID: "c1", Status: claims.StatusDraft, Fields: map[claims.Field]any{}}
	draft := changeset.Values{claims.FieldSettledAmount: 1200.50}

	_, err := c.SaveClaim(context.Background(), original, draft)
	require.Error(t, err)
	assert.True(t, claims.IsCode(err, claims.ErrCodeNotEditable))
	assert.Empty(t, fs.recorded(), "violation is caught before the wire")

	meta := claims.ErrorMetadata(err)
	assert.Contains(t, meta[claims.MetaFields], claims.FieldSettledAmount)
}

func TestCreateClaimWithStagedUploads(t *testing.T) {
	var fs *fakeServer
	fs = newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/uploads/staged":
			json.NewEncoder(w).Encode(upload.BeginResult{
				Target: upload.TransferTarget{URL: fs.server.URL + "/put/blob"},
				Ref:    upload.UploadRef{ID: "pending-abc"},
			})
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/claims":
			json.NewEncoder(w).Encode(claims.Claim{ID: "c9", Status: claims.StatusDraft})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, fs.server.URL)

	pipeline := upload.NewPipeline(upload.NewStagedAdapter(c), upload.NewHTTPTransport(nil))
	t.Cleanup(pipeline.Close)

	_, err := pipeline.Add(context.Background(), upload.FromBytes("receipt.pdf", "application/pdf", []byte("bytes")))
	require.NoError(t, err)

	created, err := c.CreateClaimWithUploads(context.Background(), changeset.Values{
		claims.FieldClaimantName: "Ada Smith",
	}, pipeline)
	require.NoError(t, err)
	assert.Equal(t, "c9", created.ID)

	var create recordedRequest
	for _, req := range fs.recorded() {
		if req.Method == http.MethodPost && req.Path == "/claims" {
			create = req
		}
	}
	require.NotNil(t, create.Body)
	assert.Equal(t, []any{"pending-abc"}, create.Body["pending_upload_ids"])
}

func TestConfirmAttachmentPostsConfirm(t *testing.T) {
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, fs.server.URL)

	require.NoError(t, c.ConfirmAttachment(context.Background(), upload.UploadRef{ID: "f-1"}))
	reqs := fs.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/files/f-1/confirm", reqs[0].Path)
}
