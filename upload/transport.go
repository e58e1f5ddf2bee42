package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"

	claims "github.com/goliatone/go-claims"
)

// Transport moves the file bytes to the TransferTarget handed out by a
// begin-upload call, reporting progress as a fraction in [0,1].
type Transport interface {
	Send(ctx context.Context, target TransferTarget, spec FileSpec, body io.Reader, progress func(float64)) error
}

// HTTPTransport PUTs the payload to a presigned URL.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport builds a transport over the given client, defaulting to
// http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, target TransferTarget, spec FileSpec, body io.Reader, progress func(float64)) error {
	if target.URL == "" {
		return claims.CloneError(claims.ErrUnknown, "transfer target has no url", nil, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, newProgressReader(body, spec.Size, progress))
	if err != nil {
		return claims.CloneError(claims.ErrUnknown, "build transfer request", err, nil)
	}
	req.ContentLength = spec.Size
	if spec.ContentType != "" {
		req.Header.Set("Content-Type", spec.ContentType)
	}
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return claims.CloneError(claims.ErrNetwork, "file transfer failed", err, nil)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return claims.CloneError(claims.ErrUnknown,
			fmt.Sprintf("file transfer rejected with status %d", resp.StatusCode), nil, nil)
	}
	return nil
}

// progressReader reports consumed bytes against the declared size.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress func(float64)
}

func newProgressReader(r io.Reader, total int64, progress func(float64)) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.progress != nil && p.total > 0 {
		p.read += int64(n)
		frac := float64(p.read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		p.progress(frac)
	}
	return n, err
}
