package upload

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	claims "github.com/goliatone/go-claims"
)

// ObjectStoreTransport writes payloads straight into an S3-compatible
// bucket when the backend hands out bucket/object targets instead of
// presigned URLs.
type ObjectStoreTransport struct {
	client *minio.Client
}

// NewObjectStoreTransport connects to the object store endpoint.
func NewObjectStoreTransport(endpoint, accessKey, secretKey string, useSSL bool) (*ObjectStoreTransport, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, claims.CloneError(claims.ErrNetwork, "connect object store", err, nil)
	}
	return &ObjectStoreTransport{client: client}, nil
}

func (t *ObjectStoreTransport) Send(ctx context.Context, target TransferTarget, spec FileSpec, body io.Reader, progress func(float64)) error {
	if target.Bucket == "" || target.Object == "" {
		return claims.CloneError(claims.ErrUnknown, "transfer target has no bucket/object", nil, nil)
	}
	_, err := t.client.PutObject(ctx, target.Bucket, target.Object,
		newProgressReader(body, spec.Size, progress), spec.Size,
		minio.PutObjectOptions{ContentType: spec.ContentType},
	)
	if err != nil {
		return claims.CloneError(claims.ErrNetwork, "object store transfer failed", err, nil)
	}
	return nil
}
