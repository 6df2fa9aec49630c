package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

//go:generate mockgen -destination=./mock/uploader.go -package=mock -source=uploader.go

// Phase is a step of the upload sequence.
type Phase string

const (
	// EncodingPhase ...
	EncodingPhase Phase = "encoding"
	// RegisteringPhase ...
	RegisteringPhase Phase = "registering"
	// UploadingPhase ...
	UploadingPhase Phase = "uploading"
	// CertifyingPhase ...
	CertifyingPhase Phase = "certifying"
	// DonePhase ...
	DonePhase Phase = "done"
	// FailedPhase ...
	FailedPhase Phase = "failed"
)

// Chain reserves and certifies blob space on-chain. Both calls block until
// their transaction is confirmed and return its digest.
type Chain interface {
	RegisterBlob(ctx context.Context, size int) (string, error)
	CertifyBlob(ctx context.Context, blobID, registerDigest string) (string, error)
}

// Publisher pushes encoded bytes to storage nodes.
type Publisher interface {
	Put(ctx context.Context, body []byte, registerDigest string) (string, error)
}

// PhaseError wraps an error with the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("upload failed at %s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Uploader runs the write sequence against the blob store:
// encode -> register -> upload -> certify. The phases of one blob are
// strictly sequential; independent blobs may each run the sequence.
type Uploader struct {
	chain     Chain
	publisher Publisher

	uploadMaxElapsed time.Duration
}

// Upload is the progress of a single blob through the sequence.
type Upload struct {
	Phase          Phase
	BlobID         string
	RegisterDigest string
	CertifyDigest  string
	Size           int

	body []byte
}

// NewUploader ...
func NewUploader(chain Chain, publisher Publisher, uploadMaxElapsed time.Duration) *Uploader {
	return &Uploader{
		chain:            chain,
		publisher:        publisher,
		uploadMaxElapsed: uploadMaxElapsed,
	}
}

// Run takes raw content through the whole sequence and returns the final
// state. On error the returned state carries the phase that failed; state
// already committed in earlier phases is not rolled back.
func (u *Uploader) Run(ctx context.Context, content []byte) (*Upload, error) {
	up := &Upload{Phase: EncodingPhase}

	for up.Phase != DonePhase {
		if err := ctx.Err(); err != nil {
			up.Phase = FailedPhase
			return up, err
		}

		if err := u.step(ctx, up, content); err != nil {
			phase := up.Phase
			up.Phase = FailedPhase
			return up, &PhaseError{Phase: phase, Err: err}
		}
	}

	return up, nil
}

func (u *Uploader) step(ctx context.Context, up *Upload, content []byte) error {
	switch up.Phase {
	case EncodingPhase:
		body, err := encode(content)
		if err != nil {
			return err
		}
		up.body = body
		up.Size = len(body)
		up.Phase = RegisteringPhase

	case RegisteringPhase:
		digest, err := u.chain.RegisterBlob(ctx, up.Size)
		if err != nil {
			return err
		}
		up.RegisterDigest = digest
		up.Phase = UploadingPhase

	case UploadingPhase:
		// storage nodes may lag behind the register confirmation
		err := backoff.Retry(func() error {
			blobID, err := u.publisher.Put(ctx, up.body, up.RegisterDigest)
			if err != nil {
				return err
			}
			up.BlobID = blobID
			return nil
		}, backoff.WithContext(newBackOff(u.uploadMaxElapsed), ctx))
		if err != nil {
			return err
		}
		up.Phase = CertifyingPhase

	case CertifyingPhase:
		digest, err := u.chain.CertifyBlob(ctx, up.BlobID, up.RegisterDigest)
		if err != nil {
			return err
		}
		up.CertifyDigest = digest
		up.body = nil
		up.Phase = DonePhase

	default:
		return fmt.Errorf("unexpected phase %s", up.Phase)
	}

	return nil
}

// encode produces the store's native representation. Walrus erasure-codes
// content on the storage nodes; the client-side representation is the raw
// bytes, validated for emptiness.
func encode(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty content")
	}

	return content, nil
}

func newBackOff(maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return b
}
