// Package blob contains a client for the walrus blob store.
//
// Reads are plain HTTP GETs against an aggregator. Writes go through the
// publisher and require a register/certify transaction pair on-chain, see
// Uploader.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=./mock/client.go -package=mock -source=client.go

var log = logrus.WithField("package", "blob")

// ErrNotFound is returned when the aggregator does not know the blob.
var ErrNotFound = errors.New("blob not found")

// Fetcher reads blob content from the aggregator.
type Fetcher interface {
	Fetch(ctx context.Context, blobID string) ([]byte, error)
}

// Client talks to a walrus aggregator (reads) and publisher (writes).
type Client struct {
	aggregator *resty.Client
	publisher  *resty.Client
}

type uploadResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// NewClient creates a client for the given aggregator and publisher base URLs,
// e.g. https://aggregator.walrus-testnet.walrus.space.
func NewClient(aggregatorURL, publisherURL string, timeout time.Duration) *Client {
	return &Client{
		aggregator: resty.New().SetBaseURL(aggregatorURL).SetTimeout(timeout),
		publisher:  resty.New().SetBaseURL(publisherURL).SetTimeout(timeout),
	}
}

// Fetch downloads blob content by id.
func (c *Client) Fetch(ctx context.Context, blobID string) ([]byte, error) {
	resp, err := c.aggregator.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/%s", blobID))

	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch blob: unexpected status %s", resp.Status())
	}

	return resp.Body(), nil
}

// Put pushes encoded bytes to the publisher's storage nodes. The register
// transaction must already be confirmed; its digest is passed along so the
// nodes can find the reserved space. Returns the blob id.
func (c *Client) Put(ctx context.Context, body []byte, registerDigest string) (string, error) {
	var out uploadResponse

	resp, err := c.publisher.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetQueryParam("registerDigest", registerDigest).
		SetBody(body).
		SetResult(&out).
		Put("/v1/store")

	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("failed to upload blob: unexpected status %s", resp.Status())
	}

	switch {
	case out.NewlyCreated != nil:
		return out.NewlyCreated.BlobObject.BlobID, nil
	case out.AlreadyCertified != nil:
		log.WithField("blob_id", out.AlreadyCertified.BlobID).Debug("blob already certified")
		return out.AlreadyCertified.BlobID, nil
	default:
		return "", errors.New("failed to upload blob: malformed publisher response")
	}
}
