// Package chain contains a client for the chain RPC node.
//
// All writes are move calls executed with the service signer and awaited
// until the node reports the transaction confirmed, so a returned digest is
// always a confirmed one.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/cork-collective/corkd/internal/entities"
)

//go:generate mockgen -destination=./mock/chain.go -package=mock -source=chain.go

var log = logrus.WithField("package", "chain")

// ErrMissingConfig is returned when a required object id is not configured.
// It is surfaced to the caller explicitly instead of failing silently.
var ErrMissingConfig = errors.New("missing chain configuration")

// namespace registration is retried at most this many extra times
const namespaceRetries = 2

// Config holds the node address and the object ids required by move calls.
type Config struct {
	NodeURL    string
	PackageID  string
	RegistryID string
	TreasuryID string

	Timeout time.Duration
}

func (c Config) validate(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case "package":
			v = c.PackageID
		case "registry":
			v = c.RegistryID
		case "treasury":
			v = c.TreasuryID
		}

		if v == "" {
			return fmt.Errorf("%w: %s id is not set", ErrMissingConfig, f)
		}
	}

	return nil
}

// Client is the chain RPC client.
type Client struct {
	http   *resty.Client
	cfg    Config
	signer Signer
}

// API is the subset of chain operations the rest of the service depends on.
type API interface {
	RegisterBlob(ctx context.Context, size int) (string, error)
	CertifyBlob(ctx context.Context, blobID, registerDigest string) (string, error)

	RegisterNamespace(ctx context.Context, name string) (string, string, error)
	MintBottle(ctx context.Context, recipient string, bottle entities.BottleNFT) (string, error)
	MintTokens(ctx context.Context, recipient, denom string, amount int64) (string, error)

	GetBalance(ctx context.Context, address string) (*entities.Balance, error)
	ListBottles(ctx context.Context, address string) ([]*entities.BottleNFT, error)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type executeResult struct {
	Digest    string `json:"digest"`
	Status    string `json:"status"`
	CreatedID string `json:"createdId,omitempty"`
}

type balanceResult struct {
	Cork  int64 `json:"cork"`
	Urban int64 `json:"urban"`
}

type bottleResult struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	Vintage  string `json:"vintage"`
	Origin   string `json:"origin"`
	ImageURL string `json:"imageUrl"`
}

type moveCall struct {
	Target    string        `json:"target"`
	Arguments []interface{} `json:"arguments"`
	Sender    string        `json:"sender"`
	Signature string        `json:"signature"`
}

// New creates a chain client. Object ids are validated lazily per operation
// since not every deployment uses every contract.
func New(cfg Config, signer Signer) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(cfg.NodeURL).SetTimeout(cfg.Timeout),
		cfg:    cfg,
		signer: signer,
	}
}

func (c *Client) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	var envelope struct {
		Result interface{} `json:"result"`
		Error  *rpcError   `json:"error"`
	}
	envelope.Result = out

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(&envelope).
		ForceContentType("application/json").
		Post("/")

	if err != nil {
		return fmt.Errorf("rpc call failed: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("rpc call failed: unexpected status %s", resp.Status())
	}

	if envelope.Error != nil {
		return fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	return nil
}

// execute signs and submits a move call, waiting for its confirmation.
func (c *Client) execute(ctx context.Context, target string, args ...interface{}) (*executeResult, error) {
	call := moveCall{
		Target:    target,
		Arguments: args,
		Sender:    c.signer.Address(),
	}

	sig, err := c.signer.Sign(call)
	if err != nil {
		return nil, fmt.Errorf("failed to sign move call: %w", err)
	}
	call.Signature = sig

	var out executeResult
	if err := c.call(ctx, "cork_executeMoveCall", &out, call); err != nil {
		return nil, err
	}

	if out.Status != "success" {
		return nil, fmt.Errorf("transaction %s failed with status %q", out.Digest, out.Status)
	}

	return &out, nil
}

// RegisterBlob reserves storage space for a blob of the given encoded size.
func (c *Client) RegisterBlob(ctx context.Context, size int) (string, error) {
	if err := c.cfg.validate("package"); err != nil {
		return "", err
	}

	res, err := c.execute(ctx, c.cfg.PackageID+"::storage::register_blob", size)
	if err != nil {
		return "", fmt.Errorf("failed to register blob: %w", err)
	}

	return res.Digest, nil
}

// CertifyBlob finalizes an uploaded blob.
func (c *Client) CertifyBlob(ctx context.Context, blobID, registerDigest string) (string, error) {
	if err := c.cfg.validate("package"); err != nil {
		return "", err
	}

	res, err := c.execute(ctx, c.cfg.PackageID+"::storage::certify_blob", blobID, registerDigest)
	if err != nil {
		return "", fmt.Errorf("failed to certify blob: %w", err)
	}

	return res.Digest, nil
}

// RegisterNamespace registers a username.village identity on-chain and
// returns the namespace object id and the transaction digest. Transient
// node errors are retried with exponential backoff, at most namespaceRetries
// additional attempts.
func (c *Client) RegisterNamespace(ctx context.Context, name string) (string, string, error) {
	if err := c.cfg.validate("package", "registry"); err != nil {
		return "", "", err
	}

	var res *executeResult

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), namespaceRetries)
	err := backoff.RetryNotify(func() error {
		var err error
		res, err = c.execute(ctx, c.cfg.PackageID+"::namespace::register", c.cfg.RegistryID, name)
		if errors.Is(err, ErrMissingConfig) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		log.WithError(err).WithField("retry_in", d).Warn("namespace registration failed")
	})

	if err != nil {
		return "", "", fmt.Errorf("failed to register namespace: %w", err)
	}

	return res.CreatedID, res.Digest, nil
}

// MintBottle mints a bottle NFT with provenance metadata to the recipient.
func (c *Client) MintBottle(ctx context.Context, recipient string, bottle entities.BottleNFT) (string, error) {
	if err := c.cfg.validate("package"); err != nil {
		return "", err
	}

	res, err := c.execute(ctx, c.cfg.PackageID+"::bottle::mint",
		recipient, bottle.Name, bottle.Vintage, bottle.Origin, bottle.ImageURL)
	if err != nil {
		return "", fmt.Errorf("failed to mint bottle: %w", err)
	}

	return res.Digest, nil
}

// MintTokens mints amount of CORK or URBAN to the recipient.
func (c *Client) MintTokens(ctx context.Context, recipient, denom string, amount int64) (string, error) {
	if err := c.cfg.validate("package", "treasury"); err != nil {
		return "", err
	}

	res, err := c.execute(ctx, c.cfg.PackageID+"::token::mint",
		c.cfg.TreasuryID, recipient, denom, amount)
	if err != nil {
		return "", fmt.Errorf("failed to mint tokens: %w", err)
	}

	return res.Digest, nil
}

// GetBalance fetches the live token balances of a wallet.
func (c *Client) GetBalance(ctx context.Context, address string) (*entities.Balance, error) {
	var out balanceResult
	if err := c.call(ctx, "cork_getBalance", &out, address); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &entities.Balance{
		Address: address,
		Cork:    out.Cork,
		Urban:   out.Urban,
	}, nil
}

// ListBottles fetches the bottle NFTs owned by a wallet.
func (c *Client) ListBottles(ctx context.Context, address string) ([]*entities.BottleNFT, error) {
	var out []bottleResult
	if err := c.call(ctx, "cork_listBottles", &out, address); err != nil {
		return nil, fmt.Errorf("failed to list bottles: %w", err)
	}

	bottles := make([]*entities.BottleNFT, len(out))
	for i, v := range out {
		bottles[i] = &entities.BottleNFT{
			ObjectID: v.ObjectID,
			Name:     v.Name,
			Vintage:  v.Vintage,
			Origin:   v.Origin,
			ImageURL: v.ImageURL,
		}
	}

	return bottles, nil
}
