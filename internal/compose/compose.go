// Package compose creates posts: content goes to the blob store through the
// upload sequence, then a lightweight index row is written to the database.
package compose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cork-collective/corkd/internal/blob"
	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/storage"
	"github.com/cork-collective/corkd/internal/telemetry"
)

//go:generate mockgen -destination=./mock/compose.go -package=mock -source=compose.go

// Service creates posts.
type Service interface {
	CreatePost(ctx context.Context, p Params) (*entities.Post, error)
}

// MaxTextLen bounds post text.
const MaxTextLen = 280

// reward amounts, in CORK units
const (
	rewardShortText = 10
	rewardLongText  = 20
	rewardImage     = 5
	longTextLen     = 100
)

// ErrInvalidPost is returned for validation failures. The wrapped message
// names the offending field.
var ErrInvalidPost = errors.New("invalid post")

// Uploader runs the blob store write sequence.
type Uploader interface {
	Run(ctx context.Context, content []byte) (*blob.Upload, error)
}

// Params describes a post to create.
type Params struct {
	Author   string
	Village  string
	Text     string
	Image    []byte
	PostType entities.PostType
	Activity *entities.ActivityData
}

// Composer builds posts out of user content.
type Composer struct {
	s        storage.Storage
	uploader Uploader
	tl       *telemetry.Logger
	now      func() time.Time
}

// New ...
func New(s storage.Storage, uploader Uploader, tl *telemetry.Logger) *Composer {
	return &Composer{
		s:        s,
		uploader: uploader,
		tl:       tl,
		now:      time.Now,
	}
}

// WithClock overrides the composer's clock.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// CreatePost runs the whole pipeline: image blob (when present), then the
// post JSON blob, then the index row, then a best-effort transaction log
// entry. Any blob or index failure aborts the attempt; blobs already
// certified in earlier phases are not rolled back.
func (c *Composer) CreatePost(ctx context.Context, p Params) (*entities.Post, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	if p.PostType == "" {
		p.PostType = entities.RegularPostType
	}

	post := &entities.Post{
		ID:        uuid.NewString(),
		Author:    p.Author,
		Village:   p.Village,
		PostType:  p.PostType,
		Activity:  p.Activity,
		Reward:    Reward(p.Text, len(p.Image) > 0),
		CreatedAt: c.now().UTC(),
	}

	if len(p.Image) > 0 {
		up, err := c.uploader.Run(ctx, p.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		post.ImageBlobID = up.BlobID
	}

	content := entities.PostContent{
		ID:          post.ID,
		Author:      post.Author,
		Village:     post.Village,
		PostType:    post.PostType,
		Text:        p.Text,
		ImageBlobID: post.ImageBlobID,
		Activity:    post.Activity,
		CreatedAt:   post.CreatedAt,
	}

	body, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post content: %w", err)
	}

	up, err := c.uploader.Run(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload post content: %w", err)
	}
	post.BlobID = up.BlobID

	if err := c.s.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to index post: %w", err)
	}

	c.tl.Log(entities.Transaction{
		Address: post.Author,
		Type:    "create-post",
		Status:  entities.SuccessTransactionStatus,
		Digest:  up.CertifyDigest,
	})

	// the view model carries the content inline
	post.Text = p.Text

	return post, nil
}

// Reward computes the CORK reward for a post.
func Reward(text string, hasImage bool) int64 {
	var r int64 = rewardShortText
	if utf8.RuneCountInString(text) > longTextLen {
		r = rewardLongText
	}

	if hasImage {
		r += rewardImage
	}

	return r
}

func validate(p Params) error {
	if p.Author == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidPost)
	}

	if p.Village == "" {
		return fmt.Errorf("%w: village is required", ErrInvalidPost)
	}

	if p.Text == "" && len(p.Image) == 0 {
		return fmt.Errorf("%w: text or image is required", ErrInvalidPost)
	}

	if utf8.RuneCountInString(p.Text) > MaxTextLen {
		return fmt.Errorf("%w: text is longer than %d characters", ErrInvalidPost, MaxTextLen)
	}

	if p.PostType != "" && !p.PostType.Valid() {
		return fmt.Errorf("%w: unknown post type %q", ErrInvalidPost, p.PostType)
	}

	return nil
}
