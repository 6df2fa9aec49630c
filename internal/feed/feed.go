// Package feed assembles the paginated post feed, blending the two storage
// generations: legacy rows with inline text and pointer rows whose content
// lives in the blob store.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cork-collective/corkd/internal/blob"
	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/storage"
)

//go:generate mockgen -destination=./mock/feed.go -package=mock -source=feed.go

var log = logrus.WithField("package", "feed")

// API assembles feed pages.
type API interface {
	List(ctx context.Context, p Params) (*Feed, error)
	Get(ctx context.Context, id string) (*entities.Post, error)
}

// DefaultLimit ...
const DefaultLimit = 50

// MaxLimit ...
const MaxLimit = 100

// fetchConcurrency bounds parallel aggregator calls per request.
const fetchConcurrency = 8

// Params ...
type Params struct {
	Village *string
	Limit   uint16
	Offset  uint32
}

// Feed is one page of posts, newest first.
type Feed struct {
	Posts []*entities.Post
	// HasMore is a heuristic: true when the index returned a full page. A
	// page that exactly fills the limit reports more even when there is none.
	HasMore bool
}

// Assembler builds feed pages from the index and the blob store.
type Assembler struct {
	s storage.Storage
	f blob.Fetcher
}

// New ...
func New(s storage.Storage, f blob.Fetcher) *Assembler {
	return &Assembler{
		s: s,
		f: f,
	}
}

// List returns one feed page. A pointer post whose blob cannot be resolved is
// dropped from the page instead of failing the request.
func (a *Assembler) List(ctx context.Context, p Params) (*Feed, error) {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}

	rows, err := a.s.ListPosts(ctx, &storage.ListPostsParams{
		Village: p.Village,
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	legacy, pointers := partition(rows)

	resolved, err := a.resolve(ctx, pointers)
	if err != nil {
		return nil, err
	}

	posts := append(legacy, resolved...)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	if len(posts) > int(p.Limit) {
		posts = posts[:p.Limit]
	}

	return &Feed{
		Posts:   posts,
		HasMore: len(rows) == int(p.Limit),
	}, nil
}

// Get returns a single post with its content resolved.
func (a *Assembler) Get(ctx context.Context, id string) (*entities.Post, error) {
	row, err := a.s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !row.IsPointer() {
		return row, nil
	}

	content, err := a.fetchContent(ctx, row.BlobID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve post %s: %w", id, err)
	}

	post, err := normalize(row, content)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// resolve fetches blob content for pointer rows in parallel and joins each
// blob back to its row by blob id. Unresolvable rows are dropped.
func (a *Assembler) resolve(ctx context.Context, rows []*entities.Post) ([]*entities.Post, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	// each goroutine writes to its own slot, nil slots are dropped after
	out := make([]*entities.Post, len(rows))

	gr, ctx := errgroup.WithContext(ctx)
	gr.SetLimit(fetchConcurrency)

	for i, row := range rows {
		i, row := i, row
		gr.Go(func() error {
			content, err := a.fetchContent(ctx, row.BlobID)
			if err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					log.WithField("blob_id", row.BlobID).WithField("post", row.ID).
						Warn("blob not found, dropping post from feed")
					return nil
				}
				return err
			}

			post, err := normalize(row, content)
			if err != nil {
				log.WithError(err).WithField("post", row.ID).Warn("dropping malformed post from feed")
				return nil
			}

			out[i] = post
			return nil
		})
	}

	if err := gr.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve blobs: %w", err)
	}

	posts := make([]*entities.Post, 0, len(out))
	for _, p := range out {
		if p != nil {
			posts = append(posts, p)
		}
	}

	return posts, nil
}

func (a *Assembler) fetchContent(ctx context.Context, blobID string) (*entities.PostContent, error) {
	b, err := a.f.Fetch(ctx, blobID)
	if err != nil {
		return nil, err
	}

	var content entities.PostContent
	if err := json.Unmarshal(b, &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post content: %w", err)
	}

	return &content, nil
}

func partition(rows []*entities.Post) (legacy, pointers []*entities.Post) {
	for _, r := range rows {
		if r.IsPointer() {
			pointers = append(pointers, r)
		} else {
			legacy = append(legacy, r)
		}
	}

	return
}

// normalize joins an index row with its blob content into one post. The row
// and the content must agree on identity.
func normalize(row *entities.Post, content *entities.PostContent) (*entities.Post, error) {
	if content.ID != "" && content.ID != row.ID {
		return nil, fmt.Errorf("blob %s content id %s does not match row %s", row.BlobID, content.ID, row.ID)
	}

	out := *row
	out.Text = content.Text
	out.Activity = content.Activity
	if content.ImageBlobID != "" {
		out.ImageBlobID = content.ImageBlobID
	}

	return &out, nil
}
