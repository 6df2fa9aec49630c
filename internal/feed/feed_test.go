package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cork-collective/corkd/internal/blob"
	blobmock "github.com/cork-collective/corkd/internal/blob/mock"
	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/storage"
	storagemock "github.com/cork-collective/corkd/internal/storage/mock"
)

func contentJSON(t *testing.T, c entities.PostContent) []byte {
	t.Helper()

	b, err := json.Marshal(c)
	require.NoError(t, err)
	return b
}

func TestAssembler_List(t *testing.T) {
	timestamp := time.Unix(1000, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	village := "tuscany"

	s.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Do(func(_ context.Context, p *storage.ListPostsParams) {
		assert.Equal(t, "tuscany", *p.Village)
		assert.EqualValues(t, 10, p.Limit)
		assert.EqualValues(t, 20, p.Offset)
	}).Return([]*entities.Post{
		{
			ID:        "legacy-1",
			Author:    "alice.tuscany",
			Village:   "tuscany",
			PostType:  entities.RegularPostType,
			Text:      "inline text",
			ImageURL:  "https://img/1.png",
			CreatedAt: timestamp.Add(2 * time.Minute),
		},
		{
			ID:        "pointer-1",
			Author:    "bob.tuscany",
			Village:   "tuscany",
			PostType:  entities.RegularPostType,
			BlobID:    "blob-1",
			CreatedAt: timestamp.Add(3 * time.Minute),
		},
		{
			ID:        "legacy-2",
			Author:    "carol.tuscany",
			Village:   "tuscany",
			PostType:  entities.RegularPostType,
			Text:      "older inline text",
			CreatedAt: timestamp,
		},
	}, nil)

	f.EXPECT().Fetch(gomock.Any(), "blob-1").Return(contentJSON(t, entities.PostContent{
		ID:          "pointer-1",
		Author:      "bob.tuscany",
		Village:     "tuscany",
		PostType:    entities.RegularPostType,
		Text:        "blob text",
		ImageBlobID: "img-blob-1",
		CreatedAt:   timestamp.Add(3 * time.Minute),
	}), nil)

	page, err := New(s, f).List(context.Background(), Params{
		Village: &village,
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)

	require.Len(t, page.Posts, 3)
	assert.False(t, page.HasMore)

	// newest first, both generations blended
	assert.Equal(t, "pointer-1", page.Posts[0].ID)
	assert.Equal(t, "blob text", page.Posts[0].Text)
	assert.Equal(t, "img-blob-1", page.Posts[0].ImageBlobID)
	assert.Equal(t, "legacy-1", page.Posts[1].ID)
	assert.Equal(t, "inline text", page.Posts[1].Text)
	assert.Equal(t, "legacy-2", page.Posts[2].ID)
}

func TestAssembler_List_hasMore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Do(func(_ context.Context, p *storage.ListPostsParams) {
		assert.EqualValues(t, 2, p.Limit)
	}).Return([]*entities.Post{
		{ID: "1", Text: "a", CreatedAt: time.Unix(2, 0)},
		{ID: "2", Text: "b", CreatedAt: time.Unix(1, 0)},
	}, nil)

	page, err := New(s, f).List(context.Background(), Params{Limit: 2})
	require.NoError(t, err)

	// a full page reports more even if the next one turns out empty
	assert.True(t, page.HasMore)
	require.Len(t, page.Posts, 2)
}

func TestAssembler_List_dropsUnresolvable(t *testing.T) {
	timestamp := time.Unix(1000, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return([]*entities.Post{
		{ID: "legacy-1", Text: "still here", CreatedAt: timestamp},
		{ID: "pointer-gone", BlobID: "blob-gone", CreatedAt: timestamp.Add(time.Minute)},
		{ID: "pointer-mismatch", BlobID: "blob-mismatch", CreatedAt: timestamp.Add(2 * time.Minute)},
	}, nil)

	f.EXPECT().Fetch(gomock.Any(), "blob-gone").Return(nil, blob.ErrNotFound)
	f.EXPECT().Fetch(gomock.Any(), "blob-mismatch").Return(contentJSON(t, entities.PostContent{
		ID:   "someone-else",
		Text: "stolen content",
	}), nil)

	page, err := New(s, f).List(context.Background(), Params{})
	require.NoError(t, err)

	// both broken pointers dropped, the page itself succeeds
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "legacy-1", page.Posts[0].ID)
}

func TestAssembler_List_fetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return([]*entities.Post{
		{ID: "pointer-1", BlobID: "blob-1", CreatedAt: time.Unix(1, 0)},
	}, nil)

	f.EXPECT().Fetch(gomock.Any(), "blob-1").Return(nil, errors.New("aggregator down"))

	_, err := New(s, f).List(context.Background(), Params{})
	require.Error(t, err)
}

func TestAssembler_Get(t *testing.T) {
	timestamp := time.Unix(1000, 0)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().GetPost(gomock.Any(), "pointer-1").Return(&entities.Post{
		ID:        "pointer-1",
		Author:    "bob.tuscany",
		BlobID:    "blob-1",
		CreatedAt: timestamp,
	}, nil)

	f.EXPECT().Fetch(gomock.Any(), "blob-1").Return(contentJSON(t, entities.PostContent{
		ID:   "pointer-1",
		Text: "blob text",
	}), nil)

	post, err := New(s, f).Get(context.Background(), "pointer-1")
	require.NoError(t, err)
	assert.Equal(t, "blob text", post.Text)
	assert.Equal(t, "bob.tuscany", post.Author)
}

func TestAssembler_Get_legacy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().GetPost(gomock.Any(), "legacy-1").Return(&entities.Post{
		ID:   "legacy-1",
		Text: "inline",
	}, nil)

	post, err := New(s, f).Get(context.Background(), "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "inline", post.Text)
}

func TestAssembler_Get_notFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	f := blobmock.NewMockFetcher(ctrl)

	s.EXPECT().GetPost(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	_, err := New(s, f).Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
