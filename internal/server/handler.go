package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/cork-collective/corkd/internal/chain"
	"github.com/cork-collective/corkd/internal/compose"
	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/feed"
	"github.com/cork-collective/corkd/internal/storage"
)

var errInvalidRequest = errors.New("invalid request")

var usernameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,19}$`)

func (s server) listPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts Community ListPosts
	//
	// Return a feed page, newest first, blending legacy and blob-backed posts.
	//
	// ---
	// parameters:
	// - name: village
	//   description: filters posts by village
	//   in: query
	//   required: false
	// - name: limit
	//   in: query
	//   required: false
	//   default: 50
	//   maximum: 100
	// - name: offset
	//   in: query
	//   required: false
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/ListPostsResponse"
	//   '400':
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     schema:
	//       "$ref": "#/definitions/Error"

	params, err := extractFeedParamsFromQuery(r.URL.Query())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.feed.List(r.Context(), *params)
	if err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to list posts: %s", err.Error())
		return
	}

	WriteOK(w, http.StatusOK, newListPostsResponse(f))
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Community CreatePost
	//
	// Create a post. Content is written to the blob store first, then indexed.
	//
	// ---
	// responses:
	//   '201':
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '400':
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '503':
	//     description: chain configuration missing
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req struct {
		Author   string                 `json:"author"`
		Village  string                 `json:"village"`
		Text     string                 `json:"text"`
		Image    string                 `json:"image"`
		PostType string                 `json:"postType"`
		Activity *entities.ActivityData `json:"activityData"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	var image []byte
	if req.Image != "" {
		var err error
		if image, err = base64.StdEncoding.DecodeString(req.Image); err != nil {
			WriteError(w, http.StatusBadRequest, "image is not valid base64")
			return
		}
	}

	post, err := s.composer.CreatePost(r.Context(), compose.Params{
		Author:   req.Author,
		Village:  req.Village,
		Text:     req.Text,
		Image:    image,
		PostType: entities.PostType(req.PostType),
		Activity: req.Activity,
	})

	if err != nil {
		switch {
		case errors.Is(err, compose.ErrInvalidPost):
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chain.ErrMissingConfig):
			WriteError(w, http.StatusServiceUnavailable, err.Error())
		default:
			WriteInternalErrorf(r.Context(), w, "failed to create post: %s", err.Error())
		}
		return
	}

	WriteOK(w, http.StatusCreated, toAPIPost(post))
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	post, err := s.feed.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "post not found")
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to get post: %s", err.Error())
		return
	}

	WriteOK(w, http.StatusOK, toAPIPost(post))
}

func (s server) likePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.s.LikePost(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "post not found")
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to like post: %s", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) getProfile(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		WriteError(w, http.StatusBadRequest, "invalid address")
		return
	}

	profile, err := s.profiles.Get(r.Context(), address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "profile not found")
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to get profile: %s", err.Error())
		return
	}

	WriteOK(w, http.StatusOK, toAPIProfile(profile))
}

func (s server) setProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address      string `json:"address"`
		Username     string `json:"username"`
		Village      string `json:"village"`
		AvatarBlobID string `json:"avatarBlobId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if req.Address == "" {
		WriteError(w, http.StatusBadRequest, "address is required")
		return
	}

	if !usernameRegexp.MatchString(req.Username) {
		WriteError(w, http.StatusBadRequest, "invalid username")
		return
	}

	if _, err := s.s.GetVillage(r.Context(), req.Village); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusBadRequest, "unknown village")
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to get village: %s", err.Error())
		return
	}

	profile := &entities.Profile{
		Address:      req.Address,
		Username:     req.Username,
		Village:      req.Village,
		AvatarBlobID: req.AvatarBlobID,
	}

	// keep the existing namespace registration and creation time, the address
	// is immutable
	if err := s.s.InTx(r.Context(), func(tx storage.Storage) error {
		switch existing, err := tx.GetProfile(r.Context(), req.Address); {
		case err == nil:
			profile.NamespaceID = existing.NamespaceID
			profile.CreatedAt = existing.CreatedAt
		case errors.Is(err, storage.ErrNotFound):
			profile.CreatedAt = time.Now().UTC()
		default:
			return err
		}

		return tx.SetProfile(r.Context(), profile)
	}); err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to set profile: %s", err.Error())
		return
	}

	s.profiles.Invalidate(req.Address)

	WriteOK(w, http.StatusOK, toAPIProfile(profile))
}

func (s server) listVillages(w http.ResponseWriter, r *http.Request) {
	villages, err := s.s.ListVillages(r.Context())
	if err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to list villages: %s", err.Error())
		return
	}

	out := make([]*Village, len(villages))
	for i, v := range villages {
		out[i] = toAPIVillage(v)
	}

	WriteOK(w, http.StatusOK, out)
}

func (s server) getVillage(w http.ResponseWriter, r *http.Request) {
	village, err := s.s.GetVillage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "village not found")
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to get village: %s", err.Error())
		return
	}

	WriteOK(w, http.StatusOK, toAPIVillage(village))
}

func (s server) getBalances(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		WriteError(w, http.StatusBadRequest, "invalid address")
		return
	}

	balance, err := s.balances.Get(r.Context(), address)
	if err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to get balance: %s", err.Error())
		return
	}

	WriteOK(w, http.StatusOK, Balance{
		Address: balance.Address,
		Cork:    balance.Cork,
		Urban:   balance.Urban,
	})
}

func (s server) listNFTs(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		WriteError(w, http.StatusBadRequest, "invalid address")
		return
	}

	bottles, err := s.bottles.Get(r.Context(), address)
	if err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to list nfts: %s", err.Error())
		return
	}

	out := make([]*BottleNFT, len(bottles))
	for i, b := range bottles {
		out[i] = &BottleNFT{
			ObjectID: b.ObjectID,
			Name:     b.Name,
			Vintage:  b.Vintage,
			Origin:   b.Origin,
			ImageURL: b.ImageURL,
		}
	}

	WriteOK(w, http.StatusOK, out)
}

func (s server) listTransactions(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		WriteError(w, http.StatusBadRequest, "invalid address")
		return
	}

	txs, err := s.txs.Get(r.Context(), address)
	if err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to list transactions: %s", err.Error())
		return
	}

	out := make([]*Transaction, len(txs))
	for i, t := range txs {
		out[i] = toAPITransaction(t)
	}

	WriteOK(w, http.StatusOK, out)
}

func (s server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
		Type    string `json:"type"`
		Status  string `json:"status"`
		Digest  string `json:"digest"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if req.Address == "" || req.Type == "" {
		WriteError(w, http.StatusBadRequest, "address and type are required")
		return
	}

	status := entities.TransactionStatus(req.Status)
	if status == "" {
		status = entities.PendingTransactionStatus
	}

	// best effort, the write happens off the request path
	s.tl.Log(entities.Transaction{
		Address: req.Address,
		Type:    req.Type,
		Status:  status,
		Digest:  req.Digest,
	})

	w.WriteHeader(http.StatusAccepted)
}

func (s server) registerNamespace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address  string `json:"address"`
		Username string `json:"username"`
		Village  string `json:"village"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if req.Address == "" {
		WriteError(w, http.StatusBadRequest, "address is required")
		return
	}

	if !usernameRegexp.MatchString(req.Username) {
		WriteError(w, http.StatusBadRequest, "invalid username")
		return
	}

	if req.Village == "" {
		WriteError(w, http.StatusBadRequest, "village is required")
		return
	}

	name := fmt.Sprintf("%s.%s", req.Username, req.Village)

	namespaceID, digest, err := s.chain.RegisterNamespace(r.Context(), name)
	if err != nil {
		if errors.Is(err, chain.ErrMissingConfig) {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to register namespace: %s", err.Error())
		return
	}

	if err := s.s.InTx(r.Context(), func(tx storage.Storage) error {
		profile, err := tx.GetProfile(r.Context(), req.Address)
		if err != nil {
			// a wallet may register a namespace before creating a profile
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		}

		profile.NamespaceID = namespaceID

		return tx.SetProfile(r.Context(), profile)
	}); err != nil {
		WriteInternalErrorf(r.Context(), w, "failed to save namespace id: %s", err.Error())
		return
	}
	s.profiles.Invalidate(req.Address)

	s.tl.Log(entities.Transaction{
		Address: req.Address,
		Type:    "register-namespace",
		Status:  entities.SuccessTransactionStatus,
		Digest:  digest,
	})

	WriteOK(w, http.StatusOK, struct {
		NamespaceID string `json:"namespaceId"`
		Digest      string `json:"digest"`
	}{NamespaceID: namespaceID, Digest: digest})
}

func (s server) mintBottle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string `json:"recipient"`
		Name      string `json:"name"`
		Vintage   string `json:"vintage"`
		Origin    string `json:"origin"`
		ImageURL  string `json:"imageUrl"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if req.Recipient == "" || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "recipient and name are required")
		return
	}

	digest, err := s.chain.MintBottle(r.Context(), req.Recipient, entities.BottleNFT{
		Name:     req.Name,
		Vintage:  req.Vintage,
		Origin:   req.Origin,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, chain.ErrMissingConfig) {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to mint bottle: %s", err.Error())
		return
	}

	// the holdings changed, refetch on next read
	s.bottles.Invalidate(req.Recipient)
	s.balances.Invalidate(req.Recipient)

	s.tl.Log(entities.Transaction{
		Address: req.Recipient,
		Type:    "mint-bottle",
		Status:  entities.SuccessTransactionStatus,
		Digest:  digest,
	})

	WriteOK(w, http.StatusOK, struct {
		Digest string `json:"digest"`
	}{Digest: digest})
}

func (s server) mintTokens(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string `json:"recipient"`
		Denom     string `json:"denom"`
		Amount    int64  `json:"amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "failed to decode json")
		return
	}

	if req.Recipient == "" {
		WriteError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	if req.Amount <= 0 {
		WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	switch req.Denom {
	case "":
		req.Denom = "CORK"
	case "CORK", "URBAN":
	default:
		WriteError(w, http.StatusBadRequest, "unknown denom")
		return
	}

	digest, err := s.chain.MintTokens(r.Context(), req.Recipient, req.Denom, req.Amount)
	if err != nil {
		if errors.Is(err, chain.ErrMissingConfig) {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		WriteInternalErrorf(r.Context(), w, "failed to mint tokens: %s", err.Error())
		return
	}

	s.balances.Invalidate(req.Recipient)

	s.tl.Log(entities.Transaction{
		Address: req.Recipient,
		Type:    "mint-tokens",
		Status:  entities.SuccessTransactionStatus,
		Digest:  digest,
	})

	WriteOK(w, http.StatusOK, struct {
		Digest string `json:"digest"`
	}{Digest: digest})
}

func (s server) resetCaches(w http.ResponseWriter, r *http.Request) {
	s.caches.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func extractFeedParamsFromQuery(q url.Values) (*feed.Params, error) {
	out := feed.Params{
		Limit: feed.DefaultLimit,
	}

	if s := q.Get("village"); s != "" {
		out.Village = &s
	}

	if s := q.Get("limit"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse limit", errInvalidRequest)
		}

		if v == 0 || v > feed.MaxLimit {
			return nil, fmt.Errorf("%w: limit is out of range", errInvalidRequest)
		}

		out.Limit = uint16(v)
	}

	if s := q.Get("offset"); s != "" {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse offset", errInvalidRequest)
		}

		out.Offset = uint32(v)
	}

	return &out, nil
}

func newListPostsResponse(f *feed.Feed) ListPostsResponse {
	out := ListPostsResponse{
		Posts:   make([]*Post, len(f.Posts)),
		HasMore: f.HasMore,
	}

	for i, p := range f.Posts {
		out.Posts[i] = toAPIPost(p)
	}

	return out
}

func toAPIPost(p *entities.Post) *Post {
	if p == nil {
		return nil
	}

	return &Post{
		ID:          p.ID,
		Author:      p.Author,
		Village:     p.Village,
		PostType:    string(p.PostType),
		Text:        p.Text,
		ImageURL:    p.ImageURL,
		BlobID:      p.BlobID,
		ImageBlobID: p.ImageBlobID,
		Activity:    p.Activity,
		Reward:      p.Reward,
		Likes:       p.Likes,
		Comments:    p.Comments,
		CreatedAt:   p.CreatedAt.Unix(),
	}
}

func toAPIProfile(p *entities.Profile) *Profile {
	if p == nil {
		return nil
	}

	return &Profile{
		Address:      p.Address,
		Username:     p.Username,
		Village:      p.Village,
		AvatarBlobID: p.AvatarBlobID,
		NamespaceID:  p.NamespaceID,
		CreatedAt:    p.CreatedAt.Unix(),
	}
}

func toAPIVillage(v *entities.Village) *Village {
	return &Village{
		ID:           v.ID,
		Name:         v.Name,
		Country:      v.Country,
		ResourceType: v.ResourceType,
		MemberCount:  v.MemberCount,
		Treasury:     v.Treasury,
	}
}

func toAPITransaction(t *entities.Transaction) *Transaction {
	return &Transaction{
		ID:        t.ID,
		Address:   t.Address,
		Type:      t.Type,
		Status:    string(t.Status),
		Digest:    t.Digest,
		CreatedAt: t.CreatedAt.Unix(),
	}
}
