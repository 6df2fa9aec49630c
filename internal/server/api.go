package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/cork-collective/corkd/internal/entities"
)

// Error ...
type Error struct {
	Error string `json:"error"`
}

// ListPostsResponse is one page of the feed.
type ListPostsResponse struct {
	Posts   []*Post `json:"posts"`
	HasMore bool    `json:"hasMore"`
}

// Post ...
type Post struct {
	ID          string                 `json:"id"`
	Author      string                 `json:"author"`
	Village     string                 `json:"village"`
	PostType    string                 `json:"postType"`
	Text        string                 `json:"text"`
	ImageURL    string                 `json:"imageUrl,omitempty"`
	BlobID      string                 `json:"blobId,omitempty"`
	ImageBlobID string                 `json:"imageBlobId,omitempty"`
	Activity    *entities.ActivityData `json:"activityData,omitempty"`
	Reward      int64                  `json:"reward"`
	Likes       uint32                 `json:"likes"`
	Comments    uint32                 `json:"comments"`
	CreatedAt   int64                  `json:"createdAt"`
}

// Profile ...
type Profile struct {
	Address      string `json:"address"`
	Username     string `json:"username"`
	Village      string `json:"village"`
	AvatarBlobID string `json:"avatarBlobId,omitempty"`
	NamespaceID  string `json:"namespaceId,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
}

// Village ...
type Village struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	ResourceType string `json:"resourceType"`
	MemberCount  uint32 `json:"memberCount"`
	Treasury     int64  `json:"treasury"`
}

// Transaction ...
type Transaction struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Balance ...
type Balance struct {
	Address string `json:"address"`
	Cork    int64  `json:"cork"`
	Urban   int64  `json:"urban"`
}

// BottleNFT ...
type BottleNFT struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	Vintage  string `json:"vintage"`
	Origin   string `json:"origin"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// WriteOK writes json body with the given status.
func WriteOK(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// WriteError writes an error body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteOK(w, status, Error{Error: message})
}

// WriteInternalErrorf logs the diagnostic message and responds with a 500
// carrying it.
func WriteInternalErrorf(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	logrus.Error(message)
	WriteError(w, http.StatusInternalServerError, message)
}
