// Package entities contains main entities of service.
package entities

import (
	"time"
)

// PostType tags a post with the action that produced it.
type PostType string

const (
	// RegularPostType is a plain text/image post.
	RegularPostType PostType = "regular"
	// PurchasePostType is emitted when a bottle is bought in the shop.
	PurchasePostType PostType = "purchase"
	// GiftBottlePostType is emitted when a bottle NFT is gifted to a friend.
	GiftBottlePostType PostType = "gift-bottle"
	// SendTokensPostType is emitted when tokens are sent to a friend.
	SendTokensPostType PostType = "send-tokens"
)

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	switch t {
	case RegularPostType, PurchasePostType, GiftBottlePostType, SendTokensPostType:
		return true
	}
	return false
}

// ActivityData is the structured payload attached to non-regular posts.
type ActivityData struct {
	Recipient string `json:"recipient,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	ItemName  string `json:"itemName,omitempty"`
	ItemImage string `json:"itemImage,omitempty"`
}

// Post is an index row of the feed. Exactly one content representation is
// set: BlobID points to post content in the blob store (current generation),
// otherwise Text/ImageURL hold the content inline (legacy generation).
type Post struct {
	ID          string
	Author      string // namespace, username.village
	Village     string
	PostType    PostType
	Text        string
	ImageURL    string
	BlobID      string
	ImageBlobID string
	Activity    *ActivityData
	Reward      int64
	Likes       uint32
	Comments    uint32
	CreatedAt   time.Time
}

// IsPointer reports whether the post content lives in the blob store.
func (p Post) IsPointer() bool {
	return p.BlobID != ""
}

// PostContent is the post JSON persisted in the blob store for pointer posts.
// Its ID must match the ID of the index row pointing at it.
type PostContent struct {
	ID          string        `json:"id"`
	Author      string        `json:"author"`
	Village     string        `json:"village"`
	PostType    PostType      `json:"postType"`
	Text        string        `json:"text"`
	ImageBlobID string        `json:"imageBlobId,omitempty"`
	Activity    *ActivityData `json:"activityData,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Profile is a community member. Address is the wallet address and is
// immutable once the profile is created.
type Profile struct {
	Address      string
	Username     string
	Village      string
	AvatarBlobID string
	NamespaceID  string
	CreatedAt    time.Time
}

// Namespace returns the human-readable identity username.village.
func (p Profile) Namespace() string {
	return p.Username + "." + p.Village
}

// Village is static reference data describing a community.
type Village struct {
	ID           string
	Name         string
	Country      string
	ResourceType string
	MemberCount  uint32
	Treasury     int64
}

// TransactionStatus ...
type TransactionStatus string

const (
	// PendingTransactionStatus ...
	PendingTransactionStatus TransactionStatus = "pending"
	// SuccessTransactionStatus ...
	SuccessTransactionStatus TransactionStatus = "success"
	// FailedTransactionStatus ...
	FailedTransactionStatus TransactionStatus = "failed"
)

// Transaction is an on-chain action logged for UI feedback.
type Transaction struct {
	ID        string
	Address   string
	Type      string
	Status    TransactionStatus
	Digest    string
	CreatedAt time.Time
}

// Balance holds the fungible token amounts of a wallet.
type Balance struct {
	Address string
	Cork    int64
	Urban   int64
}

// BottleNFT is an owned bottle token with its provenance metadata.
type BottleNFT struct {
	ObjectID string
	Name     string
	Vintage  string
	Origin   string
	ImageURL string
}
