// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")
var errBeginCalledWithinTx = errors.New("can not run InTx within tx")

const uniqueViolation = "23505"

type pg struct {
	ext sqlx.ExtContext
}

type postDTO struct {
	ID          string         `db:"id"`
	Author      string         `db:"author"`
	Village     string         `db:"village"`
	PostType    string         `db:"post_type"`
	Text        sql.NullString `db:"text"`
	ImageURL    sql.NullString `db:"image_url"`
	BlobID      sql.NullString `db:"blob_id"`
	ImageBlobID sql.NullString `db:"image_blob_id"`
	Activity    []byte         `db:"activity"`
	Reward      int64          `db:"reward"`
	Likes       uint32         `db:"likes"`
	Comments    uint32         `db:"comments"`
	CreatedAt   time.Time      `db:"created_at"`
}

type profileDTO struct {
	Address      string    `db:"address"`
	Username     string    `db:"username"`
	Village      string    `db:"village"`
	AvatarBlobID string    `db:"avatar_blob_id"`
	NamespaceID  string    `db:"namespace_id"`
	CreatedAt    time.Time `db:"created_at"`
}

type transactionDTO struct {
	ID        string    `db:"id"`
	Address   string    `db:"address"`
	Type      string    `db:"type"`
	Status    string    `db:"status"`
	Digest    string    `db:"digest"`
	CreatedAt time.Time `db:"created_at"`
}

type villageDTO struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Country      string `db:"country"`
	ResourceType string `db:"resource_type"`
	MemberCount  uint32 `db:"member_count"`
	Treasury     int64  `db:"treasury"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) InTx(ctx context.Context, f func(s storage.Storage) error) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return errBeginCalledWithinTx
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}

	if err := f(pg{ext: tx}); err != nil {
		if err := tx.Rollback(); err != nil {
			log.WithError(err).Error("failed to rollback tx")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func (s pg) CreatePost(ctx context.Context, p *entities.Post) error {
	dto := postDTO{
		ID:          p.ID,
		Author:      p.Author,
		Village:     p.Village,
		PostType:    string(p.PostType),
		Text:        nullString(p.Text),
		ImageURL:    nullString(p.ImageURL),
		BlobID:      nullString(p.BlobID),
		ImageBlobID: nullString(p.ImageBlobID),
		Reward:      p.Reward,
		CreatedAt:   p.CreatedAt.UTC(),
	}

	if p.Activity != nil {
		b, err := json.Marshal(p.Activity)
		if err != nil {
			return fmt.Errorf("failed to marshal activity: %w", err)
		}
		dto.Activity = b
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO post(id, author, village, post_type, text, image_url, blob_id, image_blob_id, activity, reward, created_at)
			VALUES(:id, :author, :village, :post_type, :text, :image_url, :blob_id, :image_blob_id, :activity, :reward, :created_at)
		`, dto,
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return fmt.Errorf("post %s already exists: %w", p.ID, err)
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) GetPost(ctx context.Context, id string) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, author, village, post_type, text, image_url, blob_id, image_blob_id, activity, reward, likes, comments, created_at
			FROM post
			WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toPost(&p)
}

func (s pg) ListPosts(ctx context.Context, params *storage.ListPostsParams) ([]*entities.Post, error) {
	query := `
		SELECT id, author, village, post_type, text, image_url, blob_id, image_blob_id, activity, reward, likes, comments, created_at
		FROM post
	`
	args := make([]interface{}, 0, 3)

	if params.Village != nil {
		query += ` WHERE village = $1`
		args = append(args, *params.Village)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	var dto []*postDTO
	if err := sqlx.SelectContext(ctx, s.ext, &dto, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Post, len(dto))
	for i, v := range dto {
		p, err := toPost(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}

	return out, nil
}

func (s pg) LikePost(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx, `UPDATE post SET likes = likes + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) GetProfile(ctx context.Context, address string) (*entities.Profile, error) {
	var p profileDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT address, username, village, avatar_blob_id, namespace_id, created_at FROM profile
			WHERE address = $1
		`, address,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return &entities.Profile{
		Address:      p.Address,
		Username:     p.Username,
		Village:      p.Village,
		AvatarBlobID: p.AvatarBlobID,
		NamespaceID:  p.NamespaceID,
		CreatedAt:    p.CreatedAt,
	}, nil
}

func (s pg) SetProfile(ctx context.Context, p *entities.Profile) error {
	profile := profileDTO{
		Address:      p.Address,
		Username:     p.Username,
		Village:      p.Village,
		AvatarBlobID: p.AvatarBlobID,
		NamespaceID:  p.NamespaceID,
		CreatedAt:    p.CreatedAt.UTC(),
	}

	// address is immutable, everything else follows the latest write
	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO profile(address, username, village, avatar_blob_id, namespace_id, created_at)
			VALUES(:address, :username, :village, :avatar_blob_id, :namespace_id, :created_at)
			ON CONFLICT(address) DO UPDATE SET
			username=excluded.username, village=excluded.village, avatar_blob_id=excluded.avatar_blob_id, namespace_id=excluded.namespace_id
		`, profile,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) CreateTransaction(ctx context.Context, t *entities.Transaction) error {
	dto := transactionDTO{
		ID:        t.ID,
		Address:   t.Address,
		Type:      t.Type,
		Status:    string(t.Status),
		Digest:    t.Digest,
		CreatedAt: t.CreatedAt.UTC(),
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO transaction(id, address, type, status, digest, created_at)
			VALUES(:id, :address, :type, :status, :digest, :created_at)
		`, dto,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) ListTransactions(ctx context.Context, address string) ([]*entities.Transaction, error) {
	var dto []*transactionDTO

	if err := sqlx.SelectContext(ctx, s.ext, &dto, `
			SELECT id, address, type, status, digest, created_at FROM transaction
			WHERE address = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, address, storage.TransactionsListLimit,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Transaction, len(dto))
	for i, v := range dto {
		out[i] = &entities.Transaction{
			ID:        v.ID,
			Address:   v.Address,
			Type:      v.Type,
			Status:    entities.TransactionStatus(v.Status),
			Digest:    v.Digest,
			CreatedAt: v.CreatedAt,
		}
	}

	return out, nil
}

func (s pg) ListVillages(ctx context.Context) ([]*entities.Village, error) {
	var dto []*villageDTO

	if err := sqlx.SelectContext(ctx, s.ext, &dto, `
			SELECT id, name, country, resource_type, member_count, treasury FROM village ORDER BY id
		`,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Village, len(dto))
	for i, v := range dto {
		out[i] = toVillage(v)
	}

	return out, nil
}

func (s pg) GetVillage(ctx context.Context, id string) (*entities.Village, error) {
	var v villageDTO

	if err := sqlx.GetContext(ctx, s.ext, &v, `
			SELECT id, name, country, resource_type, member_count, treasury FROM village WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toVillage(&v), nil
}

func toPost(p *postDTO) (*entities.Post, error) {
	out := entities.Post{
		ID:          p.ID,
		Author:      p.Author,
		Village:     p.Village,
		PostType:    entities.PostType(p.PostType),
		Text:        p.Text.String,
		ImageURL:    p.ImageURL.String,
		BlobID:      p.BlobID.String,
		ImageBlobID: p.ImageBlobID.String,
		Reward:      p.Reward,
		Likes:       p.Likes,
		Comments:    p.Comments,
		CreatedAt:   p.CreatedAt,
	}

	if len(p.Activity) > 0 {
		out.Activity = &entities.ActivityData{}
		if err := json.Unmarshal(p.Activity, out.Activity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity: %w", err)
		}
	}

	return &out, nil
}

func toVillage(v *villageDTO) *entities.Village {
	return &entities.Village{
		ID:           v.ID,
		Name:         v.Name,
		Country:      v.Country,
		ResourceType: v.ResourceType,
		MemberCount:  v.MemberCount,
		Treasury:     v.Treasury,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
