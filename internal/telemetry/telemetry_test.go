package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cork-collective/corkd/internal/entities"
	storagemock "github.com/cork-collective/corkd/internal/storage/mock"
)

func TestLogger_Log(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)

	var written *entities.Transaction
	s.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *entities.Transaction) error {
			written = tx
			return nil
		})

	l := New(s)
	l.Log(entities.Transaction{
		Address: "0xaddr",
		Type:    "mint-tokens",
		Status:  entities.SuccessTransactionStatus,
		Digest:  "digest",
	})
	l.Stop()

	require.NotNil(t, written)
	assert.NotEmpty(t, written.ID)
	assert.False(t, written.CreatedAt.IsZero())
	assert.Equal(t, "0xaddr", written.Address)
	assert.Equal(t, "mint-tokens", written.Type)
}

func TestLogger_Log_keepsGivenIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)

	timestamp := time.Unix(1000, 0).UTC()

	var written *entities.Transaction
	s.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *entities.Transaction) error {
			written = tx
			return nil
		})

	l := New(s)
	l.Log(entities.Transaction{
		ID:        "tx-1",
		Address:   "0xaddr",
		Type:      "create-post",
		CreatedAt: timestamp,
	})
	l.Stop()

	require.NotNil(t, written)
	assert.Equal(t, "tx-1", written.ID)
	assert.Equal(t, timestamp, written.CreatedAt)
}

func TestLogger_Log_swallowsWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	s.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	l := New(s)
	l.Log(entities.Transaction{Address: "0xaddr", Type: "create-post"})

	// Stop waits for the queue to drain, the failure must not panic or block
	l.Stop()
}
