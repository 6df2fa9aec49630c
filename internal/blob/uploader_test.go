package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cork-collective/corkd/internal/blob/mock"
)

func TestUploader_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mock.NewMockChain(ctrl)
	publisher := mock.NewMockPublisher(ctrl)

	content := []byte("post content")

	gomock.InOrder(
		chain.EXPECT().RegisterBlob(gomock.Any(), len(content)).Return("register-digest", nil),
		publisher.EXPECT().Put(gomock.Any(), content, "register-digest").Return("blob-1", nil),
		chain.EXPECT().CertifyBlob(gomock.Any(), "blob-1", "register-digest").Return("certify-digest", nil),
	)

	up, err := NewUploader(chain, publisher, time.Second).Run(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, DonePhase, up.Phase)
	assert.Equal(t, "blob-1", up.BlobID)
	assert.Equal(t, "register-digest", up.RegisterDigest)
	assert.Equal(t, "certify-digest", up.CertifyDigest)
	assert.Equal(t, len(content), up.Size)
}

func TestUploader_Run_emptyContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mock.NewMockChain(ctrl)
	publisher := mock.NewMockPublisher(ctrl)

	up, err := NewUploader(chain, publisher, time.Second).Run(context.Background(), nil)
	require.Error(t, err)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, EncodingPhase, phaseErr.Phase)
	assert.Equal(t, FailedPhase, up.Phase)
}

func TestUploader_Run_registerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mock.NewMockChain(ctrl)
	publisher := mock.NewMockPublisher(ctrl)

	chain.EXPECT().RegisterBlob(gomock.Any(), gomock.Any()).Return("", errors.New("node unreachable"))

	// the publisher must never be called when registration fails
	up, err := NewUploader(chain, publisher, time.Second).Run(context.Background(), []byte("content"))
	require.Error(t, err)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, RegisteringPhase, phaseErr.Phase)
	assert.Equal(t, FailedPhase, up.Phase)
}

func TestUploader_Run_uploadRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mock.NewMockChain(ctrl)
	publisher := mock.NewMockPublisher(ctrl)

	content := []byte("content")

	chain.EXPECT().RegisterBlob(gomock.Any(), gomock.Any()).Return("register-digest", nil)
	gomock.InOrder(
		publisher.EXPECT().Put(gomock.Any(), content, "register-digest").Return("", errors.New("nodes not ready")),
		publisher.EXPECT().Put(gomock.Any(), content, "register-digest").Return("blob-1", nil),
	)
	chain.EXPECT().CertifyBlob(gomock.Any(), "blob-1", "register-digest").Return("certify-digest", nil)

	up, err := NewUploader(chain, publisher, 10*time.Second).Run(context.Background(), content)
	require.NoError(t, err)
	assert.Equal(t, DonePhase, up.Phase)
}

func TestUploader_Run_certifyFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mock.NewMockChain(ctrl)
	publisher := mock.NewMockPublisher(ctrl)

	chain.EXPECT().RegisterBlob(gomock.Any(), gomock.Any()).Return("register-digest", nil)
	publisher.EXPECT().Put(gomock.Any(), gomock.Any(), "register-digest").Return("blob-1", nil)
	chain.EXPECT().CertifyBlob(gomock.Any(), "blob-1", "register-digest").Return("", errors.New("rejected"))

	up, err := NewUploader(chain, publisher, time.Second).Run(context.Background(), []byte("content"))
	require.Error(t, err)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, CertifyingPhase, phaseErr.Phase)
	// the blob id survived, the blob is uploaded but not certified
	assert.Equal(t, "blob-1", up.BlobID)
	assert.Equal(t, FailedPhase, up.Phase)
}
