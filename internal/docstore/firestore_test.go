package docstore

import (
	"errors"
	"testing"

	"order_board/internal/common"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestConvertFirestoreError(t *testing.T) {
	assert.NoError(t, convertFirestoreError(nil))

	cases := map[codes.Code]error{
		codes.NotFound:         common.ErrNotFound,
		codes.AlreadyExists:    common.ErrDuplicate,
		codes.Aborted:          common.ErrConflict,
		codes.Unavailable:      common.ErrConnection,
		codes.DeadlineExceeded: common.ErrConnection,
	}
	for code, want := range cases {
		t.Run(code.String(), func(t *testing.T) {
			assert.True(t, errors.Is(convertFirestoreError(status.Error(code, "rpc failed")), want))
		})
	}

	// Lỗi nghiệp vụ trong transaction đi ra nguyên vẹn
	assert.Same(t, common.ErrUnitVoided, convertFirestoreError(common.ErrUnitVoided))

	var custom *common.Error
	assert.True(t, errors.As(convertFirestoreError(status.Error(codes.Internal, "boom")), &custom))
	assert.Equal(t, common.StatusInternalServerError, custom.StatusCode)
}
