package claims

import (
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsCarryTheirCodes(t *testing.T) {
	cases := map[string]error{
		ErrCodeNetwork:           ErrNetwork,
		ErrCodeUnauthorized:      ErrUnauthorized,
		ErrCodeMissingFields:     ErrMissingFields,
		ErrCodeFieldErrors:       ErrFieldErrors,
		ErrCodeNotEditable:       ErrNotEditable,
		ErrCodeInvalidTransition: ErrInvalidTransition,
		ErrCodeUploadLimit:       ErrUploadLimit,
		ErrCodeUnknown:           ErrUnknown,
	}
	for code, sentinel := range cases {
		assert.Equal(t, code, ErrorCode(sentinel))
		assert.True(t, IsCode(sentinel, code))
	}
}

func TestCloneErrorKeepsCodeAndAttachesContext(t *testing.T) {
	source := fmt.Errorf("connection refused")
	err := CloneError(ErrNetwork, "submit failed", source, map[string]any{
		"claim_id": "c1",
	})

	assert.True(t, IsCode(err, ErrCodeNetwork))
	assert.Equal(t, "submit failed", err.Message)
	assert.Equal(t, "c1", ErrorMetadata(err)["claim_id"])

	// The sentinel itself must stay pristine for the next call site.
	assert.Equal(t, "service unreachable", ErrNetwork.Message)
	assert.Nil(t, ErrNetwork.Metadata)
}

func TestCloneErrorNilBaseFallsBackToUnknown(t *testing.T) {
	err := CloneError(nil, "", nil, nil)
	assert.True(t, IsCode(err, ErrCodeUnknown))
}

func TestForeignErrorsHaveNoCode(t *testing.T) {
	err := fmt.Errorf("plain failure")
	assert.Empty(t, ErrorCode(err))
	assert.Nil(t, ErrorMetadata(err))
	assert.False(t, IsCode(err, ErrCodeUnknown))
}

func TestClonedErrorUnwrapsToCategory(t *testing.T) {
	err := CloneError(ErrMissingFields, "", nil, map[string]any{
		MetaMissingFields: []Field{FieldPolicyNumber},
	})
	var ge *goerrors.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, goerrors.CategoryValidation, ge.Category)
}
