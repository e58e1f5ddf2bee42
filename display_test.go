package claims

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayNilError(t *testing.T) {
	assert.Nil(t, Display(nil))
}

func TestDisplayMissingFieldsTranslatesLabels(t *testing.T) {
	err := CloneError(ErrMissingFields, "", nil, map[string]any{
		MetaMissingFields: []Field{FieldPolicyNumber, FieldIncidentDate},
		MetaTargetStatus:  StatusInReview,
	})

	display := Display(err)
	assert.Equal(t, "Required fields are missing", display.Title)
	assert.Contains(t, display.Description, "In review")

	require.Len(t, display.Items, 2)
	assert.Equal(t, "Policy number", display.Items[0].Label)
	assert.Equal(t, "Policy number is required", display.Items[0].Message)
	assert.Equal(t, "Incident date", display.Items[1].Label)
}

func TestDisplayFieldErrorsKeepsServerMessages(t *testing.T) {
	err := CloneError(ErrFieldErrors, "", nil, map[string]any{
		MetaFieldErrors: []FieldMessage{
			{Field: FieldClaimedAmount, Message: "must be a positive amount"},
		},
	})

	display := Display(err)
	assert.Equal(t, "Some fields need attention", display.Title)
	require.Len(t, display.Items, 1)
	assert.Equal(t, "Claimed amount", display.Items[0].Label)
	assert.Equal(t, "must be a positive amount", display.Items[0].Message)
}

func TestDisplayInvalidTransitionNamesBothStatuses(t *testing.T) {
	err := CloneError(ErrInvalidTransition, "", nil, map[string]any{
		MetaFromStatus:   StatusSettled,
		MetaTargetStatus: StatusDraft,
	})

	display := Display(err)
	assert.Equal(t, "Move not allowed", display.Title)
	assert.Equal(t, "A claim in Settled cannot move to Draft.", display.Description)
}

func TestDisplayNotEditableListsFields(t *testing.T) {
	err := CloneError(ErrNotEditable, "", nil, map[string]any{
		MetaFields: []Field{FieldSettledAmount},
	})

	display := Display(err)
	assert.Equal(t, "Fields cannot be changed", display.Title)
	require.Len(t, display.Items, 1)
	assert.Equal(t, "Settled amount is not editable right now", display.Items[0].Message)
}

func TestDisplayNetworkAndSessionAreGeneric(t *testing.T) {
	assert.Equal(t, "Connection problem", Display(ErrNetwork).Title)
	assert.Equal(t, "Session expired", Display(ErrUnauthorized).Title)
	assert.Empty(t, Display(ErrNetwork).Items)
}

func TestDisplayForeignErrorFallsBack(t *testing.T) {
	display := Display(fmt.Errorf("weird failure"))
	assert.Equal(t, "Something went wrong", display.Title)
	assert.Equal(t, "weird failure", display.Description)
}

func TestDisplayStringMetadataFromWire(t *testing.T) {
	// Metadata decoded from a JSON envelope arrives as []string.
	err := CloneError(ErrMissingFields, "", nil, map[string]any{
		MetaMissingFields: []string{"claimant_name"},
	})

	display := Display(err)
	require.Len(t, display.Items, 1)
	assert.Equal(t, "Claimant name", display.Items[0].Label)
}
