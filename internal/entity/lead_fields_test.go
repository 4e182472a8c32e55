package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditableLeadFieldsExcludeStatusAndIdentity(t *testing.T) {
	for _, name := range []string{"id", "status", "created_at", "updated_at", "status_history"} {
		assert.NotContains(t, EditableLeadFields, name)
		assert.False(t, ValidLeadField(name), name)
	}
	for _, name := range []string{"full_name", "closer_id", "bot_payload", "mamad_variant", "arch_existing_docs"} {
		assert.Contains(t, EditableLeadFields, name)
	}
	assert.Len(t, EditableLeadFields, 33)
}

func TestChangedLeadFields(t *testing.T) {
	city := "Haifa"
	before := Lead{ID: "a", FullName: "Dana", Status: StatusNewLead}
	after := before
	after.City = &city
	after.Status = StatusWon
	after.MamadVariant = &city
	after.ArchExistingDocs = []string{"permit"}

	assert.Equal(t, []string{"city", "mamad_variant", "arch_existing_docs"}, ChangedLeadFields(&before, &after))
	assert.Empty(t, ChangedLeadFields(&before, &before))
}

func TestCopyLeadFields(t *testing.T) {
	closer := "c1"
	src := &Lead{FullName: "New", CloserID: &closer, Status: StatusWon}
	dst := &Lead{FullName: "Old", Status: StatusNewLead}

	require.NoError(t, CopyLeadFields(dst, src, []string{"closer_id"}))
	assert.Equal(t, "Old", dst.FullName)
	require.NotNil(t, dst.CloserID)
	assert.Equal(t, "c1", *dst.CloserID)

	assert.ErrorIs(t, CopyLeadFields(dst, src, []string{"status"}), ErrUnknownField)
	assert.Equal(t, StatusNewLead, dst.Status)
}
