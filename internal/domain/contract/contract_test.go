package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManageableUser_FullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", ManageableUser{FirstName: "Jane", LastName: "Doe"}.FullName())
	assert.Equal(t, "Jane", ManageableUser{FirstName: " Jane "}.FullName())
	assert.Equal(t, "jdoe", ManageableUser{Username: "jdoe"}.FullName())
}

func TestManageableUser_HasRole(t *testing.T) {
	u := ManageableUser{Roles: []string{"ROLE_USER", "ROLE_ADMIN"}}
	assert.True(t, u.HasRole("ROLE_ADMIN"))
	assert.False(t, u.HasRole("ROLE_DEVELOPER"))
}

func TestCurrentUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", ActorFrom(ctx))

	ctx = WithCurrentUser(ctx, CurrentUser{ID: "1", Username: "jdoe"})
	u, ok := CurrentUserFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "jdoe", ActorFrom(ctx))
}

func TestRecipients_All(t *testing.T) {
	r := Recipients{
		To:  []Recipient{{Email: "a@example.com"}},
		Cc:  []Recipient{{Email: "b@example.com"}},
		Bcc: []Recipient{{Email: "c@example.com"}},
	}
	assert.Len(t, r.All(), 3)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jane@example.com"))
	assert.False(t, ValidEmail("jane"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("jane@"))
	assert.False(t, ValidEmail("ja ne@example.com"))
}

func TestDefinitionKeyFromID(t *testing.T) {
	assert.Equal(t, "loan-process", DefinitionKeyFromID("loan-process:3:abc"))
	assert.Equal(t, "loan-process", DefinitionKeyFromID("loan-process"))
	assert.Equal(t, "loan-process", Task{ProcessDefinitionID: "loan-process:1:x"}.ProcessDefinitionKey())
}
