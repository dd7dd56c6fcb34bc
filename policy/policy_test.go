package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"blogd/models"
	"blogd/policy"
)

func TestCanDeletePost(t *testing.T) {
	author := &models.User{ID: 1}
	admin := &models.User{ID: 2, IsAdmin: true}
	stranger := &models.User{ID: 3}
	post := &models.Post{ID: 10, AuthorID: 1}

	require.True(t, policy.CanDeletePost(author, post))
	require.True(t, policy.CanDeletePost(admin, post))
	require.False(t, policy.CanDeletePost(stranger, post))
	require.False(t, policy.CanDeletePost(nil, post))
}

func TestCanDeleteComment(t *testing.T) {
	owner := &models.User{ID: 1}
	admin := &models.User{ID: 2, IsAdmin: true}
	stranger := &models.User{ID: 3}
	comment := &models.Comment{ID: 5, UserID: 1}

	require.True(t, policy.CanDeleteComment(owner, comment))
	require.True(t, policy.CanDeleteComment(admin, comment))
	require.False(t, policy.CanDeleteComment(stranger, comment))
	require.False(t, policy.CanDeleteComment(nil, comment))
}

func TestCheckFollowTarget(t *testing.T) {
	require.NoError(t, policy.CheckFollowTarget(1, 2))
	require.ErrorIs(t, policy.CheckFollowTarget(1, 1), policy.ErrSelfFollow)
}

func TestCheckUserDeletion(t *testing.T) {
	admin := &models.User{ID: 1, IsAdmin: true}

	require.NoError(t, policy.CheckUserDeletion(admin, 2))
	// the self-delete guard applies even though the admin check passes
	require.ErrorIs(t, policy.CheckUserDeletion(admin, 1), policy.ErrSelfDelete)
}
