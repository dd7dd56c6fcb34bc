// Package policy holds the stateless authorization rules. Every function is
// a pure predicate over the resolved caller and the resource; nothing here
// touches the store.
package policy

import (
	"errors"

	"blogd/models"
)

var (
	// ErrSelfFollow marks a follow request whose target is the caller. It is
	// a malformed request, not a permissions violation.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrSelfDelete marks an admin trying to delete their own account.
	ErrSelfDelete = errors.New("cannot delete your own account")
)

// CanDeletePost permits deletion for the post's author or any admin.
func CanDeletePost(caller *models.User, post *models.Post) bool {
	if caller == nil {
		return false
	}
	return caller.IsAdmin || post.AuthorID == caller.ID
}

// CanDeleteComment permits deletion for the comment's author or any admin.
func CanDeleteComment(caller *models.User, comment *models.Comment) bool {
	if caller == nil {
		return false
	}
	return caller.IsAdmin || comment.UserID == caller.ID
}

// CheckFollowTarget rejects self-follow before the mutator is reached.
func CheckFollowTarget(callerID, targetID uint) error {
	if callerID == targetID {
		return ErrSelfFollow
	}
	return nil
}

// CheckUserDeletion guards the admin delete path: admins may delete any
// account except their own.
func CheckUserDeletion(caller *models.User, targetID uint) error {
	if caller != nil && caller.ID == targetID {
		return ErrSelfDelete
	}
	return nil
}
