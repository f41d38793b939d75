package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
)

func TestAuthorizeMutation(t *testing.T) {
	alice := &models.User{ID: 1}
	bob := &models.User{ID: 2}
	post := models.Post{ID: 10, UserID: alice.ID}
	comment := models.Comment{ID: 20, UserID: bob.ID, PostID: post.ID}

	require.NoError(t, AuthorizeMutation(alice, post))
	require.ErrorIs(t, AuthorizeMutation(bob, post), ErrNotOwner)

	require.NoError(t, AuthorizeMutation(bob, comment))
	require.ErrorIs(t, AuthorizeMutation(alice, comment), ErrNotOwner)

	require.NoError(t, AuthorizeMutation(alice, *alice))
	require.ErrorIs(t, AuthorizeMutation(bob, *alice), ErrNotOwner)
}

func TestAuthorizeMutationWithoutIdentity(t *testing.T) {
	post := models.Post{ID: 10, UserID: 0}
	require.ErrorIs(t, AuthorizeMutation(nil, post), ErrNotOwner)
	// a zero identity never owns an orphaned row
	require.ErrorIs(t, AuthorizeMutation(&models.User{}, post), ErrNotOwner)
	require.ErrorIs(t, AuthorizeMutation(&models.User{ID: 1}, nil), ErrNotOwner)
}
