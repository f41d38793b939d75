package auth

import (
	"errors"

	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
)

// ErrNotOwner is returned when an identity tries to mutate a resource it does not own.
var ErrNotOwner = errors.New("identity does not own resource")

// Owned is implemented by every resource that can be mutated by its owner only.
type Owned interface {
	OwnerID() uint
}

// AuthorizeMutation allows the update or delete of resource only by its owner.
func AuthorizeMutation(identity *models.User, resource Owned) error {
	if identity == nil || resource == nil || identity.ID == 0 {
		return ErrNotOwner
	}
	if resource.OwnerID() != identity.ID {
		return ErrNotOwner
	}
	return nil
}
