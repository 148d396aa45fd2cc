// Package services holds the business rules. Handlers call services with an
// Actor taken from the verified token; services talk to storage only through
// the repositories and storage interfaces.
package services

import (
	"errors"
	"fmt"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
	"golang.org/x/crypto/bcrypt"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uint
	Role   models.Role
}

func (a Actor) Is(role models.Role) bool {
	return a.Role == role
}

var passwordCost = bcrypt.DefaultCost

const minPasswordLength = 6

func hashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLength {
		return "", utils.InvalidInput("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// notFoundOr turns a repository miss into a NotFound error naming the entity
// and wraps anything else.
func notFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return utils.NotFound("%s %d not found", entity, id)
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}

// requireExists checks an existence lookup and reports NotFound for a miss.
func requireExists(ok bool, err error, entity string, id uint) error {
	if err != nil {
		return fmt.Errorf("check %s %d: %w", entity, id, err)
	}
	if !ok {
		return utils.NotFound("%s %d not found", entity, id)
	}
	return nil
}
