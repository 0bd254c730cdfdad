package database

import (
	"context"
	"time"

	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/security"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
)

// UserStore is the part of a user directory the seed needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// SeededUser pairs a demo user with a development token.
type SeededUser struct {
	User  *models.User
	Token string
}

var demoUsers = []models.User{
	{DisplayName: "alice", Email: "alice@skillswap.local", Role: models.RoleUser},
	{DisplayName: "bob", Email: "bob@skillswap.local", Role: models.RoleUser},
	{DisplayName: "admin", Email: "admin@skillswap.local", Role: models.RoleAdmin},
}

// SeedDemoUsers creates the demo users that are missing and issues a token
// for each of them.
func SeedDemoUsers(ctx context.Context, users UserStore, secret string, ttl time.Duration) ([]SeededUser, error) {
	logger.Info("Checking for demo users...")

	seeded := make([]SeededUser, 0, len(demoUsers))
	for _, demo := range demoUsers {
		user, err := users.GetUserByEmail(ctx, demo.Email)
		if errors.Is(err, errors.ErrCodeNotFound) {
			u := demo
			if err := users.CreateUser(ctx, &u); err != nil {
				return nil, err
			}
			user = &u
			logger.Info("Seeded demo user", "user_id", u.ID, "name", u.DisplayName)
		} else if err != nil {
			return nil, err
		}

		token, err := security.GenerateJWT(user.ID, user.Role, secret, ttl)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue demo token")
		}

		logger.Info("Demo token", "user_id", user.ID, "name", user.DisplayName, "role", user.Role, "token", token)
		seeded = append(seeded, SeededUser{User: user, Token: token})
	}

	return seeded, nil
}
