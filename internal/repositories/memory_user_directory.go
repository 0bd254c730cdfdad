package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
)

// MemoryUserDirectory keeps users in process memory. It backs the memory
// storage driver and tests.
type MemoryUserDirectory struct {
	mu sync.RWMutex

	users      map[uint]*models.User
	byEmail    map[string]uint
	byTelegram map[int64]uint
	nextID     uint
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{
		users:      make(map[uint]*models.User),
		byEmail:    make(map[string]uint),
		byTelegram: make(map[int64]uint),
		nextID:     1,
	}
}

func (d *MemoryUserDirectory) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := user.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid user")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := d.byEmail[email]; exists {
		return errors.New(errors.ErrCodeAlreadyExists, "user already exists")
	}
	if user.TelegramID != nil {
		if _, exists := d.byTelegram[*user.TelegramID]; exists {
			return errors.New(errors.ErrCodeAlreadyExists, "telegram account already linked")
		}
	}

	user.ID = d.nextID
	d.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	d.users[user.ID] = &stored
	d.byEmail[email] = user.ID
	if user.TelegramID != nil {
		d.byTelegram[*user.TelegramID] = user.ID
	}
	return nil
}

func (d *MemoryUserDirectory) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, exists := d.users[id]
	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	c := *user
	return &c, nil
}

func (d *MemoryUserDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	id, exists := d.byEmail[strings.ToLower(email)]
	d.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return d.GetUserByID(ctx, id)
}

func (d *MemoryUserDirectory) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	d.mu.RLock()
	id, exists := d.byTelegram[telegramID]
	d.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return d.GetUserByID(ctx, id)
}

func (d *MemoryUserDirectory) Exists(ctx context.Context, id uint) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.users[id]
	return exists, nil
}

func (d *MemoryUserDirectory) BriefOf(ctx context.Context, id uint) (*models.UserBrief, error) {
	user, err := d.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	brief := user.Brief()
	return &brief, nil
}
