package users

import (
	"context"
	"sync"
	"time"

	"github.com/cartana/accounts/internal/common"
)

// InMemoryRepository keeps users in a map. Used in tests and for running
// the server without a database.
type InMemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	byEmail  map[string]*User
	usedJTIs map[string]time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byEmail:  make(map[string]*User),
		usedJTIs: make(map[string]time.Time),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrConflict
	}

	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.byEmail[user.Email] = &clone
	return user, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *InMemoryRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byEmail {
		if u.UID == uid {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) ResetPassword(ctx context.Context, uid, jti string, passwordHash []byte, jtiExpires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, used := r.usedJTIs[jti]; used {
		return common.ErrTokenExpired
	}

	for _, u := range r.byEmail {
		if u.UID == uid {
			r.usedJTIs[jti] = jtiExpires
			u.PasswordHash = passwordHash
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return common.ErrNotFound
}
