package users

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

var _ userRepo = (*repoMock)(nil)

type repoMock struct {
	users       map[uuid.UUID]*User
	getByIDHits int
	err         error
	mutex       sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		users: make(map[uuid.UUID]*User),
	}
}

func (r *repoMock) Add(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrUserExists
		}
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.getByIDHits++
	if r.err != nil {
		return nil, r.err
	}

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *u
	return &found, nil
}
