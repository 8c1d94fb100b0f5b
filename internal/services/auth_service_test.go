package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
)

type fakeAuthRepo struct {
	users  map[int64]models.User
	hashes map[int64]string
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[int64]models.User{}, hashes: map[int64]string{}}
}

func (f *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return 0, &repositories.ConstraintError{Constraint: "users_username_key", Err: fmt.Errorf("%w: duplicate", repositories.ErrDuplicateKey)}
		}
		if user.Email != nil && u.Email != nil && strings.EqualFold(*u.Email, *user.Email) {
			return 0, &repositories.ConstraintError{Constraint: "users_email_key", Err: fmt.Errorf("%w: duplicate", repositories.ErrDuplicateKey)}
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = *user
	f.hashes[user.ID] = hashedPassword
	return user.ID, nil
}

func (f *fakeAuthRepo) FindUserByUsername(username string) (*models.User, string, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, f.hashes[u.ID], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (f *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func newAuthFixture() AuthService {
	return NewAuthService(newFakeAuthRepo(), &fakeTxRunner{store: newMemStore()})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthFixture()

	user, err := svc.Register(RegisterRequest{Username: "priya", Password: "super-secret"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}

	resp, err := svc.Login(LoginRequest{Username: "priya", Password: "super-secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token is empty")
	}
	if resp.User.ID != user.ID {
		t.Errorf("user ID = %d, want %d", resp.User.ID, user.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthFixture()

	if _, err := svc.Register(RegisterRequest{Username: "priya", Password: "super-secret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(RegisterRequest{Username: "priya", Password: "other-secret"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("err = %v, want ErrUsernameExists", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthFixture()

	if _, err := svc.Register(RegisterRequest{Username: "priya", Password: "super-secret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(LoginRequest{Username: "priya", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(LoginRequest{Username: "nobody", Password: "super-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}
