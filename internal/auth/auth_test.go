package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return storage.ErrConflict
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) find(match func(*models.User) bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id }), nil
}

// racingUsers hides existing accounts from the pre-insert checks, as if a
// concurrent signup committed between the check and the insert.
type racingUsers struct {
	*memUsers
	checked map[string]bool
}

func (r *racingUsers) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (r *racingUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if !r.checked[email] {
		r.checked[email] = true
		return nil, nil
	}
	return r.memUsers.GetUserByEmail(ctx, email)
}

func newTestAuthenticator() (*PasswordAuthenticator, *memUsers) {
	users := newMemUsers()
	return NewPasswordAuthenticator(users).WithCost(bcrypt.MinCost), users
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator()

	user, err := a.Register(ctx, "alice", "Alice@Example.com", "password123", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || user.Username != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plain text")
	}

	tests := []struct {
		name                       string
		username, email, pw, again string
		wantErr                    error
	}{
		{"duplicate username", "alice", "other@example.com", "password123", "password123", ErrUsernameTaken},
		{"duplicate email", "bob", "alice@example.com", "password123", "password123", ErrEmailTaken},
		{"short password", "bob", "bob@example.com", "short", "short", ErrWeakPassword},
		{"mismatched confirmation", "bob", "bob@example.com", "password123", "password124", ErrPasswordMismatch},
		{"empty username", "", "bob@example.com", "password123", "password123", ErrInvalidUsername},
		{"username with spaces", "bob smith", "bob@example.com", "password123", "password123", ErrInvalidUsername},
		{"long username", strings.Repeat("b", 151), "bob@example.com", "password123", "password123", ErrInvalidUsername},
		{"missing email", "bob", "", "password123", "password123", ErrInvalidEmail},
		{"malformed email", "bob", "not-an-email", "password123", "password123", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.username, tt.email, tt.pw, tt.again)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator()

	registered, err := a.Register(ctx, "alice", "alice@example.com", "password123", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		user, err := a.Authenticate(ctx, "alice", "password123")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if user.ID != registered.ID {
			t.Errorf("got user %s, want %s", user.ID, registered.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "alice", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "mallory", "password123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Username: "alice"}

	t.Run("round trip", func(t *testing.T) {
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != "user-1" || claims.Username != "alice" {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewJWTManager("other-secret", time.Hour).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, _ := NewJWTManager("test-secret", -time.Minute).Generate(user)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build token: %v", err)
		}
		if _, err := m.Validate(s); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestRegisterLostRace(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	if err := users.CreateUser(ctx, models.NewUser("alice", "alice@example.com", "hash")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		email    string
		want     error
	}{
		{"email collision", "bob", "alice@example.com", ErrEmailTaken},
		{"username collision", "alice", "other@example.com", ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			racing := &racingUsers{memUsers: users, checked: map[string]bool{}}
			a := NewPasswordAuthenticator(racing).WithCost(bcrypt.MinCost)

			_, err := a.Register(ctx, tt.username, tt.email, "password123", "password123")
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}
