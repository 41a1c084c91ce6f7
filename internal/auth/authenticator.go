package auth

import (
	"context"

	"github.com/mmynk/expensetracker/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Services depend on this, not on the password scheme behind it.
type Authenticator interface {
	// Register creates a new account. The credential must be supplied twice;
	// a mismatch is rejected before anything is stored.
	Register(ctx context.Context, username, email, credential, confirm string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
