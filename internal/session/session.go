// Package session holds the durable client-side session state: a
// string-only key-value store plus the credential triple the gateway
// attaches to protected requests.
package session

import "context"

// Storage keys. The five durable keys below are exactly what a credential
// clear removes; transient flow keys survive it.
const (
	KeyUserID       = "user_id"
	KeyAuthToken    = "auth_token"
	KeySessionToken = "session_token"
	KeyUsername     = "username"
	KeyEmail        = "email"

	// Transient keys used during multi-step flows.
	KeyPendingEmail    = "pending_email"
	KeyPendingPassword = "pending_password"
	KeyResetEmail      = "reset_email"
	KeyDeviceClass     = "device_class"
)

// durableKeys is the fixed enumerated subset removed by ClearCredentials.
var durableKeys = []string{
	KeyUserID,
	KeyAuthToken,
	KeySessionToken,
	KeyUsername,
	KeyEmail,
}

// Store is a string-only key-value store. An absent key reads as "".
// Implementations must be safe for concurrent use; writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Credentials is the durable session state. The triple
// {UserID, AuthToken, SessionToken} must be simultaneously present for a
// request to count as authenticated; Username and Email are display-only.
type Credentials struct {
	UserID       string
	AuthToken    string
	SessionToken string
	Username     string
	Email        string
}

// Authenticated reports whether all three required values are present.
// Partial presence is "not authenticated".
func (c Credentials) Authenticated() bool {
	return c.UserID != "" && c.AuthToken != "" && c.SessionToken != ""
}

// Load reads the credential values from the store. Values are returned
// exactly as stored, without transformation.
func Load(ctx context.Context, s Store) (Credentials, error) {
	var c Credentials
	var err error
	if c.UserID, err = s.Get(ctx, KeyUserID); err != nil {
		return Credentials{}, err
	}
	if c.AuthToken, err = s.Get(ctx, KeyAuthToken); err != nil {
		return Credentials{}, err
	}
	if c.SessionToken, err = s.Get(ctx, KeySessionToken); err != nil {
		return Credentials{}, err
	}
	if c.Username, err = s.Get(ctx, KeyUsername); err != nil {
		return Credentials{}, err
	}
	if c.Email, err = s.Get(ctx, KeyEmail); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Save writes the credential values to the store verbatim.
func Save(ctx context.Context, s Store, c Credentials) error {
	pairs := map[string]string{
		KeyUserID:       c.UserID,
		KeyAuthToken:    c.AuthToken,
		KeySessionToken: c.SessionToken,
		KeyUsername:     c.Username,
		KeyEmail:        c.Email,
	}
	for k, v := range pairs {
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// ClearCredentials removes the five durable keys. Transient flow keys
// (pending email/password, reset email, device class) are left untouched.
func ClearCredentials(ctx context.Context, s Store) error {
	for _, k := range durableKeys {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
