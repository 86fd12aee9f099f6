package api

import (
	"context"
	"net/http"

	"wallshare/internal/session"
)

// accountResponse is the shape of login-style endpoint responses.
type accountResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	AuthToken    string `json:"auth_token"`
	SessionToken string `json:"session_token"`
}

func (r accountResponse) account() Account {
	return Account{
		UserID:       r.User.ID,
		Username:     r.User.Username,
		Email:        r.User.Email,
		AuthToken:    r.AuthToken,
		SessionToken: r.SessionToken,
	}
}

// persist writes the account's five durable values to the store exactly as
// the server returned them.
func (c *Client) persist(ctx context.Context, a Account) error {
	return session.Save(ctx, c.store, session.Credentials{
		UserID:       a.UserID,
		AuthToken:    a.AuthToken,
		SessionToken: a.SessionToken,
		Username:     a.Username,
		Email:        a.Email,
	})
}

// Signup starts registration. The email and password are parked under
// transient keys until the OTP from the confirmation mail arrives.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/signup", payload, nil); err != nil {
		return err
	}
	if err := c.store.Set(ctx, session.KeyPendingEmail, email); err != nil {
		return err
	}
	return c.store.Set(ctx, session.KeyPendingPassword, password)
}

// VerifyEmail confirms a signup with the emailed OTP and logs the new
// account in. The pending flow keys are removed on success.
func (c *Client) VerifyEmail(ctx context.Context, otp string) (*Account, error) {
	email, err := c.store.Get(ctx, session.KeyPendingEmail)
	if err != nil {
		return nil, err
	}
	var resp accountResponse
	payload := map[string]string{"email": email, "otp": otp}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/verify-email", payload, &resp); err != nil {
		return nil, err
	}
	a := resp.account()
	if err := c.persist(ctx, a); err != nil {
		return nil, err
	}
	_ = c.store.Delete(ctx, session.KeyPendingEmail)
	_ = c.store.Delete(ctx, session.KeyPendingPassword)
	return &a, nil
}

// Login authenticates with email and password and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	var resp accountResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/login", payload, &resp); err != nil {
		return nil, err
	}
	a := resp.account()
	if err := c.persist(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// OAuthCallback completes a third-party login with the provider's code.
func (c *Client) OAuthCallback(ctx context.Context, provider, code string) (*Account, error) {
	var resp accountResponse
	payload := map[string]string{"provider": provider, "code": code}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/oauth/callback", payload, &resp); err != nil {
		return nil, err
	}
	a := resp.account()
	if err := c.persist(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Logout tells the backend to revoke the session, then clears the durable
// credentials locally. Local state is cleared even when the backend call
// fails; a dead session on the server is the 401 path's problem.
func (c *Client) Logout(ctx context.Context) error {
	err := c.postJSON(ctx, http.MethodPost, "/api/auth/logout", map[string]string{}, nil)
	if cerr := session.ClearCredentials(ctx, c.store); cerr != nil {
		return cerr
	}
	return err
}

// ForgotPassword requests a reset OTP and parks the address for the
// follow-up call.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/forgot-password", payload, nil); err != nil {
		return err
	}
	return c.store.Set(ctx, session.KeyResetEmail, email)
}

// ResetPassword completes a password reset with the emailed OTP.
func (c *Client) ResetPassword(ctx context.Context, otp, newPassword string) error {
	email, err := c.store.Get(ctx, session.KeyResetEmail)
	if err != nil {
		return err
	}
	payload := map[string]string{"email": email, "otp": otp, "new_password": newPassword}
	if err := c.postJSON(ctx, http.MethodPost, "/api/auth/reset-password", payload, nil); err != nil {
		return err
	}
	_ = c.store.Delete(ctx, session.KeyResetEmail)
	return nil
}

// Whoami returns the locally persisted identity without a network call.
func (c *Client) Whoami(ctx context.Context) (session.Credentials, error) {
	return session.Load(ctx, c.store)
}
