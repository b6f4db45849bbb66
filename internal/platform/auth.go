package platform

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

// Session is an established platform identity.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// User is the auth-side view of an identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignUp registers a new auth user. Metadata is stored alongside the
// identity (the client puts the chosen username there).
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	var sess Session
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/auth/v1/signup", payload, &sess, nil); err != nil {
		return nil, err
	}
	c.fillUserID(&sess)
	return &sess, nil
}

// SignInWithPassword exchanges credentials for a session and installs
// its access token on the client.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	var sess Session
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/auth/v1/token?grant_type=password", payload, &sess, nil); err != nil {
		return nil, err
	}
	c.fillUserID(&sess)
	c.SetAccessToken(sess.AccessToken)
	return &sess, nil
}

// SignOut revokes the current session and clears the installed token.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, fasthttp.MethodPost, "/auth/v1/logout", nil, nil, nil)
	c.SetAccessToken("")
	return err
}

// fillUserID falls back to the token subject when the auth response
// omits the user object.
func (c *Client) fillUserID(sess *Session) {
	if sess.User.ID != "" || sess.AccessToken == "" {
		return
	}
	if sub, err := SubjectFromToken(sess.AccessToken); err == nil {
		sess.User.ID = sub
	}
}

// SubjectFromToken extracts the subject claim from a platform-issued
// access token. The token is platform-signed; the client does not hold
// the verification key and only needs the identity claim.
func SubjectFromToken(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("access token has no subject")
	}
	return claims.Subject, nil
}
