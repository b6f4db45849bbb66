package platform

import (
	"context"
	"fmt"
)

const profilesTable = "profiles"

// GetProfile fetches a single profile by id.
func (c *Client) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	if err := c.From(profilesTable).Select("*").Eq("id", id).Single(ctx, &p); err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// ListOtherProfiles fetches every profile except the given id
// (the read-mostly contact directory).
func (c *Client) ListOtherProfiles(ctx context.Context, selfID string) ([]Profile, error) {
	var out []Profile
	if err := c.From(profilesTable).Select("*").Neq("id", selfID).Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// InsertProfile creates the profile row for a fresh signup.
func (c *Client) InsertProfile(ctx context.Context, p Profile) error {
	if err := c.From(profilesTable).Insert(ctx, p); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpdateProfile patches fields of the caller's own profile row.
func (c *Client) UpdateProfile(ctx context.Context, id string, patch map[string]any) error {
	if err := c.From(profilesTable).Eq("id", id).Update(ctx, patch); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// LookupEmailByUsername resolves the login email for a username
// (the hybrid-login path).
func (c *Client) LookupEmailByUsername(ctx context.Context, username string) (string, error) {
	var row struct {
		Email string `json:"email"`
	}
	if err := c.From(profilesTable).Select("email").Eq("username", username).Single(ctx, &row); err != nil {
		return "", fmt.Errorf("lookup username %s: %w", username, err)
	}
	return row.Email, nil
}
