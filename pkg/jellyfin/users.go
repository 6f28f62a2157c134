package jellyfin

import (
	"context"
	"fmt"
	"net/url"
)

// UserService provides user-level operations. Paths containing the user
// id are resolved against the active credential.
type UserService struct {
	client *Client
}

// userPath expands a handler under Users/{UserId} for the active user.
func (s *UserService) userPath(suffix string) (string, error) {
	userID := s.client.UserID()
	if userID == "" {
		return "", ErrNoActiveServer
	}
	return "Users/" + userID + suffix, nil
}

// Current fetches the signed-in user.
func (s *UserService) Current(ctx context.Context) (*User, error) {
	handler, err := s.userPath("")
	if err != nil {
		return nil, err
	}
	var user User
	if err := s.client.get(ctx, handler, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := s.client.get(ctx, "Users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// List fetches all users. Requires administrative rights.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.client.get(ctx, "Users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Public fetches the users visible on the login screen. No
// authentication required.
func (s *UserService) Public(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.client.get(ctx, "Users/Public", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Views fetches the top-level library views of the signed-in user.
func (s *UserService) Views(ctx context.Context) (*QueryResult, error) {
	handler, err := s.userPath("/Views")
	if err != nil {
		return nil, err
	}
	var result QueryResult
	if err := s.client.get(ctx, handler, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Settings fetches the display preferences of the signed-in user for a
// given client name.
func (s *UserService) Settings(ctx context.Context, clientName string) (*DisplayPreferences, error) {
	userID := s.client.UserID()
	if userID == "" {
		return nil, ErrNoActiveServer
	}
	if clientName == "" {
		clientName = "emby"
	}

	params := url.Values{}
	params.Set("userId", userID)
	params.Set("client", clientName)

	var prefs DisplayPreferences
	if err := s.client.get(ctx, "DisplayPreferences/usersettings", params, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// GrantSessionAccess adds or removes a user on an existing session,
// allowing shared control.
func (s *UserService) GrantSessionAccess(ctx context.Context, sessionID, userID string, grant bool) error {
	handler := fmt.Sprintf("Sessions/%s/Users/%s", sessionID, userID)
	if grant {
		return s.client.post(ctx, handler, nil, nil, nil)
	}
	return s.client.delete(ctx, handler, nil)
}
