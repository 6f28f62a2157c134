package jellyfin

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestCredentialStore_AddOrUpdate tests insertion and merge behavior.
func TestCredentialStore_AddOrUpdate(t *testing.T) {
	store := NewCredentialStore()

	first := store.AddOrUpdate(ServerCredential{
		ID:      "server-1",
		Name:    "Living Room",
		Address: "http://jellyfin.local:8096",
	})
	if first.ID != "server-1" {
		t.Fatalf("expected id server-1, got %q", first.ID)
	}
	if first.DateLastAccessed.IsZero() {
		t.Error("expected DateLastAccessed to be stamped on insert")
	}

	// Updating the same server must not create a second entry.
	store.AddOrUpdate(ServerCredential{
		ID:          "server-1",
		Address:     "http://jellyfin.local:8096",
		AccessToken: "token-abc",
	})
	if got := len(store.Servers()); got != 1 {
		t.Fatalf("expected 1 entry after update, got %d", got)
	}

	updated, err := store.Get("server-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AccessToken != "token-abc" {
		t.Errorf("expected merged token token-abc, got %q", updated.AccessToken)
	}
	if updated.Name != "Living Room" {
		t.Errorf("expected name preserved through merge, got %q", updated.Name)
	}
}

// TestCredentialStore_AddOrUpdate_NewerEntryWins tests that a stale
// update does not clobber fresher data.
func TestCredentialStore_AddOrUpdate_NewerEntryWins(t *testing.T) {
	store := NewCredentialStore()

	now := time.Now().UTC().Truncate(time.Second)
	store.AddOrUpdate(ServerCredential{
		ID:               "server-1",
		Address:          "http://new.example.com",
		AccessToken:      "fresh-token",
		DateLastAccessed: now,
	})

	result := store.AddOrUpdate(ServerCredential{
		ID:               "server-1",
		Address:          "http://old.example.com",
		AccessToken:      "stale-token",
		DateLastAccessed: now.Add(-time.Hour),
	})

	if result.AccessToken != "fresh-token" {
		t.Errorf("expected existing token to win, got %q", result.AccessToken)
	}
	if result.Address != "http://new.example.com" {
		t.Errorf("expected existing address to win, got %q", result.Address)
	}
}

// TestCredentialStore_AddOrUpdate_Idempotent tests that repeating the
// same input never duplicates entries.
func TestCredentialStore_AddOrUpdate_Idempotent(t *testing.T) {
	store := NewCredentialStore()

	cred := ServerCredential{
		ID:               "server-1",
		Address:          "http://jellyfin.local:8096",
		AccessToken:      "token",
		DateLastAccessed: time.Now().UTC().Truncate(time.Second),
	}
	for i := 0; i < 5; i++ {
		store.AddOrUpdate(cred)
	}

	if got := len(store.Servers()); got != 1 {
		t.Errorf("expected 1 entry after repeated updates, got %d", got)
	}
}

// TestCredentialStore_SetActive tests active-server selection.
func TestCredentialStore_SetActive(t *testing.T) {
	store := NewCredentialStore()
	store.AddOrUpdate(ServerCredential{ID: "server-1", Address: "http://a.example.com"})
	store.AddOrUpdate(ServerCredential{ID: "server-2", Address: "http://b.example.com"})

	if _, ok := store.Active(); ok {
		t.Error("expected no active server before SetActive")
	}

	if err := store.SetActive("server-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, ok := store.Active()
	if !ok {
		t.Fatal("expected an active server")
	}
	if active.ID != "server-2" {
		t.Errorf("expected active server-2, got %q", active.ID)
	}

	err := store.SetActive("no-such-server")
	if !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound, got %v", err)
	}
}

// TestCredentialStore_Servers_Order tests most-recently-used ordering.
func TestCredentialStore_Servers_Order(t *testing.T) {
	store := NewCredentialStore()
	now := time.Now().UTC().Truncate(time.Second)

	store.AddOrUpdate(ServerCredential{ID: "old", Address: "http://old", DateLastAccessed: now.Add(-2 * time.Hour)})
	store.AddOrUpdate(ServerCredential{ID: "newest", Address: "http://newest", DateLastAccessed: now})
	store.AddOrUpdate(ServerCredential{ID: "middle", Address: "http://middle", DateLastAccessed: now.Add(-time.Hour)})

	servers := store.Servers()
	want := []string{"newest", "middle", "old"}
	for i, id := range want {
		if servers[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, servers[i].ID)
		}
	}
}

// TestCredentialStore_ExportImport tests the persistence round trip.
func TestCredentialStore_ExportImport(t *testing.T) {
	store := NewCredentialStore()
	now := time.Now().UTC().Truncate(time.Second)
	store.AddOrUpdate(ServerCredential{
		ID:               "server-1",
		Name:             "Home",
		Address:          "http://jellyfin.local:8096",
		AccessToken:      "token-abc",
		UserID:           "user-1",
		Username:         "alice",
		DateLastAccessed: now,
		Users:            []LinkedUser{{ID: "user-1", IsSignedInOffline: true}},
	})

	raw, err := json.Marshal(store.Export())
	if err != nil {
		t.Fatalf("failed to marshal credentials: %v", err)
	}
	if !strings.Contains(string(raw), `"Servers":[`) {
		t.Errorf("expected Servers key in exported JSON, got %s", raw)
	}
	if !strings.Contains(string(raw), `"address":"http://jellyfin.local:8096"`) {
		t.Errorf("expected lowercase address key in exported JSON, got %s", raw)
	}

	var data Credentials
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("failed to unmarshal credentials: %v", err)
	}

	restored := NewCredentialStore()
	if err := restored.Import(data); err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}

	got, err := restored.Get("server-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccessToken != "token-abc" || got.Username != "alice" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !got.DateLastAccessed.Equal(now) {
		t.Errorf("expected DateLastAccessed %v, got %v", now, got.DateLastAccessed)
	}
	if len(got.Users) != 1 || got.Users[0].ID != "user-1" {
		t.Errorf("expected linked user to survive round trip, got %+v", got.Users)
	}
}

// TestCredentialStore_Import_Invalid tests up-front validation.
func TestCredentialStore_Import_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		data        Credentials
		errContains string
	}{
		{
			name: "missing address",
			data: Credentials{Servers: []ServerCredential{
				{ID: "server-1"},
			}},
			errContains: "no address",
		},
		{
			name: "no id and no token",
			data: Credentials{Servers: []ServerCredential{
				{Address: "http://a.example.com"},
			}},
			errContains: "no id",
		},
		{
			name: "duplicate ids",
			data: Credentials{Servers: []ServerCredential{
				{ID: "server-1", Address: "http://a.example.com"},
				{ID: "server-1", Address: "http://b.example.com"},
			}},
			errContains: "duplicate server id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewCredentialStore()
			store.AddOrUpdate(ServerCredential{ID: "keep", Address: "http://keep.example.com"})

			err := store.Import(tt.data)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error to contain %q, got %v", tt.errContains, err)
			}

			// A failed import must leave the store untouched.
			if _, err := store.Get("keep"); err != nil {
				t.Errorf("expected store unchanged after failed import, got %v", err)
			}
		})
	}
}

// TestCredentialStore_Import_APIKeyEntry tests that a bare API key entry
// with no server id passes validation.
func TestCredentialStore_Import_APIKeyEntry(t *testing.T) {
	store := NewCredentialStore()
	err := store.Import(Credentials{Servers: []ServerCredential{
		{Address: "http://jellyfin.local:8096", AccessToken: "api-key-xyz"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	servers := store.Servers()
	if len(servers) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(servers))
	}
	if !servers[0].IsAPIKey() {
		t.Error("expected entry to be recognized as an API key")
	}
}

// TestCredentialStore_RevokeToken tests that revocation keeps the entry.
func TestCredentialStore_RevokeToken(t *testing.T) {
	store := NewCredentialStore()
	store.AddOrUpdate(ServerCredential{ID: "server-1", Address: "http://a.example.com", AccessToken: "token"})

	store.RevokeToken("server-1")

	got, err := store.Get("server-1")
	if err != nil {
		t.Fatalf("expected entry to remain after revoke, got %v", err)
	}
	if got.AccessToken != "" {
		t.Errorf("expected cleared token, got %q", got.AccessToken)
	}
}

// TestCredentialStore_AddOrUpdateUser tests linked-user bookkeeping.
func TestCredentialStore_AddOrUpdateUser(t *testing.T) {
	store := NewCredentialStore()
	store.AddOrUpdate(ServerCredential{ID: "server-1", Address: "http://a.example.com"})

	if err := store.AddOrUpdateUser("server-1", LinkedUser{ID: "user-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddOrUpdateUser("server-1", LinkedUser{ID: "user-1", IsSignedInOffline: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get("server-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Users) != 1 {
		t.Fatalf("expected 1 linked user, got %d", len(got.Users))
	}
	if !got.Users[0].IsSignedInOffline {
		t.Error("expected user record to be replaced, not duplicated")
	}

	err = store.AddOrUpdateUser("no-such-server", LinkedUser{ID: "user-1"})
	if !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound, got %v", err)
	}
}

// TestServerCredential_IsAPIKey tests API-key detection.
func TestServerCredential_IsAPIKey(t *testing.T) {
	tests := []struct {
		name string
		cred ServerCredential
		want bool
	}{
		{"token without user", ServerCredential{AccessToken: "key"}, true},
		{"token with user", ServerCredential{AccessToken: "token", UserID: "user-1"}, false},
		{"no token", ServerCredential{UserID: "user-1"}, false},
		{"empty", ServerCredential{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.IsAPIKey(); got != tt.want {
				t.Errorf("IsAPIKey() = %v, want %v", got, tt.want)
			}
		})
	}
}
