package jellyfin

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ServerCredential is a remembered server entry. Field names match the
// credential format used by other Jellyfin clients, so exported data is
// interchangeable with them. Note the lowercase "address" key; that is
// the historical wire spelling.
type ServerCredential struct {
	ID               string       `json:"Id,omitempty"`
	Name             string       `json:"Name,omitempty"`
	Address          string       `json:"address"`
	AccessToken      string       `json:"AccessToken,omitempty"`
	UserID           string       `json:"UserId,omitempty"`
	Username         string       `json:"Username,omitempty"`
	DateLastAccessed time.Time    `json:"DateLastAccessed,omitzero"`
	Users            []LinkedUser `json:"Users,omitempty"`
}

// LinkedUser records a user known to have signed in to a server.
type LinkedUser struct {
	ID                string `json:"Id"`
	IsSignedInOffline bool   `json:"IsSignedInOffline,omitempty"`
}

// IsAPIKey reports whether the credential is a static server-issued API
// key rather than a per-device user token. API keys carry a token but no
// user identity.
func (c ServerCredential) IsAPIKey() bool {
	return c.AccessToken != "" && c.UserID == ""
}

// Credentials is the serializable form of the credential store. It is
// the exact structure accepted by Client.Authenticate and produced by
// CredentialStore.Export:
//
//	{"Servers": [{"address": "...", "AccessToken": "...", ...}, ...]}
type Credentials struct {
	Servers []ServerCredential `json:"Servers"`
}

// CredentialStore holds the set of remembered servers and tracks which
// one is active. At most one entry is active at a time. The store is
// safe for concurrent use; reads dominate during steady-state operation.
type CredentialStore struct {
	mu       sync.RWMutex
	servers  []ServerCredential
	activeID string
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// AddOrUpdate inserts a credential or replaces the entry sharing its
// server id. Entries are never duplicated: repeated identical input is a
// no-op beyond refreshing the stored copy. When an existing entry carries
// a newer DateLastAccessed than the incoming one, the existing entry wins
// and is returned unchanged.
func (s *CredentialStore) AddOrUpdate(cred ServerCredential) ServerCredential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addOrUpdateLocked(cred)
}

func (s *CredentialStore) addOrUpdateLocked(cred ServerCredential) ServerCredential {
	if cred.DateLastAccessed.IsZero() {
		cred.DateLastAccessed = time.Now().UTC().Truncate(time.Second)
	}

	for i, existing := range s.servers {
		if existing.ID != cred.ID || existing.ID == "" {
			continue
		}
		if existing.DateLastAccessed.After(cred.DateLastAccessed) {
			return existing
		}
		merged := mergeCredential(existing, cred)
		s.servers[i] = merged
		return merged
	}

	s.servers = append(s.servers, cred)
	return cred
}

// mergeCredential overlays the non-empty fields of an update onto an
// existing entry. Unknown data is never invented: absent fields on the
// update leave the existing values in place.
func mergeCredential(existing, update ServerCredential) ServerCredential {
	out := existing
	out.DateLastAccessed = update.DateLastAccessed
	if update.Name != "" {
		out.Name = update.Name
	}
	if update.Address != "" {
		out.Address = update.Address
	}
	if update.AccessToken != "" {
		out.AccessToken = update.AccessToken
	}
	if update.UserID != "" {
		out.UserID = update.UserID
	}
	if update.Username != "" {
		out.Username = update.Username
	}
	if len(update.Users) > 0 {
		out.Users = update.Users
	}
	return out
}

// AddOrUpdateUser records a user against a server entry, replacing any
// existing record with the same user id.
func (s *CredentialStore) AddOrUpdateUser(serverID string, user LinkedUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.servers {
		if s.servers[i].ID != serverID {
			continue
		}
		for j, existing := range s.servers[i].Users {
			if existing.ID == user.ID {
				s.servers[i].Users[j] = user
				return nil
			}
		}
		s.servers[i].Users = append(s.servers[i].Users, user)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
}

// SetActive marks the entry with the given server id as the active
// credential. It fails with ErrServerNotFound when no entry matches.
func (s *CredentialStore) SetActive(serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, server := range s.servers {
		if server.ID == serverID {
			s.activeID = serverID
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
}

// Active returns the currently active credential. The second return is
// false when no entry is active.
func (s *CredentialStore) Active() (ServerCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return ServerCredential{}, false
	}
	for _, server := range s.servers {
		if server.ID == s.activeID {
			return server, true
		}
	}
	return ServerCredential{}, false
}

// Get returns the credential with the given server id.
func (s *CredentialStore) Get(serverID string) (ServerCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, server := range s.servers {
		if server.ID == serverID {
			return server, nil
		}
	}
	return ServerCredential{}, fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
}

// Servers returns a copy of all entries ordered by DateLastAccessed,
// most recent first.
func (s *CredentialStore) Servers() []ServerCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ServerCredential, len(s.servers))
	copy(out, s.servers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateLastAccessed.After(out[j].DateLastAccessed)
	})
	return out
}

// RevokeToken clears the stored access token of the entry with the given
// server id. The entry itself is kept so the server remains known.
func (s *CredentialStore) RevokeToken(serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.servers {
		if s.servers[i].ID == serverID {
			s.servers[i].AccessToken = ""
		}
	}
}

// Clear removes all entries and the active marker.
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.servers = nil
	s.activeID = ""
}

// Export returns a snapshot of the store in the portable credential
// format. The result round-trips through Import and Client.Authenticate.
func (s *CredentialStore) Export() Credentials {
	return Credentials{Servers: s.Servers()}
}

// Import replaces the store contents with the given credential data.
// The data is validated up front; a malformed entry rejects the whole
// import without mutating the store.
func (s *CredentialStore) Import(data Credentials) error {
	seen := make(map[string]bool, len(data.Servers))
	for i, server := range data.Servers {
		if server.Address == "" {
			return fmt.Errorf("jellyfin: invalid credentials: server %d has no address", i)
		}
		if server.ID == "" && !server.IsAPIKey() {
			return fmt.Errorf("jellyfin: invalid credentials: server %d has no id and no access token", i)
		}
		if server.ID != "" {
			if seen[server.ID] {
				return fmt.Errorf("jellyfin: invalid credentials: duplicate server id %q", server.ID)
			}
			seen[server.ID] = true
		}
	}

	servers := make([]ServerCredential, len(data.Servers))
	copy(servers, data.Servers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers = servers
	s.activeID = ""
	return nil
}
