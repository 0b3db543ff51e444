package store

import (
	"sync"

	"golang.org/x/oauth2"
)

// RoleAdmin is the privileged role required for an authenticated admin session
const RoleAdmin = "admin"

// Credential is the bearer credential pair with its owner identity and role.
type Credential struct {
	Token    *oauth2.Token `json:"token,omitempty"`
	Identity string        `json:"identity,omitempty"`
	Role     string        `json:"role,omitempty"`
}

// AccessToken returns the access token or empty string
func (c Credential) AccessToken() string {
	if c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

// RefreshToken returns the refresh token or empty string
func (c Credential) RefreshToken() string {
	if c.Token == nil {
		return ""
	}
	return c.Token.RefreshToken
}

// Record is a snapshot of the stored credential stamped with its generation.
type Record struct {
	Credential
	Generation uint64
}

// Authenticated reports an access token held by the privileged role
func (r Record) Authenticated() bool {
	return r.AccessToken() != "" && r.Role == RoleAdmin
}

// Store holds the single credential record. Set and Clear replace the whole
// record and bump the generation; the compare variants only apply when the
// generation is unchanged, which lets slow operations detect they were overtaken.
type Store interface {
	Lookup() Record
	AccessToken() string
	Generation() uint64
	Set(credential *Credential) uint64
	Clear() uint64
	CompareAndSet(generation uint64, credential *Credential) bool
	CompareAndClear(generation uint64) bool
}

type memoryStore struct {
	mu         sync.RWMutex
	credential Credential
	generation uint64
	// onChange runs under the write lock after every mutation
	onChange func(credential Credential)
}

func (m *memoryStore) Lookup() Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Record{Credential: cloneCredential(m.credential), Generation: m.generation}
}

func (m *memoryStore) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential.AccessToken()
}

func (m *memoryStore) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *memoryStore) Set(credential *Credential) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(credential)
	return m.generation
}

func (m *memoryStore) Clear() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(nil)
	return m.generation
}

func (m *memoryStore) CompareAndSet(generation uint64, credential *Credential) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return false
	}
	m.replace(credential)
	return true
}

func (m *memoryStore) CompareAndClear(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return false
	}
	m.replace(nil)
	return true
}

// replace is the single mutation point; callers hold the write lock.
func (m *memoryStore) replace(credential *Credential) {
	m.credential = Credential{}
	if credential != nil {
		m.credential = cloneCredential(*credential)
	}
	m.generation++
	if m.onChange != nil {
		m.onChange(m.credential)
	}
}

func cloneCredential(credential Credential) Credential {
	ret := credential
	if credential.Token != nil {
		token := *credential.Token
		ret.Token = &token
	}
	return ret
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{}
}
