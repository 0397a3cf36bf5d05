package directory

import (
	"context"
	"sync"

	goAdmin "github.com/MrEthical07/goAdmin"
)

var _ goAdmin.Directory = (*Memory)(nil)

// Memory is an in-process goAdmin.Directory.
type Memory struct {
	mu          sync.RWMutex
	byName      map[string]goAdmin.Principal
	authorities map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		byName:      make(map[string]goAdmin.Principal),
		authorities: make(map[string][]string),
	}
}

// Put adds or replaces a principal. p.PasswordHash must already be hashed.
func (m *Memory) Put(p goAdmin.Principal, authorities ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byName[p.Username]; ok && old.UserID != p.UserID {
		delete(m.authorities, old.UserID)
	}
	m.byName[p.Username] = p
	m.authorities[p.UserID] = append([]string(nil), authorities...)
}

// Remove deletes the principal named username.
func (m *Memory) Remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byName[username]; ok {
		delete(m.authorities, p.UserID)
		delete(m.byName, username)
	}
}

func (m *Memory) FindPrincipalByUsername(_ context.Context, username string) (goAdmin.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byName[username]
	if !ok {
		return goAdmin.Principal{}, goAdmin.ErrPrincipalNotFound
	}
	return p, nil
}

func (m *Memory) LoadAuthorities(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.authorities[userID]...), nil
}
