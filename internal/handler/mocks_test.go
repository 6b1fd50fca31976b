package handler

import (
	"context"
	"sync"
	"time"

	"activation-key-service/internal/domain"
)

// memKeyRepository はテスト用のインメモリ鍵リポジトリ。
type memKeyRepository struct {
	mu      sync.Mutex
	keys    []*domain.ActivationKey
	nextID  uint
	err     error
	updates int
}

func (m *memKeyRepository) find(digest string) (int, *domain.ActivationKey) {
	for i, k := range m.keys {
		if k.Digest == digest {
			return i, k
		}
	}
	return -1, nil
}

func (m *memKeyRepository) Create(ctx context.Context, digest string) (*domain.ActivationKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, k := m.find(digest); k != nil {
		return nil, domain.ErrKeyAlreadyExists
	}
	m.nextID++
	k := &domain.ActivationKey{ID: m.nextID, Digest: digest, State: domain.KeyStateCreated, Version: 1, CreatedAt: time.Now().UTC()}
	m.keys = append(m.keys, k)
	c := *k
	return &c, nil
}

func (m *memKeyRepository) Update(ctx context.Context, digest string, mutate func(*domain.ActivationKey) (bool, error)) (*domain.ActivationKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	i, k := m.find(digest)
	if k == nil {
		return nil, domain.ErrKeyNotFound
	}
	work := *k
	changed, err := mutate(&work)
	if err != nil {
		return nil, err
	}
	if changed {
		work.Version++
		m.keys[i] = &work
		m.updates++
	}
	c := work
	return &c, nil
}

func (m *memKeyRepository) Delete(ctx context.Context, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	i, k := m.find(digest)
	if k == nil {
		return domain.ErrKeyNotFound
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	return nil
}

func (m *memKeyRepository) FindAll(ctx context.Context) ([]*domain.ActivationKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]*domain.ActivationKey, len(m.keys))
	for i, k := range m.keys {
		c := *k
		result[i] = &c
	}
	return result, nil
}

// put は任意の状態の鍵を直接登録する。
func (m *memKeyRepository) put(k domain.ActivationKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	k.ID = m.nextID
	m.keys = append(m.keys, &k)
}

// memIPSet はテスト用のIP集合。管理者とブラックリストの両方に使う。
type memIPSet struct {
	mu  sync.Mutex
	ips []string
	err error
}

func (m *memIPSet) Exists(ctx context.Context, ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, v := range m.ips {
		if v == ip {
			return true, nil
		}
	}
	return false, nil
}

func (m *memIPSet) add(ip string) (uint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.ips {
		if v == ip {
			return 0, false
		}
	}
	m.ips = append(m.ips, ip)
	return uint(len(m.ips)), true
}

func (m *memIPSet) Delete(ctx context.Context, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.ips {
		if v == ip {
			m.ips = append(m.ips[:i], m.ips[i+1:]...)
			return nil
		}
	}
	return domain.ErrAdminNotFound
}

type memAdminRepository struct{ memIPSet }

func (m *memAdminRepository) Create(ctx context.Context, ip string) (*domain.AdminEntry, error) {
	id, ok := m.add(ip)
	if !ok {
		return nil, domain.ErrAdminAlreadyExists
	}
	return &domain.AdminEntry{ID: id, IP: ip}, nil
}

func (m *memAdminRepository) FindAll(ctx context.Context) ([]*domain.AdminEntry, error) {
	result := make([]*domain.AdminEntry, len(m.ips))
	for i, ip := range m.ips {
		result[i] = &domain.AdminEntry{ID: uint(i + 1), IP: ip}
	}
	return result, nil
}

type memBlacklistRepository struct{ memIPSet }

func (m *memBlacklistRepository) Create(ctx context.Context, ip string) (*domain.BlacklistEntry, error) {
	id, ok := m.add(ip)
	if !ok {
		return nil, domain.ErrIPAlreadyBlacklisted
	}
	return &domain.BlacklistEntry{ID: id, IP: ip}, nil
}

func (m *memBlacklistRepository) FindAll(ctx context.Context) ([]*domain.BlacklistEntry, error) {
	result := make([]*domain.BlacklistEntry, len(m.ips))
	for i, ip := range m.ips {
		result[i] = &domain.BlacklistEntry{ID: uint(i + 1), IP: ip}
	}
	return result, nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }
