package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workoai/referrals/internal/storage"
	"github.com/workoai/referrals/internal/store"
	"github.com/workoai/referrals/types"
)

type memoryUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]types.User
	failGet error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[uuid.UUID]types.User{}}
}

func (m *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return types.User{}, m.failGet
	}
	user, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return types.User{}, m.failGet
	}
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

// memoryReferrals mirrors the SQL repository's owner scoping.
type memoryReferrals struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]types.Referral
	clock time.Time
}

func newMemoryReferrals() *memoryReferrals {
	return &memoryReferrals{
		rows:  map[uuid.UUID]types.Referral{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryReferrals) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryReferrals) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Referral, 0)
	for _, r := range m.rows {
		if r.ReferredBy == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryReferrals) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (types.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.ReferredBy != ownerID {
		return types.Referral{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memoryReferrals) Create(ctx context.Context, referral types.Referral) (types.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	referral.ID = uuid.New()
	referral.CreatedAt = m.tick()
	referral.UpdatedAt = referral.CreatedAt
	m.rows[referral.ID] = referral
	return referral, nil
}

func (m *memoryReferrals) UpdateStatusForOwner(ctx context.Context, id, ownerID uuid.UUID, status types.ReferralStatus) (types.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.ReferredBy != ownerID {
		return types.Referral{}, store.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = m.tick()
	m.rows[id] = r
	return r, nil
}

type recordingPublisher struct {
	events []types.ReferralEvent
	err    error
}

func (p *recordingPublisher) PublishReferralEvent(ctx context.Context, event types.ReferralEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.failPut != nil {
		return m.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return storage.ErrObjectExists
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var errBoom = errors.New("boom")
