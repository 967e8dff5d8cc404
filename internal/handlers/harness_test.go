package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/workoai/referrals/config"
	"github.com/workoai/referrals/internal/services"
	"github.com/workoai/referrals/internal/storage"
	"github.com/workoai/referrals/internal/store"
	"github.com/workoai/referrals/types"
)

type memoryUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]types.User
}

func (m *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.rows[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.rows {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.rows[user.ID] = user
	return user, nil
}

type memoryReferrals struct {
	mu   sync.Mutex
	rows map[uuid.UUID]types.Referral
	seq  int
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
	m.seq++
	referral.ID = uuid.New()
	referral.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
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
	r.UpdatedAt = time.Now().UTC()
	m.rows[id] = r
	return r, nil
}

// testAPI mounts the handlers the same way the server does, on top of
// in-memory repositories and a temporary upload directory.
type testAPI struct {
	t      *testing.T
	server *httptest.Server
	dir    string
}

func newTestAPI(t *testing.T, limits config.RateLimitConfig) *testAPI {
	t.Helper()

	auth, err := services.NewAuthService(
		&memoryUsers{rows: map[uuid.UUID]types.User{}},
		config.AuthConfig{JWTSecret: "test-secret", Issuer: "referrals", TokenTTL: time.Hour},
		nil,
	)
	require.NoError(t, err)

	referrals := services.NewReferralService(&memoryReferrals{rows: map[uuid.UUID]types.Referral{}}, nil, nil)

	dir := t.TempDir()
	disk, err := storage.NewLocalDisk(dir)
	require.NoError(t, err)
	documents := services.NewDocumentService(storage.NewStorage(disk), 1<<10, nil)

	authMiddleware := RequireAuth(auth)
	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, auth, RateLimitByIP(limits))
	})
	router.Route("/api/referrals", func(r chi.Router) {
		ReferralRouter(r, referrals, authMiddleware)
	})
	router.Route("/api/upload", func(r chi.Router) {
		UploadRouter(r, documents, authMiddleware)
	})
	router.Route("/uploads", func(r chi.Router) {
		DocumentRouter(r, documents)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, dir: dir}
}

func (a *testAPI) do(method, path, token string, body any) *http.Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (a *testAPI) register(email, password string) AuthResponse {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return decodeBody[AuthResponse](a.t, resp)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func noLimits() config.RateLimitConfig {
	return config.RateLimitConfig{}
}
