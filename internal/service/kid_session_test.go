package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"piggybank/internal/security"
)

func newTestSessionManager(t *testing.T, f *fixture) *KidSessionManager {
	t.Helper()
	signer, err := security.NewKidTokenSigner([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewKidTokenSigner() error = %v", err)
	}
	return NewKidSessionManager(f.kids, signer, zerolog.Nop())
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == KidSessionCookie {
			return c
		}
	}
	return nil
}

func requestWithCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/kid-session", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func TestKidSessionCreate(t *testing.T) {
	f := newFixture(t)
	m := newTestSessionManager(t, f)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada", Age: intPtr(8), PIN: "1234"})
	noPIN := f.kid(t, parent.ID, CreateKidInput{Name: "Bo"})

	tests := []struct {
		name    string
		kidID   string
		pin     string
		wantErr error
	}{
		{name: "correct PIN", kidID: kid.ID, pin: "1234"},
		{name: "wrong PIN", kidID: kid.ID, pin: "4321", wantErr: ErrInvalidPIN},
		{name: "unknown kid", kidID: "missing", pin: "1234", wantErr: ErrKidNotFound},
		{name: "no PIN set", kidID: noPIN.ID, pin: "1234", wantErr: ErrPINNotSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			sessionID, public, err := m.Create(context.Background(), rec, requestWithCookie(nil), tt.kidID, tt.pin)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				if c := sessionCookie(rec); c != nil {
					t.Errorf("Create() set cookie on failure: %v", c)
				}
				return
			}

			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if sessionID == "" || public == nil || public.ID != kid.ID {
				t.Fatalf("Create() = %q, %+v", sessionID, public)
			}
			c := sessionCookie(rec)
			if c == nil {
				t.Fatal("Create() did not set the session cookie")
			}
			if !c.HttpOnly || c.MaxAge != 3600 || c.SameSite != http.SameSiteLaxMode {
				t.Errorf("cookie attributes = %+v", c)
			}
		})
	}
}

func TestKidSessionExpiry(t *testing.T) {
	f := newFixture(t)
	m := newTestSessionManager(t, f)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada", PIN: "1234"})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return start })

	rec := httptest.NewRecorder()
	sessionID, _, err := m.Create(context.Background(), rec, requestWithCookie(nil), kid.ID, "1234")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	cookie := sessionCookie(rec)

	tests := []struct {
		name      string
		elapsed   time.Duration
		wantValid bool
	}{
		{name: "fresh", elapsed: 0, wantValid: true},
		{name: "just before expiry", elapsed: 3599 * time.Second, wantValid: true},
		{name: "exactly one hour", elapsed: time.Hour, wantValid: true},
		{name: "just after expiry", elapsed: 3601 * time.Second, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetClock(func() time.Time { return start.Add(tt.elapsed) })
			rec := httptest.NewRecorder()

			info, err := m.Read(context.Background(), rec, requestWithCookie(cookie))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}

			if !tt.wantValid {
				if info != nil {
					t.Fatalf("Read() = %+v, want nil", info)
				}
				c := sessionCookie(rec)
				if c == nil || c.MaxAge >= 0 {
					t.Errorf("expired session did not clear cookie: %v", c)
				}
				return
			}

			if info == nil {
				t.Fatal("Read() = nil, want session")
			}
			if info.SessionID != sessionID || info.Kid.ID != kid.ID {
				t.Errorf("Read() = %+v", info)
			}
			if !info.CreatedAt.Equal(start) {
				t.Errorf("CreatedAt = %v, want %v", info.CreatedAt, start)
			}
		})
	}
}

func TestKidSessionReadInvalid(t *testing.T) {
	f := newFixture(t)
	m := newTestSessionManager(t, f)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada", PIN: "1234"})

	rec := httptest.NewRecorder()
	if _, _, err := m.Create(context.Background(), rec, requestWithCookie(nil), kid.ID, "1234"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	valid := sessionCookie(rec)

	otherSigner, _ := security.NewKidTokenSigner([]byte("other-secret"))
	forged, _ := otherSigner.Sign(kid.ID, "session", time.Now())

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		info, err := m.Read(context.Background(), rec, requestWithCookie(nil))
		if err != nil || info != nil {
			t.Fatalf("Read() = %v, %v", info, err)
		}
		if sessionCookie(rec) != nil {
			t.Error("Read() without a cookie should not set one")
		}
	})

	for name, value := range map[string]string{
		"garbage":      "not-a-token",
		"tampered":     valid.Value + "x",
		"wrong secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			info, err := m.Read(context.Background(), rec, requestWithCookie(&http.Cookie{Name: KidSessionCookie, Value: value}))
			if err != nil || info != nil {
				t.Fatalf("Read() = %v, %v", info, err)
			}
			if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
				t.Errorf("invalid session did not clear cookie: %v", c)
			}
		})
	}

	t.Run("kid deleted", func(t *testing.T) {
		if err := f.kidSvc.DeleteKid(context.Background(), parent.ID, kid.ID); err != nil {
			t.Fatalf("DeleteKid() error = %v", err)
		}
		rec := httptest.NewRecorder()
		info, err := m.Read(context.Background(), rec, requestWithCookie(valid))
		if err != nil || info != nil {
			t.Fatalf("Read() = %v, %v", info, err)
		}
		if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
			t.Errorf("orphaned session did not clear cookie: %v", c)
		}
	})
}

func TestKidSessionClear(t *testing.T) {
	f := newFixture(t)
	m := newTestSessionManager(t, f)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		m.Clear(rec, requestWithCookie(nil))
		if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
			t.Errorf("Clear() #%d cookie = %v", i+1, c)
		}
	}
}
