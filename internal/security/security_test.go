package security

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr bool
	}{
		{"1234", false},
		{"0000", false},
		{"12a4", true},
		{"12345", true},
		{"123", true},
		{"", true},
		{" 1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.pin, func(t *testing.T) {
			err := ValidatePIN(tt.pin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePIN(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("4821")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if hash == "4821" || strings.Contains(hash, "4821") {
		t.Fatal("hash contains the plain PIN")
	}
	if !CheckPIN(hash, "4821") {
		t.Error("CheckPIN() rejected the correct PIN")
	}
	if CheckPIN(hash, "4822") {
		t.Error("CheckPIN() accepted a wrong PIN")
	}
	if _, err := HashPIN("12a4"); err == nil {
		t.Error("HashPIN() accepted a malformed PIN")
	}
}

func TestKidTokenRoundTrip(t *testing.T) {
	signer, err := NewKidTokenSigner([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewKidTokenSigner() error = %v", err)
	}
	created := time.UnixMilli(1700000000123)

	token, err := signer.Sign("kid-1", "session-1", created)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.KidID != "kid-1" || claims.SessionID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.CreatedTime().Equal(created) {
		t.Errorf("CreatedTime() = %v, want %v", claims.CreatedTime(), created)
	}
}

func TestKidTokenRejectsTampering(t *testing.T) {
	signer, _ := NewKidTokenSigner([]byte("test-secret"))
	other, _ := NewKidTokenSigner([]byte("other-secret"))

	token, err := signer.Sign("kid-1", "session-1", time.Now())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	foreign, _ := other.Sign("kid-1", "session-1", time.Now())

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"modified payload", tampered},
		{"unsigned", parts[0] + "." + parts[1] + "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.Parse(tt.token); err != ErrInvalidKidToken {
				t.Errorf("Parse() error = %v, want ErrInvalidKidToken", err)
			}
		})
	}
}

func TestNewKidTokenSignerRequiresSecret(t *testing.T) {
	if _, err := NewKidTokenSigner(nil); err == nil {
		t.Error("expected error for empty secret")
	}
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("GenerateSecret() length = %d, want 64", len(secret))
	}
}

func TestIsSecureRequest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  bool
	}{
		{"plain http", func(r *http.Request) {}, false},
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, true},
		{"forwarded proto", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := IsSecureRequest(r); got != tt.want {
				t.Errorf("IsSecureRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 3, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients must have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the window")
	}

	now = now.Add(3 * time.Minute)
	rl.sweep()
	if len(rl.visitors) != 0 {
		t.Errorf("sweep left %d visitors", len(rl.visitors))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/kid-session", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", want: "192.0.2.1"},
		{name: "forwarded ignored by default", forwarded: "203.0.113.5", want: "192.0.2.1"},
		{name: "real ip ignored by default", realIP: "203.0.113.9", want: "192.0.2.1"},
		{name: "right-most hop when trusted", forwarded: "198.51.100.7, 203.0.113.5", trustProxy: true, want: "203.0.113.5"},
		{name: "trailing empty hop skipped", forwarded: "203.0.113.5, ", trustProxy: true, want: "203.0.113.5"},
		{name: "real ip when trusted", realIP: "203.0.113.9", trustProxy: true, want: "203.0.113.9"},
		{name: "no headers when trusted", trustProxy: true, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "192.0.2.1:1234"
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterMiddlewareIgnoresSpoofedForwarding(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := NewRateLimiter(ctx, 1, time.Minute).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 2)
	for i := range codes {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v, want [200 429]", codes)
	}
}
