package storage

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"png", "me.PNG", "avatars/kid-1/1700000000000.png"},
		{"path traversal stripped", "../../etc/passwd.jpg", "avatars/kid-1/1700000000000.jpg"},
		{"windows path", `C:\Users\kid\photo.jpeg`, "avatars/kid-1/1700000000000.jpeg"},
		{"no extension", "avatar", "avatars/kid-1/1700000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectName("kid-1", tt.filename, now); got != tt.want {
				t.Errorf("ObjectName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("piggybank-avatars", "avatars/kid 1/1.png")
	want := "https://storage.googleapis.com/piggybank-avatars/avatars/kid%201/1.png"
	if got != want {
		t.Errorf("PublicURL() = %q, want %q", got, want)
	}
}

func TestObjectNameFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"round trip", PublicURL("piggybank-avatars", "avatars/kid 1/1.png"), "avatars/kid 1/1.png", true},
		{"other bucket", "https://storage.googleapis.com/other/avatars/k/1.png", "", false},
		{"other host", "https://example.com/piggybank-avatars/avatars/k/1.png", "", false},
		{"outside avatar prefix", "https://storage.googleapis.com/piggybank-avatars/receipts/1.png", "", false},
		{"dot segments", "https://storage.googleapis.com/piggybank-avatars/avatars/../secret", "", false},
		{"not a url", "::", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ObjectNameFromURL("piggybank-avatars", tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ObjectNameFromURL() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
