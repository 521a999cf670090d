package httpmetrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "/"},
		{"/health", "/health"},
		{"/api/messages/3b6f3a52-9c1e-4d2a-8f26-0f6a6a4f9d11", "/api/messages/{id}"},
		{"/api/messages/send/3b6f3a52-9c1e-4d2a-8f26-0f6a6a4f9d11", "/api/messages/send/{id}"},
		{"/api/things/12345", "/api/things/{param}"},
		{"/api/messages/users", "/api/messages/users"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.path); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
