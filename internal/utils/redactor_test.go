package utils

import (
	"net/http"
	"strings"
	"testing"
)

func TestHeaderRedactor_IsSensitiveHeader(t *testing.T) {
	redactor := NewHeaderRedactor()

	tests := []struct {
		name       string
		headerName string
		expected   bool
	}{
		{"Authorization敏感", "Authorization", true},
		{"Cookie敏感", "Cookie", true},
		{"X-API-Key敏感", "X-API-Key", true},
		{"X-Token敏感", "X-Token", true},
		{"不区分大小写", "COOKIE", true},
		{"User-Agent普通", "User-Agent", false},
		{"Referer普通", "Referer", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactor.IsSensitiveHeader(tt.headerName); got != tt.expected {
				t.Errorf("期望 %v, 实际 %v", tt.expected, got)
			}
		})
	}
}

func TestHeaderRedactor_Redact(t *testing.T) {
	redactor := NewHeaderRedactor()

	t.Run("Cookie值脱敏", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Cookie", "ttwid=1%7Cabcdefghijklmn; passport_csrf_token=xyz")
		headers.Set("User-Agent", "Mozilla/5.0")

		redacted := redactor.Redact(headers)

		if redacted["Cookie"] == headers.Get("Cookie") {
			t.Error("Cookie应被脱敏")
		}
		if !strings.Contains(redacted["Cookie"], "*") {
			t.Errorf("脱敏值应包含星号: %s", redacted["Cookie"])
		}
		if redacted["User-Agent"] != "Mozilla/5.0" {
			t.Error("普通头部不应被脱敏")
		}
	})

	t.Run("Bearer Token仅显示前缀", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer secret-token-12345")

		redacted := redactor.Redact(headers)
		if redacted["Authorization"] != "Bearer ***" {
			t.Errorf("期望'Bearer ***', 实际'%s'", redacted["Authorization"])
		}
	})

	t.Run("短密钥完全隐藏", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Token", "abc")

		redacted := redactor.Redact(headers)
		if redacted["X-Token"] != "***" {
			t.Errorf("短密钥应完全隐藏, 实际'%s'", redacted["X-Token"])
		}
	})
}
