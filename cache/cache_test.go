package cache

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", "cache:pull_request:abcd1234", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"newline", "cache:a\nb", ErrInvalidKey},
		{"carriage return", "cache:a\rb", ErrInvalidKey},
		{"too long", strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
		{"max length", strings.Repeat("k", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateKey(tt.key); err != tt.wantErr {
				t.Errorf("ValidateKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
