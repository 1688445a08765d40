package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("s3cr3t-key", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecryptSecret(blob, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "s3cr3t-key" {
		t.Fatalf("got %q", got)
	}
	if _, err := DecryptSecret(blob, "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestEncryptSecretRejectsEmpty(t *testing.T) {
	if _, err := EncryptSecret("key", ""); err == nil {
		t.Error("empty password accepted")
	}
	if _, err := EncryptSecret("  ", "pw"); err == nil {
		t.Error("blank secret accepted")
	}
}

func TestLoadAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.key")
	blob, err := EncryptSecret("from-file", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     APIKeyConfig
		want    string
		wantErr error
	}{
		{"raw wins", APIKeyConfig{Raw: " raw ", EncryptedPath: path, Password: "pw"}, "raw", nil},
		{"file", APIKeyConfig{EncryptedPath: path, Password: "pw"}, "from-file", nil},
		{"none", APIKeyConfig{}, "", ErrNoKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadAPIKey(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal("abc", "abc") || Equal("abc", "abd") || Equal("abc", "ab") {
		t.Fatal("Equal mismatch")
	}
}
