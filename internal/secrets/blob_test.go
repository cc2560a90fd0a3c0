package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

// ---------- EncryptBlobWithKey / DecryptBlobWithKey roundtrip ----------

func TestEncryptDecryptBlobWithKey_Roundtrip(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	plain := []byte(`{"access_token":"at-1","refresh_token":"rt-1"}`)
	encrypted, err := EncryptBlobWithKey(plain, key)
	if err != nil {
		t.Fatalf("EncryptBlobWithKey: %v", err)
	}

	decrypted, err := DecryptBlobWithKey(encrypted, key)
	if err != nil {
		t.Fatalf("DecryptBlobWithKey: %v", err)
	}

	if string(decrypted) != string(plain) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", decrypted, plain)
	}
}

// ---------- DecryptBlobWithKey backward compat (plaintext JSON) ----------

func TestDecryptBlobWithKey_PlaintextJSON(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	// Plain JSON without version/nonce/ciphertext should be returned as-is.
	plainJSON := []byte(`{"access_token":"at-legacy","expiry":"2026-01-01T00:00:00Z"}`)
	got, err := DecryptBlobWithKey(plainJSON, key)
	if err != nil {
		t.Fatalf("DecryptBlobWithKey plaintext JSON: %v", err)
	}
	if string(got) != string(plainJSON) {
		t.Fatalf("expected plaintext passthrough, got %q", got)
	}
}

// ---------- DecryptBlobWithKey empty input ----------

func TestDecryptBlobWithKey_EmptyInput(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	_, err := DecryptBlobWithKey([]byte{}, key)
	if err == nil {
		t.Fatal("expected error for empty input, got nil")
	}
}

// ---------- DecryptBlobWithKey wrong key ----------

func TestDecryptBlobWithKey_WrongKey(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	plain := []byte("secret payload")
	encrypted, err := EncryptBlobWithKey(plain, key)
	if err != nil {
		t.Fatalf("EncryptBlobWithKey: %v", err)
	}

	wrongKey := make([]byte, 32)
	if _, err := rand.Read(wrongKey); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	_, err = DecryptBlobWithKey(encrypted, wrongKey)
	if err == nil {
		t.Fatal("expected error when decrypting with wrong key, got nil")
	}
}

// ---------- DecodeMasterKey ----------

func TestDecodeMasterKey_Valid(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	encoded := base64.RawStdEncoding.EncodeToString(key)

	decoded, err := DecodeMasterKey(encoded)
	if err != nil {
		t.Fatalf("DecodeMasterKey: %v", err)
	}
	if len(decoded) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(decoded))
	}
	for i := range key {
		if decoded[i] != key[i] {
			t.Fatalf("decoded key mismatch at byte %d", i)
		}
	}
}

func TestDecodeMasterKey_WrongLength(t *testing.T) {
	short := make([]byte, 16)
	if _, err := rand.Read(short); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	encoded := base64.RawStdEncoding.EncodeToString(short)

	_, err := DecodeMasterKey(encoded)
	if err == nil {
		t.Fatal("expected error for wrong key length, got nil")
	}
}

func TestDecodeMasterKey_InvalidBase64(t *testing.T) {
	_, err := DecodeMasterKey("!!!not-valid-base64!!!")
	if err == nil {
		t.Fatal("expected error for invalid base64, got nil")
	}
}

// ---------- LoadOrCreateMasterKey env override ----------

func TestLoadOrCreateMasterKey_EnvOverride(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	encoded := base64.RawStdEncoding.EncodeToString(key)

	t.Setenv("ARES_MASTER_KEY", encoded)

	got, err := LoadOrCreateMasterKey()
	if err != nil {
		t.Fatalf("LoadOrCreateMasterKey: %v", err)
	}
	if base64.RawStdEncoding.EncodeToString(got) != encoded {
		t.Fatal("expected env master key to be used")
	}
}

func TestLoadOrCreateMasterKey_InvalidEnv(t *testing.T) {
	t.Setenv("ARES_MASTER_KEY", "too-short")

	_, err := LoadOrCreateMasterKey()
	if err == nil {
		t.Fatal("expected error for invalid env master key, got nil")
	}
}

// ---------- LoadOrCreateMasterKey file backend ----------

func TestLoadOrCreateMasterKey_FileBackend(t *testing.T) {
	t.Setenv("ARES_HOME", t.TempDir())
	t.Setenv("ARES_MASTER_KEY", "")
	t.Setenv("ARES_KEY_BACKEND", "file")

	first, err := LoadOrCreateMasterKey()
	if err != nil {
		t.Fatalf("LoadOrCreateMasterKey first call: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32-byte key, got %d bytes", len(first))
	}

	// The key file must exist with owner-only permissions.
	keyPath := filepath.Join(os.Getenv("ARES_HOME"), ".ares", keyFileName)
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected key file mode 0600, got %v", info.Mode().Perm())
	}

	// A second call must load the same key, not mint a new one.
	second, err := LoadOrCreateMasterKey()
	if err != nil {
		t.Fatalf("LoadOrCreateMasterKey second call: %v", err)
	}
	if base64.RawStdEncoding.EncodeToString(first) != base64.RawStdEncoding.EncodeToString(second) {
		t.Fatal("expected stable master key across calls")
	}
}
