// Package secrets provides AES-256-GCM blob encryption for operator
// credentials stored on disk. The master key lives in the OS keyring when one
// is available, with a file fallback under the console state directory for
// headless hosts.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ares-console/ares/internal/config"
	"github.com/zalando/go-keyring"
)

const keyFileName = "master.key"
const keyringService = "ares.console.credentials"
const keyringUser = "master-key"

type encryptedBlob struct {
	Version    string `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// EncryptBlob encrypts plain bytes using AES-256-GCM with the master key.
func EncryptBlob(plain []byte) ([]byte, error) {
	key, err := LoadOrCreateMasterKey()
	if err != nil {
		return nil, err
	}
	return EncryptBlobWithKey(plain, key)
}

// EncryptBlobWithKey encrypts plain bytes using the given 32-byte AES key.
func EncryptBlobWithKey(plain, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, plain, nil)
	out := encryptedBlob{
		Version:    "v1",
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(ciphertext),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecryptBlob decrypts an AES-256-GCM encrypted blob using the master key.
// For backward compatibility, plaintext JSON is returned as-is.
func DecryptBlob(data []byte) ([]byte, error) {
	key, err := LoadOrCreateMasterKey()
	if err != nil {
		return nil, err
	}
	return DecryptBlobWithKey(data, key)
}

// DecryptBlobWithKey decrypts an encrypted blob using the given 32-byte AES key.
// For backward compatibility, plaintext JSON is returned as-is.
func DecryptBlobWithKey(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty encrypted blob")
	}
	var wrapped encryptedBlob
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return data, nil
	}
	if wrapped.Version == "" || wrapped.Nonce == "" || wrapped.Ciphertext == "" {
		return data, nil
	}
	if wrapped.Version != "v1" {
		return nil, fmt.Errorf("unsupported blob version: %s", wrapped.Version)
	}
	nonce, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(wrapped.Nonce))
	if err != nil {
		return nil, err
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(wrapped.Ciphertext))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return plain, nil
}

// LoadOrCreateMasterKey returns the 32-byte AES master key, creating one if
// necessary. Priority: ARES_MASTER_KEY env, then the configured backend
// (keyring / key file).
func LoadOrCreateMasterKey() ([]byte, error) {
	if envKey := strings.TrimSpace(os.Getenv("ARES_MASTER_KEY")); envKey != "" {
		key, err := DecodeMasterKey(envKey)
		if err != nil {
			return nil, fmt.Errorf("invalid ARES_MASTER_KEY: %w", err)
		}
		return key, nil
	}

	switch resolveKeyBackend() {
	case "keyring":
		return loadOrCreateMasterKeyKeyringOnly()
	case "file":
		return loadOrCreateMasterKeyFileOnly()
	default:
		if key, err := loadOrCreateMasterKeyKeyringOnly(); err == nil {
			return key, nil
		}
		return loadOrCreateMasterKeyFileOnly()
	}
}

// DecodeMasterKey base64-decodes a master key and validates its length (32 bytes).
func DecodeMasterKey(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	decoded := make([]byte, base64.RawStdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.RawStdEncoding.Decode(decoded, []byte(trimmed))
	if err != nil {
		return nil, err
	}
	if n != 32 {
		return nil, fmt.Errorf("invalid master key length: %d", n)
	}
	return decoded[:n], nil
}

// --- internal helpers ---

func resolveKeyBackend() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ARES_KEY_BACKEND")))
	switch v {
	case "keyring", "file", "auto":
		return v
	default:
		// File is the safe default: keyring access can hang or prompt on
		// headless hosts.
		return "file"
	}
}

func loadOrCreateMasterKeyKeyringOnly() ([]byte, error) {
	val, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		return DecodeMasterKey(val)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	encoded := base64.RawStdEncoding.EncodeToString(key)
	if setErr := keyring.Set(keyringService, keyringUser, encoded); setErr != nil {
		return nil, setErr
	}
	return key, nil
}

func loadOrCreateMasterKeyFileOnly() ([]byte, error) {
	stateDir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, err
	}
	keyPath := filepath.Join(stateDir, keyFileName)
	if data, err := os.ReadFile(keyPath); err == nil {
		return DecodeMasterKey(strings.TrimSpace(string(data)))
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	encoded := base64.RawStdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyPath, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, err
	}
	return key, nil
}
