package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/persistence/middleware"
	"github.com/aretw0/govform/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func mustEncrypt(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware: %v", err)
	}
	return mw
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSlotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	ctx := context.Background()
	key := "s1:govFormData"
	plain := `{"fullName":"Jane Doe","email":"jane@example.gov"}`

	if err := secure.Set(ctx, key, plain); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	stored, err := underlying.Get(ctx, key)
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if strings.Contains(stored, "Jane") {
		t.Fatalf("Expected value to be hidden, found: %s", stored)
	}
	if !strings.HasPrefix(stored, "enc:v1:") {
		t.Fatalf("Expected envelope prefix, got %s", stored)
	}

	loaded, err := secure.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if loaded != plain {
		t.Errorf("Expected %q, got %q", plain, loaded)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	oldStore := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)

	ctx := context.Background()
	key := "rotation:govFormStep"

	if err := oldStore.Set(ctx, key, "2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	newStore := mustEncrypt(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	got, err := newStore.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}
	if got != "2" {
		t.Errorf("Decryption with fallback key failed, got %q", got)
	}

	if err := newStore.Set(ctx, key, "3"); err != nil {
		t.Fatalf("Set with new key failed: %v", err)
	}

	if _, err := oldStore.Get(ctx, key); err == nil {
		t.Error("Expected failure when reading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlying := memory.NewStore()
	secure := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	_ = underlying.Set(ctx, "legacy:govFormStep", "1")
	if _, err := secure.Get(ctx, "legacy:govFormStep"); err != middleware.ErrNotEncrypted {
		t.Errorf("expected ErrNotEncrypted, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	}); err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}

func TestParseKey(t *testing.T) {
	raw := generateKey(t)
	key, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if string(key) != string(raw) {
		t.Error("decoded key differs")
	}
	if _, err := middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("tiny"))); err == nil {
		t.Error("expected size error")
	}
}
