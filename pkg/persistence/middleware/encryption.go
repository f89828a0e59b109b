package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

// ErrNotSealed is returned when a stored session carries no ciphertext and
// plaintext reads are not allowed.
var ErrNotSealed = errors.New("session is missing its encrypted envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new snapshots. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key fails,
	// so keys can be rotated without dropping workouts in progress.
	FallbackKeys [][]byte

	// AllowPlaintext accepts snapshots written before encryption was enabled.
	AllowPlaintext bool
}

// The ciphertext travels as a single execution entry in a slot no real
// session uses, so any SessionStore can hold the envelope unchanged.
const (
	sealedSlot   = -1
	sealedPrefix = "sealed:"
)

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals every snapshot with AES-GCM. The stored
// envelope keeps the user, template and start time in clear so sessions can
// still be listed and inspected; sets and focus are only in the ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.Newf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, errors.Newf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// DecodeKey accepts a 32 byte key in hex or standard base64.
func DecodeKey(s string) ([]byte, error) {
	if k, err := hex.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}

func (m *encryptionMiddleware) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	plain, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	ciphertext, err := encrypt(plain, m.config.ActiveKey)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt session")
	}

	envelope := &domain.ActiveSession{
		UserID:        session.UserID,
		TemplateID:    session.TemplateID,
		StartedAt:     session.StartedAt,
		ExecutionData: seal(base64.StdEncoding.EncodeToString(ciphertext)),
	}
	return m.next.Save(ctx, userID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	envelope, err := m.next.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, ok := sealed(envelope.ExecutionData)
	if !ok {
		if m.config.AllowPlaintext {
			return envelope, nil
		}
		return nil, errors.Wrapf(ErrNotSealed, "user %s", userID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ciphertext")
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt session")
	}

	var session domain.ActiveSession
	if err := json.Unmarshal(plain, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal decrypted session")
	}
	return &session, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, userID string) error {
	return m.next.Delete(ctx, userID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func seal(payload string) domain.ExecutionData {
	id := sealedPrefix + payload
	return domain.ExecutionData{
		{Slot: sealedSlot, ExerciseID: id}: {ExerciseID: id},
	}
}

// sealed returns the ciphertext of an envelope.
func sealed(data domain.ExecutionData) (string, bool) {
	for k := range data {
		if k.Slot == sealedSlot && strings.HasPrefix(k.ExerciseID, sealedPrefix) {
			return strings.TrimPrefix(k.ExerciseID, sealedPrefix), true
		}
	}
	return "", false
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
