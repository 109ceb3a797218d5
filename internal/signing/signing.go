// Package signing binds client commands to a claimed user identity.
// Transport-level authentication is never trusted; every mutating command
// arrives as a SignedMessage and is verified against the user's registered
// ed25519 key before anything else happens.
package signing

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"gitlab.com/openqna/candour/internal/models"
)

// UserLookup resolves a claimed UID to the registered user. The store
// implements it.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

// SignedMessage is the wire envelope. Message holds the raw signed bytes
// verbatim: re-encoding JSON is not guaranteed canonical, so verification
// must always run over exactly the bytes the client signed.
type SignedMessage struct {
	User      string          `json:"user"`
	Signature string          `json:"signature"`
	Message   json.RawMessage `json:"message"`
}

// Policy controls which account states are acceptable for a command class.
type Policy struct {
	AllowBlocked      bool
	AllowUnregistered bool
}

// Verify checks the envelope against the user's registered key and account
// state. All failures map to the authentication error taxonomy; payload
// parsing is deliberately not done here so that a decode failure can never be
// mistaken for a signature failure.
func (m *SignedMessage) Verify(ctx context.Context, users UserLookup, policy Policy) (*models.User, error) {
	user, err := users.GetUser(ctx, m.User)
	if err != nil {
		return nil, err
	}
	if err := verifyBytes(user.PublicKey, m.Signature, m.Message); err != nil {
		return nil, err
	}
	if user.Blocked && !policy.AllowBlocked {
		return nil, models.ErrUserBlocked
	}
	if !user.EmailVerified && !policy.AllowUnregistered {
		return nil, models.ErrUserUnregistered
	}
	return user, nil
}

// VerifySelfSigned checks an envelope against a key carried in the command
// itself. Used for registration, where the user does not exist yet and the
// signature proves possession of the submitted key.
func (m *SignedMessage) VerifySelfSigned(publicKey string) error {
	return verifyBytes(publicKey, m.Signature, m.Message)
}

// Decode parses the signed payload into the strongly typed command. Called
// only after Verify succeeded; a failure here is a format error, distinct
// from any signature error, and is surfaced before business validation.
func (m *SignedMessage) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Message, v); err != nil {
		return fmt.Errorf("%w: %v", models.ErrBadCommandFormat, err)
	}
	return nil
}

func verifyBytes(publicKey, signature string, message []byte) error {
	key, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return models.ErrInvalidPublicKeyFormat
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return models.ErrInvalidSignatureFormat
	}
	if !ed25519.Verify(ed25519.PublicKey(key), message, sig) {
		return models.ErrBadSignature
	}
	return nil
}

// Sign builds an envelope over raw payload bytes. Test helper and client
// building block; the server never signs on behalf of users.
func Sign(uid string, key ed25519.PrivateKey, message []byte) *SignedMessage {
	return &SignedMessage{
		User:      uid,
		Signature: base64.StdEncoding.EncodeToString(ed25519.Sign(key, message)),
		Message:   message,
	}
}
