package signing

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/openqna/candour/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUser(ctx context.Context, uid string) (*models.User, error) {
	u, ok := f[uid]
	if !ok {
		return nil, models.ErrNoSuchUser
	}
	return u, nil
}

func newKeyPair(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(pub), priv
}

func TestVerify(t *testing.T) {
	require := require.New(t)
	pub, priv := newKeyPair(t)
	users := fakeUsers{
		"alice": {UID: "alice", PublicKey: pub, EmailVerified: true},
	}

	msg := Sign("alice", priv, []byte(`{"question_text":"hi"}`))
	user, err := msg.Verify(context.Background(), users, Policy{})
	require.NoError(err)
	require.Equal("alice", user.UID)

	var payload struct {
		QuestionText string `json:"question_text"`
	}
	require.NoError(msg.Decode(&payload))
	require.Equal("hi", payload.QuestionText)
}

func TestVerifyErrors(t *testing.T) {
	require := require.New(t)
	pub, priv := newKeyPair(t)
	otherPub, _ := newKeyPair(t)
	users := fakeUsers{
		"alice":   {UID: "alice", PublicKey: pub, EmailVerified: true},
		"mallory": {UID: "mallory", PublicKey: otherPub, EmailVerified: true},
		"badkey":  {UID: "badkey", PublicKey: "???", EmailVerified: true},
		"blocked": {UID: "blocked", PublicKey: pub, EmailVerified: true, Blocked: true},
		"fresh":   {UID: "fresh", PublicKey: pub},
	}
	ctx := context.Background()

	msg := Sign("nobody", priv, []byte(`{}`))
	_, err := msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrNoSuchUser)

	msg = Sign("badkey", priv, []byte(`{}`))
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrInvalidPublicKeyFormat)

	msg = Sign("alice", priv, []byte(`{}`))
	msg.Signature = "not base64!"
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrInvalidSignatureFormat)

	// Signed with alice's key but claiming mallory's identity.
	msg = Sign("mallory", priv, []byte(`{}`))
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrBadSignature)

	// Tampered payload after signing.
	msg = Sign("alice", priv, []byte(`{"a":1}`))
	msg.Message = []byte(`{"a":2}`)
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrBadSignature)

	msg = Sign("blocked", priv, []byte(`{}`))
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrUserBlocked)

	msg = Sign("fresh", priv, []byte(`{}`))
	_, err = msg.Verify(ctx, users, Policy{})
	require.ErrorIs(err, models.ErrUserUnregistered)
	_, err = msg.Verify(ctx, users, Policy{AllowUnregistered: true})
	require.NoError(err)
}

func TestDecodeFailureIsDistinct(t *testing.T) {
	require := require.New(t)
	pub, priv := newKeyPair(t)
	users := fakeUsers{"alice": {UID: "alice", PublicKey: pub, EmailVerified: true}}

	// The signature is over garbage JSON, so verification passes and only
	// decoding fails.
	msg := Sign("alice", priv, []byte(`{oops`))
	_, err := msg.Verify(context.Background(), users, Policy{})
	require.NoError(err)

	var v struct{}
	err = msg.Decode(&v)
	require.ErrorIs(err, models.ErrBadCommandFormat)
}

func TestVerifySelfSigned(t *testing.T) {
	require := require.New(t)
	pub, priv := newKeyPair(t)
	msg := Sign("newuser", priv, []byte(`{"uid":"newuser"}`))
	require.NoError(msg.VerifySelfSigned(pub))

	otherPub, _ := newKeyPair(t)
	require.ErrorIs(msg.VerifySelfSigned(otherPub), models.ErrBadSignature)
}
