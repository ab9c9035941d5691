package filestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	pbkdf2Rounds   = 64_000
	derivedKeySize = chacha20poly1305.KeySize
)

// sealer encrypts the stored document with a key derived from a
// passphrase. The salt and nonce travel with the document; the
// passphrase never touches disk.
type sealer struct {
	passphrase string
}

func newSealer(passphrase string) *sealer {
	return &sealer{passphrase: passphrase}
}

func (s *sealer) seal(entries map[string]string) (document, error) {
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return document{}, errors.Wrap(err, "[sealer.seal] Marshal")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return document{}, errors.Wrap(err, "[sealer.seal] rand salt")
	}

	aead, err := chacha20poly1305.New(s.deriveKey(salt))
	if err != nil {
		return document{}, errors.Wrap(err, "[sealer.seal] chacha20poly1305.New")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return document{}, errors.Wrap(err, "[sealer.seal] rand nonce")
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return document{
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
		Sealed: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

func (s *sealer) open(doc document) (map[string]string, error) {
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "[sealer.open] decode salt")
	}
	nonce, err := base64.StdEncoding.DecodeString(doc.Nonce)
	if err != nil {
		return nil, errors.Wrap(err, "[sealer.open] decode nonce")
	}
	sealed, err := base64.StdEncoding.DecodeString(doc.Sealed)
	if err != nil {
		return nil, errors.Wrap(err, "[sealer.open] decode payload")
	}

	aead, err := chacha20poly1305.New(s.deriveKey(salt))
	if err != nil {
		return nil, errors.Wrap(err, "[sealer.open] chacha20poly1305.New")
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[sealer.open] wrong passphrase or corrupt store")
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, errors.Wrap(err, "[sealer.open] Unmarshal")
	}
	return entries, nil
}

func (s *sealer) deriveKey(salt []byte) []byte {
	return pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Rounds, derivedKeySize, sha256.New)
}
