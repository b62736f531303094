// Package scram implements the SCRAM-SHA-1 and SCRAM-SHA-256 SASL
// mechanisms (RFC 5802) for clients.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mailflow-dev/imapengine/auth"
)

// Mechanism names.
const (
	NameSHA1   = "SCRAM-SHA-1"
	NameSHA256 = "SCRAM-SHA-256"
)

// ClientMechanism implements SCRAM-SHA-1/SCRAM-SHA-256 authentication for
// clients. The three-message exchange (client-first, client-final, and the
// server's final verification continuation) is driven by Start/Next the
// same way the other mechanisms under auth/ are.
type ClientMechanism struct {
	Username string
	Password string
	// HashName selects the mechanism variant: NameSHA1 or NameSHA256.
	// Defaults to NameSHA256 if empty.
	HashName string

	hashFn          func() hash.Hash
	clientNonce     string
	clientFirstBare string
	authMessage     string
	serverSignature []byte
	step            int
}

// Name returns the configured mechanism variant.
func (m *ClientMechanism) Name() string {
	if m.HashName == NameSHA1 {
		return NameSHA1
	}
	return NameSHA256
}

func (m *ClientMechanism) hasher() func() hash.Hash {
	if m.HashName == NameSHA1 {
		return sha1.New
	}
	return sha256.New
}

// Start builds the client-first message: "n,,n=<user>,r=<nonce>".
func (m *ClientMechanism) Start() ([]byte, error) {
	m.hashFn = m.hasher()

	nonce := make([]byte, 18)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("scram: generating nonce: %w", err)
	}
	m.clientNonce = base64.StdEncoding.EncodeToString(nonce)
	m.clientFirstBare = "n=" + encodeName(m.Username) + ",r=" + m.clientNonce

	return []byte("n,," + m.clientFirstBare), nil
}

// Next processes the server-first message and returns the client-final
// message, then processes the server's final verification message on the
// following call.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	m.step++
	switch m.step {
	case 1:
		return m.handleServerFirst(challenge)
	case 2:
		return nil, m.handleServerFinal(challenge)
	default:
		return nil, fmt.Errorf("scram: unexpected challenge")
	}
}

func (m *ClientMechanism) handleServerFirst(serverFirst []byte) ([]byte, error) {
	fields, err := parseFields(string(serverFirst))
	if err != nil {
		return nil, fmt.Errorf("scram: parsing server-first-message: %w", err)
	}

	serverNonce, ok := fields['r']
	if !ok || !strings.HasPrefix(serverNonce, m.clientNonce) {
		return nil, fmt.Errorf("scram: server nonce does not extend client nonce")
	}
	saltB64, ok := fields['s']
	if !ok {
		return nil, fmt.Errorf("scram: server-first-message missing salt")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("scram: decoding salt: %w", err)
	}
	iterStr, ok := fields['i']
	if !ok {
		return nil, fmt.Errorf("scram: server-first-message missing iteration count")
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil || iterations <= 0 {
		return nil, fmt.Errorf("scram: invalid iteration count %q", iterStr)
	}

	clientFinalNoProof := "c=biws,r=" + serverNonce
	m.authMessage = m.clientFirstBare + "," + string(serverFirst) + "," + clientFinalNoProof

	saltedPassword := pbkdf2.Key([]byte(m.Password), salt, iterations, m.hashFn().Size(), m.hashFn)
	clientKey := hmacSum(m.hashFn, saltedPassword, []byte("Client Key"))
	storedKey := hashSum(m.hashFn, clientKey)
	clientSignature := hmacSum(m.hashFn, storedKey, []byte(m.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	serverKey := hmacSum(m.hashFn, saltedPassword, []byte("Server Key"))
	m.serverSignature = hmacSum(m.hashFn, serverKey, []byte(m.authMessage))

	clientFinal := clientFinalNoProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	return []byte(clientFinal), nil
}

func (m *ClientMechanism) handleServerFinal(serverFinal []byte) error {
	fields, err := parseFields(string(serverFinal))
	if err != nil {
		return fmt.Errorf("scram: parsing server-final-message: %w", err)
	}
	if errMsg, ok := fields['e']; ok {
		return fmt.Errorf("scram: server reported error: %s", errMsg)
	}
	sigB64, ok := fields['v']
	if !ok {
		return fmt.Errorf("scram: server-final-message missing verifier")
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("scram: decoding server signature: %w", err)
	}
	if !hmac.Equal(sig, m.serverSignature) {
		return fmt.Errorf("scram: server signature mismatch")
	}
	return nil
}

func encodeName(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	s = strings.ReplaceAll(s, ",", "=2C")
	return s
}

func parseFields(msg string) (map[byte]string, error) {
	fields := make(map[byte]string)
	for _, part := range strings.Split(msg, ",") {
		if len(part) < 2 || part[1] != '=' {
			continue
		}
		fields[part[0]] = part[2:]
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty or malformed message %q", msg)
	}
	return fields, nil
}

func hmacSum(hashFn func() hash.Hash, key, data []byte) []byte {
	h := hmac.New(hashFn, key)
	h.Write(data)
	return h.Sum(nil)
}

func hashSum(hashFn func() hash.Hash, data []byte) []byte {
	h := hashFn()
	h.Write(data)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func init() {
	auth.DefaultRegistry.RegisterClient(NameSHA256, func() auth.ClientMechanism {
		return &ClientMechanism{HashName: NameSHA256}
	})
	auth.DefaultRegistry.RegisterClient(NameSHA1, func() auth.ClientMechanism {
		return &ClientMechanism{HashName: NameSHA1}
	})
}
