package scram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestClientMechanismName(t *testing.T) {
	cases := []struct {
		hashName string
		want     string
	}{
		{"", NameSHA256},
		{NameSHA256, NameSHA256},
		{NameSHA1, NameSHA1},
	}
	for _, c := range cases {
		m := &ClientMechanism{HashName: c.hashName}
		if got := m.Name(); got != c.want {
			t.Errorf("HashName=%q: expected %s, got %s", c.hashName, c.want, got)
		}
	}
}

func TestClientMechanismStartFormat(t *testing.T) {
	m := &ClientMechanism{Username: "user", Password: "pencil"}
	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(ir)
	if !strings.HasPrefix(s, "n,,n=user,r=") {
		t.Errorf("expected client-first-message prefix, got %q", s)
	}
}

func TestClientMechanismStartEscapesName(t *testing.T) {
	m := &ClientMechanism{Username: "a=b,c", Password: "x"}
	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(ir), "n=a=3Db=2Cc,") {
		t.Errorf("expected escaped username, got %q", ir)
	}
}

// fakeServer performs the server side of SCRAM-SHA-256 against a known
// password, for exercising the client mechanism end to end without a real
// IMAP server.
type fakeServer struct {
	salt        []byte
	iterations  int
	password    string
	serverNonce string
	authMessage string
	saltedPw    []byte
}

func newFakeServer(password string) *fakeServer {
	return &fakeServer{
		salt:       []byte("fixedsalt1234567"),
		iterations: 4096,
		password:   password,
	}
}

func (s *fakeServer) firstMessage(clientFirstBare string) string {
	fields, _ := parseFields(clientFirstBare)
	s.serverNonce = fields['r'] + "servernonce"
	serverFirst := "r=" + s.serverNonce + ",s=" + base64.StdEncoding.EncodeToString(s.salt) + ",i=" + strconv.Itoa(s.iterations)
	s.authMessage = clientFirstBare + "," + serverFirst
	s.saltedPw = pbkdf2.Key([]byte(s.password), s.salt, s.iterations, sha256.Size, sha256.New)
	return serverFirst
}

func (s *fakeServer) finalMessage(clientFinal string) (string, bool) {
	fields, _ := parseFields(clientFinal)
	withoutProof := "c=" + fields['c'] + ",r=" + fields['r']
	s.authMessage += "," + withoutProof

	clientKey := hmacSum(sha256.New, s.saltedPw, []byte("Client Key"))
	storedKey := hashSum(sha256.New, clientKey)
	clientSignature := hmacSum(sha256.New, storedKey, []byte(s.authMessage))
	expectedProof := xorBytes(clientKey, clientSignature)

	gotProof, err := base64.StdEncoding.DecodeString(fields['p'])
	if err != nil || !hmac.Equal(gotProof, expectedProof) {
		return "e=invalid-proof", false
	}

	serverKey := hmacSum(sha256.New, s.saltedPw, []byte("Server Key"))
	serverSignature := hmacSum(sha256.New, serverKey, []byte(s.authMessage))
	return "v=" + base64.StdEncoding.EncodeToString(serverSignature), true
}

func TestClientMechanismFullHandshake(t *testing.T) {
	const password = "correct horse battery staple"
	server := newFakeServer(password)
	client := &ClientMechanism{Username: "alice", Password: password}

	clientFirst, err := client.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	clientFirstBare := string(clientFirst)[3:]

	serverFirst := server.firstMessage(clientFirstBare)
	clientFinal, err := client.Next([]byte(serverFirst))
	if err != nil {
		t.Fatalf("Next(server-first): %v", err)
	}

	serverFinal, ok := server.finalMessage(string(clientFinal))
	if !ok {
		t.Fatalf("server rejected client proof: %s", serverFinal)
	}

	if _, err := client.Next([]byte(serverFinal)); err != nil {
		t.Fatalf("Next(server-final): %v", err)
	}
}

func TestClientMechanismRejectsForgedServerSignature(t *testing.T) {
	const password = "correct horse battery staple"
	server := newFakeServer(password)
	client := &ClientMechanism{Username: "alice", Password: password}

	clientFirst, _ := client.Start()
	clientFirstBare := string(clientFirst)[3:]
	serverFirst := server.firstMessage(clientFirstBare)
	clientFinal, err := client.Next([]byte(serverFirst))
	if err != nil {
		t.Fatalf("Next(server-first): %v", err)
	}
	if _, ok := server.finalMessage(string(clientFinal)); !ok {
		t.Fatalf("server rejected valid proof")
	}

	forged := "v=" + base64.StdEncoding.EncodeToString([]byte("not-the-real-signature!"))
	if _, err := client.Next([]byte(forged)); err == nil {
		t.Error("expected error for forged server signature, got nil")
	}
}

func TestClientMechanismRejectsShortServerNonce(t *testing.T) {
	client := &ClientMechanism{Username: "alice", Password: "pw"}
	if _, err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := client.Next([]byte("r=doesnotextendclientnonce,s=c2FsdA==,i=4096"))
	if err == nil {
		t.Error("expected error for mismatched nonce, got nil")
	}
}

func TestClientMechanismUnexpectedThirdChallenge(t *testing.T) {
	client := &ClientMechanism{Username: "alice", Password: "pw", step: 2}
	if _, err := client.Next([]byte("anything")); err == nil {
		t.Error("expected error for unexpected third challenge, got nil")
	}
}
