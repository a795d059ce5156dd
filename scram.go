package mqtt5

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA-1 required for SCRAM-SHA-1 compatibility
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Authenticator drives an enhanced authentication exchange over AUTH
// packets. The client calls Start before CONNECT, feeds every server
// challenge to Continue and hands the final server data to Conclude.
type Authenticator interface {
	// Method returns the authentication method name sent in CONNECT.
	Method() string

	// Start returns the initial authentication data for CONNECT.
	Start() ([]byte, error)

	// Continue processes a server challenge and returns the response
	// data for the next AUTH packet.
	Continue(serverData []byte) ([]byte, error)

	// Conclude verifies the authentication data carried by the final
	// CONNACK or AUTH packet.
	Conclude(serverData []byte) error
}

// SCRAM errors.
var (
	ErrSCRAMChallengeMalformed = errors.New("mqtt5: malformed SCRAM server challenge")
	ErrSCRAMNonceMismatch      = errors.New("mqtt5: SCRAM server nonce mismatch")
	ErrSCRAMServerSignature    = errors.New("mqtt5: SCRAM server signature verification failed")
	ErrSCRAMOutOfOrder         = errors.New("mqtt5: SCRAM exchange out of order")
)

// SCRAMHash represents the hash algorithm used for SCRAM authentication.
type SCRAMHash int

const (
	// SCRAMHashSHA1 uses SHA-1 (for legacy compatibility only).
	SCRAMHashSHA1 SCRAMHash = iota
	// SCRAMHashSHA256 uses SHA-256 (recommended).
	SCRAMHashSHA256
	// SCRAMHashSHA512 uses SHA-512.
	SCRAMHashSHA512
)

// String returns the MQTT auth method name for this hash.
func (h SCRAMHash) String() string {
	switch h {
	case SCRAMHashSHA1:
		return "SCRAM-SHA-1"
	case SCRAMHashSHA256:
		return "SCRAM-SHA-256"
	case SCRAMHashSHA512:
		return "SCRAM-SHA-512"
	default:
		return "SCRAM-SHA-256"
	}
}

// hashFunc returns the hash.Hash constructor for this algorithm.
func (h SCRAMHash) hashFunc() func() hash.Hash {
	switch h {
	case SCRAMHashSHA1:
		return sha1.New
	case SCRAMHashSHA256:
		return sha256.New
	case SCRAMHashSHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

// keySize returns the derived key size in bytes for this hash.
func (h SCRAMHash) keySize() int {
	switch h {
	case SCRAMHashSHA1:
		return 20
	case SCRAMHashSHA256:
		return 32
	case SCRAMHashSHA512:
		return 64
	default:
		return 32
	}
}

// scramPhase tracks progress through the SCRAM exchange.
type scramPhase int

const (
	scramPhaseInit scramPhase = iota
	scramPhaseClientFirstSent
	scramPhaseClientFinalSent
	scramPhaseDone
)

// SCRAMAuthenticator implements the client side of SCRAM enhanced
// authentication over MQTT AUTH packets. It produces the
// client-first-message in Start, answers the server-first-message in
// Continue and verifies the server signature in Conclude.
type SCRAMAuthenticator struct {
	username string
	password string
	hashType SCRAMHash

	phase           scramPhase
	clientNonce     string
	clientFirstBare string
	serverFirst     string
	serverSignature []byte
}

// NewSCRAMAuthenticator creates a SCRAM authenticator for the given
// credentials and hash algorithm. Pair it with the client via
// WithAuthenticator.
func NewSCRAMAuthenticator(username, password string, hashType SCRAMHash) *SCRAMAuthenticator {
	return &SCRAMAuthenticator{
		username: username,
		password: password,
		hashType: hashType,
	}
}

// Method returns the authentication method name sent in CONNECT.
func (a *SCRAMAuthenticator) Method() string {
	return a.hashType.String()
}

// Start builds the client-first-message. Calling Start again resets the
// exchange, the client does this on every reconnect.
func (a *SCRAMAuthenticator) Start() ([]byte, error) {
	a.serverFirst = ""
	a.serverSignature = nil

	nonce, err := scramNonce()
	if err != nil {
		return nil, err
	}
	a.clientNonce = nonce

	a.clientFirstBare = fmt.Sprintf("n=%s,r=%s", scramEscape(a.username), a.clientNonce)
	a.phase = scramPhaseClientFirstSent

	// GS2 header "n,," means no channel binding
	return []byte("n,," + a.clientFirstBare), nil
}

// Continue processes the server-first-message and builds the
// client-final-message carrying the proof.
func (a *SCRAMAuthenticator) Continue(serverData []byte) ([]byte, error) {
	if a.phase != scramPhaseClientFirstSent {
		return nil, ErrSCRAMOutOfOrder
	}

	a.serverFirst = string(serverData)

	serverNonce, salt, iterations, err := parseScramServerFirst(a.serverFirst)
	if err != nil {
		return nil, err
	}

	// The server nonce must extend the client nonce
	if !strings.HasPrefix(serverNonce, a.clientNonce) || serverNonce == a.clientNonce {
		return nil, ErrSCRAMNonceMismatch
	}

	hashFunc := a.hashType.hashFunc()

	saltedPassword := pbkdf2.Key([]byte(a.password), salt, iterations, a.hashType.keySize(), hashFunc)

	clientKeyHMAC := hmac.New(hashFunc, saltedPassword)
	clientKeyHMAC.Write([]byte("Client Key"))
	clientKey := clientKeyHMAC.Sum(nil)

	h := hashFunc()
	h.Write(clientKey)
	storedKey := h.Sum(nil)

	clientFinalWithoutProof := fmt.Sprintf("c=%s,r=%s",
		base64.StdEncoding.EncodeToString([]byte("n,,")), serverNonce)
	authMessage := fmt.Sprintf("%s,%s,%s", a.clientFirstBare, a.serverFirst, clientFinalWithoutProof)

	clientSigHMAC := hmac.New(hashFunc, storedKey)
	clientSigHMAC.Write([]byte(authMessage))
	clientSignature := clientSigHMAC.Sum(nil)

	// ClientProof = ClientKey XOR ClientSignature
	proof := make([]byte, len(clientKey))
	for i := range clientKey {
		proof[i] = clientKey[i] ^ clientSignature[i]
	}

	serverKeyHMAC := hmac.New(hashFunc, saltedPassword)
	serverKeyHMAC.Write([]byte("Server Key"))
	serverKey := serverKeyHMAC.Sum(nil)

	serverSigHMAC := hmac.New(hashFunc, serverKey)
	serverSigHMAC.Write([]byte(authMessage))
	a.serverSignature = serverSigHMAC.Sum(nil)

	a.phase = scramPhaseClientFinalSent

	clientFinal := fmt.Sprintf("%s,p=%s", clientFinalWithoutProof,
		base64.StdEncoding.EncodeToString(proof))
	return []byte(clientFinal), nil
}

// Conclude verifies the server-final-message signature, completing
// mutual authentication.
func (a *SCRAMAuthenticator) Conclude(serverData []byte) error {
	if a.phase != scramPhaseClientFinalSent {
		return ErrSCRAMOutOfOrder
	}

	serverFinal := string(serverData)
	if !strings.HasPrefix(serverFinal, "v=") {
		return ErrSCRAMChallengeMalformed
	}

	signature, err := base64.StdEncoding.DecodeString(serverFinal[2:])
	if err != nil {
		return ErrSCRAMChallengeMalformed
	}

	if !hmac.Equal(signature, a.serverSignature) {
		return ErrSCRAMServerSignature
	}

	a.phase = scramPhaseDone
	return nil
}

// parseScramServerFirst extracts nonce, salt and iteration count from a
// server-first-message: r=<nonce>,s=<salt-b64>,i=<iterations>.
func parseScramServerFirst(msg string) (nonce string, salt []byte, iterations int, err error) {
	for _, part := range strings.Split(msg, ",") {
		if len(part) < 2 {
			continue
		}
		switch part[:2] {
		case "r=":
			nonce = part[2:]
		case "s=":
			salt, err = base64.StdEncoding.DecodeString(part[2:])
			if err != nil {
				return "", nil, 0, ErrSCRAMChallengeMalformed
			}
		case "i=":
			iterations, err = strconv.Atoi(part[2:])
			if err != nil {
				return "", nil, 0, ErrSCRAMChallengeMalformed
			}
		}
	}

	if nonce == "" || len(salt) == 0 || iterations <= 0 {
		return "", nil, 0, ErrSCRAMChallengeMalformed
	}

	return nonce, salt, iterations, nil
}

// scramEscape escapes '=' and ',' in a SCRAM username.
func scramEscape(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	return strings.ReplaceAll(s, ",", "=2C")
}

// scramNonce creates a cryptographically secure random nonce.
func scramNonce() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
