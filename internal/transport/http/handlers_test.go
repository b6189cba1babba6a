package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"chainpass/internal/audit"
	"chainpass/internal/ceremony"
	"chainpass/internal/challenge"
	"chainpass/internal/credential"
	"chainpass/internal/registry"
	"chainpass/internal/session"
	"chainpass/pkg/domain"
)

const (
	testOrigin  = "https://chainpass.test"
	testAddress = "0x00112233445566778899aabbccddeeff00112233"
	testIDHash  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
)

type HandlerSuite struct {
	suite.Suite
	server   http.Handler
	sessions *session.Issuer
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() { s.reset() }

// reset rebuilds the whole in-memory stack. Subtests call it directly so
// each scenario starts from an empty registry.
func (s *HandlerSuite) reset() {
	logger := slog.New(slog.DiscardHandler)
	auditor := audit.NewPublisher(audit.NewInMemoryStore())

	registryStore := registry.NewInMemoryStore()
	registrySvc := registry.NewService(registryStore, auditor, logger, nil)

	s.sessions = session.NewIssuer("test-signing-key", "chainpass-test", time.Hour)
	ceremonySvc := ceremony.NewService(
		ceremony.Config{
			RPName:         "ChainPass Test",
			RPID:           "chainpass.test",
			ExpectedOrigin: testOrigin,
			ChallengeTTL:   5 * time.Minute,
		},
		credential.NewInMemoryStore(),
		challenge.NewMemoryLedger(),
		s.sessions,
		registryStore,
		auditor,
		logger,
		nil,
	)

	verifier := session.NewMiddlewareAdapter(s.sessions)
	s.server = NewRouter(Deps{
		Logger:   logger,
		Registry: NewRegistryHandler(registrySvc, verifier, logger),
		Ceremony: NewCeremonyHandler(ceremonySvc),
	})
}

func (s *HandlerSuite) do(method, path, body, token string) (int, map[string]any) {
	s.T().Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func (s *HandlerSuite) registerIdentity() {
	status, _ := s.do(http.MethodPost, "/registry/identities",
		`{"name":"Alice Example","email":"a@x.com","id_hash":"`+testIDHash+`","owner_address":"`+testAddress+`"}`, "")
	require.Equal(s.T(), http.StatusCreated, status)
}

func (s *HandlerSuite) adminToken() string {
	token, err := s.sessions.Issue("admin@x.com", "Admin", session.AuthMethodBiometric)
	require.NoError(s.T(), err)
	return token
}

func (s *HandlerSuite) TestRegistryEndpoints() {
	s.Run("register rejects an address without the 0x prefix", func() {
		s.reset()
		status, body := s.do(http.MethodPost, "/registry/identities",
			`{"name":"Alice Example","email":"a@x.com","id_hash":"`+testIDHash+`","owner_address":"`+testAddress[2:]+`"}`, "")
		assert.Equal(s.T(), http.StatusBadRequest, status)
		assert.Equal(s.T(), "invalid_input", body["error"])
	})

	s.Run("register persists and get returns the record", func() {
		s.reset()
		s.registerIdentity()

		status, body := s.do(http.MethodGet, "/registry/identities/"+testAddress, "", "")
		assert.Equal(s.T(), http.StatusOK, status)
		assert.Equal(s.T(), "Alice Example", body["name"])
		assert.Equal(s.T(), "a@x.com", body["email"])
		assert.Equal(s.T(), true, body["active"])
	})

	s.Run("duplicate email conflicts", func() {
		s.reset()
		s.registerIdentity()
		other := "0xffffffffffffffffffffffffffffffffffffffff"
		otherHash := strings.Repeat("f", 64)
		status, body := s.do(http.MethodPost, "/registry/identities",
			`{"name":"Bob","email":"a@x.com","id_hash":"`+otherHash+`","owner_address":"`+other+`"}`, "")
		assert.Equal(s.T(), http.StatusConflict, status)
		assert.Equal(s.T(), "email_taken", body["error"])
		assert.Equal(s.T(), "email already in use", body["message"])
	})

	s.Run("register accepts a raw national id and stores its digest", func() {
		s.reset()
		status, body := s.do(http.MethodPost, "/registry/identities",
			`{"name":"Alice Example","email":"a@x.com","national_id":"AB-123456","owner_address":"`+testAddress+`"}`, "")
		assert.Equal(s.T(), http.StatusCreated, status)
		assert.Equal(s.T(), domain.HashNationalID("AB-123456").String(), body["id_hash"])
	})

	s.Run("malformed body is a 400", func() {
		status, body := s.do(http.MethodPost, "/registry/identities", `{bad-json`, "")
		assert.Equal(s.T(), http.StatusBadRequest, status)
		assert.Equal(s.T(), "bad_request", body["error"])
	})

	s.Run("unknown identity is a 404", func() {
		s.reset()
		status, body := s.do(http.MethodGet, "/registry/identities/"+testAddress, "", "")
		assert.Equal(s.T(), http.StatusNotFound, status)
		assert.Equal(s.T(), "not_found", body["error"])
	})

	s.Run("registered check never errors", func() {
		s.reset()
		status, body := s.do(http.MethodGet, "/registry/identities/"+testAddress+"/registered", "", "")
		assert.Equal(s.T(), http.StatusOK, status)
		assert.Equal(s.T(), false, body["registered"])

		s.registerIdentity()
		status, body = s.do(http.MethodGet, "/registry/identities/"+testAddress+"/registered", "", "")
		assert.Equal(s.T(), http.StatusOK, status)
		assert.Equal(s.T(), true, body["registered"])
	})
}

func (s *HandlerSuite) TestRegistryAdminEndpoints() {
	s.Run("enumeration requires a session", func() {
		status, body := s.do(http.MethodGet, "/registry/identities", "", "")
		assert.Equal(s.T(), http.StatusUnauthorized, status)
		assert.Equal(s.T(), "unauthorized", body["error"])
	})

	s.Run("enumeration with a valid session", func() {
		s.reset()
		s.registerIdentity()
		status, body := s.do(http.MethodGet, "/registry/identities", "", s.adminToken())
		assert.Equal(s.T(), http.StatusOK, status)
		identities, ok := body["identities"].([]any)
		require.True(s.T(), ok)
		assert.Len(s.T(), identities, 1)
	})

	s.Run("stats reports active count", func() {
		s.reset()
		s.registerIdentity()
		status, body := s.do(http.MethodGet, "/registry/stats", "", s.adminToken())
		assert.Equal(s.T(), http.StatusOK, status)
		assert.Equal(s.T(), float64(1), body["active"])
	})

	s.Run("deactivate frees the identity", func() {
		s.reset()
		s.registerIdentity()
		status, _ := s.do(http.MethodDelete, "/registry/identities/"+testAddress, "", s.adminToken())
		assert.Equal(s.T(), http.StatusNoContent, status)

		status, body := s.do(http.MethodGet, "/registry/identities/"+testAddress+"/registered", "", "")
		assert.Equal(s.T(), http.StatusOK, status)
		assert.Equal(s.T(), false, body["registered"])
	})

	s.Run("rejects an expired token", func() {
		expired := session.NewIssuer("test-signing-key", "chainpass-test", -time.Hour)
		token, err := expired.Issue("admin@x.com", "Admin", session.AuthMethodBiometric)
		require.NoError(s.T(), err)

		status, _ := s.do(http.MethodGet, "/registry/identities", "", token)
		assert.Equal(s.T(), http.StatusUnauthorized, status)
	})
}

func (s *HandlerSuite) TestCeremonyEndpoints() {
	beginRegistration := func() (string, string) {
		status, body := s.do(http.MethodPost, "/webauthn/register/begin",
			`{"email":"a@x.com","name":"Alice Example"}`, "")
		require.Equal(s.T(), http.StatusOK, status)
		return body["challenge_key"].(string), body["challenge"].(string)
	}
	completeBody := func(key, challengeB64, origin string) string {
		payload := map[string]any{
			"challenge_key": key,
			"credential": map[string]any{
				"id":         "cred-1",
				"public_key": []byte("public-key-material"),
				"client_data": map[string]any{
					"type":      "webauthn.create",
					"challenge": challengeB64,
					"origin":    origin,
				},
			},
		}
		encoded, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		return string(encoded)
	}

	s.Run("full registration and authentication round trip", func() {
		s.reset()
		key, challengeB64 := beginRegistration()
		status, _ := s.do(http.MethodPost, "/webauthn/register/complete",
			completeBody(key, challengeB64, testOrigin), "")
		require.Equal(s.T(), http.StatusCreated, status)

		status, body := s.do(http.MethodPost, "/webauthn/authenticate/begin",
			`{"email":"a@x.com"}`, "")
		require.Equal(s.T(), http.StatusOK, status)
		allowed, ok := body["allowed_credential_ids"].([]any)
		require.True(s.T(), ok)
		assert.Equal(s.T(), []any{"cred-1"}, allowed)

		status, body = s.do(http.MethodPost, "/webauthn/authenticate/complete",
			completeBody(body["challenge_key"].(string), body["challenge"].(string), testOrigin), "")
		require.Equal(s.T(), http.StatusOK, status)

		claims, err := s.sessions.Verify(body["token"].(string))
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "a@x.com", claims.Email)
	})

	s.Run("origin mismatch is a 401 and burns the challenge", func() {
		s.reset()
		key, challengeB64 := beginRegistration()
		status, body := s.do(http.MethodPost, "/webauthn/register/complete",
			completeBody(key, challengeB64, "https://evil.example"), "")
		assert.Equal(s.T(), http.StatusUnauthorized, status)
		assert.Equal(s.T(), "origin_mismatch", body["error"])

		status, body = s.do(http.MethodPost, "/webauthn/register/complete",
			completeBody(key, challengeB64, testOrigin), "")
		assert.Equal(s.T(), http.StatusNotFound, status)
		assert.Equal(s.T(), "not_found", body["error"])
	})

	s.Run("authentication begin for unknown email is a 404", func() {
		status, body := s.do(http.MethodPost, "/webauthn/authenticate/begin",
			`{"email":"nobody@x.com"}`, "")
		assert.Equal(s.T(), http.StatusNotFound, status)
		assert.Equal(s.T(), "not_found", body["error"])
	})
}
