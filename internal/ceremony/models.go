package ceremony

// ClientData is the client-side context echoed back inside a credential
// response. Challenge is base64url (unpadded) of the issued challenge bytes.
type ClientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// CredentialResponse is the opaque payload the client authenticator
// produces for the complete phase of either ceremony.
//
// Only challenge, origin, and credential-id equality are validated; the
// attestation and signature blobs are stored, not verified. Upgrading to
// full cryptographic verification is an explicit, deliberate change.
type CredentialResponse struct {
	ID          string     `json:"id"`
	PublicKey   []byte     `json:"public_key,omitempty"` // registration only
	ClientData  ClientData `json:"client_data"`
	Attestation []byte     `json:"attestation,omitempty"`
	Signature   []byte     `json:"signature,omitempty"`
	SignCount   uint32     `json:"sign_count,omitempty"` // client-asserted; never trusted
}

// RelyingParty identifies this service to authenticators.
type RelyingParty struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// RegistrationOptions is returned by the registration begin phase. The
// client hands them to its platform authenticator and posts the resulting
// credential response together with the challenge key.
type RegistrationOptions struct {
	ChallengeKey string       `json:"challenge_key"`
	Challenge    string       `json:"challenge"` // base64url
	RelyingParty RelyingParty `json:"rp"`
	UserEmail    string       `json:"user_email"`
	UserName     string       `json:"user_name"`
}

// AuthenticationOptions is returned by the authentication begin phase.
// AllowedCredentialIDs lists the stored credential id as the sole
// acceptable credential.
type AuthenticationOptions struct {
	ChallengeKey         string   `json:"challenge_key"`
	Challenge            string   `json:"challenge"` // base64url
	RelyingPartyID       string   `json:"rp_id"`
	AllowedCredentialIDs []string `json:"allowed_credential_ids"`
}

// AuthenticationResult carries the session token minted after a successful
// authentication ceremony.
type AuthenticationResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
