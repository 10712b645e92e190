package oauth2

// ResponseType represents the OAuth 2.0 response type requested from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType requests an authorization code (Authorization Code Flow).
	// Example: https://provider.example.com/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"

	// TokenResponseType requests the access token directly in the redirect fragment (Implicit Flow).
	// Example: https://app.example.com/oauth#access_token=...&state=...
	TokenResponseType ResponseType = "token"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 sends code_challenge = BASE64URL(SHA256(code_verifier)).
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypeNone (labeled "plain") sends the verifier itself as the challenge.
	// Only protects against passive attacks.
	CodeMethodTypeNone CodeMethodType = "plain"
)

// Valid reports whether m is one of the supported challenge methods.
func (m CodeMethodType) Valid() bool {
	return m == CodeMethodTypeS256 || m == CodeMethodTypeNone
}

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, client_secret, redirect_uri, code_verifier (if PKCE)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsCodeGrant authenticates the client itself, no user context.
	// Token request includes: client_id, client_secret, scope
	ClientCredentialsCodeGrant GrantType = "client_credentials"

	// PasswordGrant exchanges the resource owner's username and password for tokens.
	// Token request includes: username, password, client_id, client_secret, scope
	PasswordGrant GrantType = "password"
)

// Query and form parameter names used on the wire.
const (
	ParamGrantType           = "grant_type"
	ParamClientID            = "client_id"
	ParamClientSecret        = "client_secret"
	ParamState               = "state"
	ParamResponseType        = "response_type"
	ParamRedirectURI         = "redirect_uri"
	ParamScope               = "scope"
	ParamCode                = "code"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeVerifier        = "code_verifier"
	ParamError               = "error"
	ParamErrorDescription    = "error_description"
	ParamAccessToken         = "access_token"
)
