package domain

// Identity is the set of claims resolved from a bearer token by the identity
// provider's userinfo endpoint. It is attached to the request context by the
// identity gate and is read-only downstream.
//
// Subject is the provider-scoped id (sub); UID is the stable user id in our
// own users table, written into the token as a custom attribute at
// provisioning time.
type Identity struct {
	Subject           string `json:"sub"`
	UID               string `json:"uid"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
}

// LogoutResult reports the outcome of a provider-side logout.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
