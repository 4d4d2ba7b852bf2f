package claims

import "context"

// ClaimSet is a provider's attestation about a bearer credential.
// It lives only for the duration of one sign-in and is never persisted.
// Email is the only field resolution requires; the rest are optional and
// simply absent when the provider did not supply them.
type ClaimSet struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Verifier exchanges an opaque bearer credential for a verified claim set.
// Implementations make at most one outbound call and never retry — retry
// policy belongs to the caller.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*ClaimSet, error)
}
