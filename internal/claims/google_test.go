package claims_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rei-da-derivada/identity/internal/claims"
)

// countingTransport counts round trips so tests can assert how many network
// calls a Verify performed.
type countingTransport struct {
	calls int64
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.calls, 1)
	return t.next.RoundTrip(req)
}

func TestVerify_success(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"ana@example.com","given_name":"Ana","family_name":"Silva","picture":"https://img.example/a.png","sub":"123"}`))
	}))
	defer srv.Close()

	v := claims.NewGoogleVerifier(claims.WithUserInfoURL(srv.URL))
	cs, err := v.Verify(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if gotToken != "valid-token" {
		t.Errorf("token not sent as query parameter, got %q", gotToken)
	}
	if cs.Email != "ana@example.com" || cs.GivenName != "Ana" || cs.FamilyName != "Silva" {
		t.Errorf("claims mismatch: %+v", cs)
	}
	if cs.Picture != "https://img.example/a.png" {
		t.Errorf("picture mismatch: %q", cs.Picture)
	}
}

func TestVerify_omittedFieldsAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"ana@example.com"}`))
	}))
	defer srv.Close()

	v := claims.NewGoogleVerifier(claims.WithUserInfoURL(srv.URL))
	cs, err := v.Verify(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if cs.GivenName != "" || cs.FamilyName != "" || cs.Picture != "" {
		t.Errorf("expected absent optional fields to stay empty: %+v", cs)
	}
}

func TestVerify_emptyCredentialSkipsNetwork(t *testing.T) {
	ct := &countingTransport{next: http.DefaultTransport}
	v := claims.NewGoogleVerifier(claims.WithHTTPClient(&http.Client{Transport: ct}))

	_, err := v.Verify(context.Background(), "")
	if !errors.Is(err, claims.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if n := atomic.LoadInt64(&ct.calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestVerify_rejectedByProvider_singleCall(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer srv.Close()

	v := claims.NewGoogleVerifier(claims.WithUserInfoURL(srv.URL))
	_, err := v.Verify(context.Background(), "expired-token")
	if !errors.Is(err, claims.ErrRejectedByProvider) {
		t.Fatalf("expected ErrRejectedByProvider, got %v", err)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("expected exactly one call (no retry), got %d", n)
	}
}

func TestVerify_providerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use: connection refused

	v := claims.NewGoogleVerifier(claims.WithUserInfoURL(srv.URL))
	_, err := v.Verify(context.Background(), "some-token")
	if !errors.Is(err, claims.ErrProviderUnreachable) {
		t.Fatalf("expected ErrProviderUnreachable, got %v", err)
	}
}

func TestVerify_malformedPayloadIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	v := claims.NewGoogleVerifier(claims.WithUserInfoURL(srv.URL))
	_, err := v.Verify(context.Background(), "some-token")
	if !errors.Is(err, claims.ErrRejectedByProvider) {
		t.Fatalf("expected ErrRejectedByProvider for malformed payload, got %v", err)
	}
}
