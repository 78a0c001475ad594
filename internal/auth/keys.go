package auth

// keys.go handles the RS256 key material: loading the private JWK the user
// service signs with, publishing the matching public JWK set on
// /.well-known/jwks.json, and caching remote JWK sets so the other services
// can verify tokens without sharing the private key.

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// signingKey is a private RSA key plus the key ID published in the JWKS.
type signingKey struct {
	PrivateKey *rsa.PrivateKey
	KeyID      string
}

// LoadSigningKey reads an RSA private key in JWK format from disk.
func LoadSigningKey(path string) (*signingKey, error) {
	jsonBytes, err := os.ReadFile(path) // #nosec G304 -- path comes from server config
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key file: %w", err)
	}

	key, err := jwk.ParseKey(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key JWK: %w", err)
	}

	var raw rsa.PrivateKey
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("signing key is not an RSA private key: %w", err)
	}

	kid, ok := key.KeyID()
	if !ok || kid == "" {
		return nil, fmt.Errorf("signing key JWK has no kid")
	}

	return &signingKey{PrivateKey: &raw, KeyID: kid}, nil
}

// PublicJWKS builds the public JWK set served on /.well-known/jwks.json.
func (k *signingKey) PublicJWKS() (jwk.Set, error) {
	pub, err := jwk.Import(&k.PrivateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create public JWK: %w", err)
	}
	if err := pub.Set(jwk.KeyIDKey, k.KeyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}
	if err := pub.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}
	if err := pub.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, fmt.Errorf("failed to add key to set: %w", err)
	}
	return set, nil
}

// RemoteKeySet caches the JWK set published by the user service.
// The cache refreshes in the background via httprc.
type RemoteKeySet struct {
	cache *jwk.Cache
	url   string
}

// NewRemoteKeySet registers the JWKS URL for background fetch and refresh.
func NewRemoteKeySet(ctx context.Context, jwksURL string) (*RemoteKeySet, error) {
	client := httprc.NewClient()

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK cache: %w", err)
	}

	if err := cache.Register(ctx, jwksURL,
		jwk.WithWaitReady(false), // don't block startup - fetch in background
	); err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint: %w", err)
	}

	return &RemoteKeySet{cache: cache, url: jwksURL}, nil
}

// PublicKey looks up the RSA public key with the given key ID.
func (r *RemoteKeySet) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	set, err := r.cache.Lookup(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK set: %w", err)
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key %q not found in JWK set", kid)
	}

	var raw rsa.PublicKey
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("key %q is not an RSA public key: %w", kid, err)
	}
	return &raw, nil
}
