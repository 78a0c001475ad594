// keygen generates the RSA signing key pair used in RS256 token mode.
// The private JWK is what JWT_SIGNING_KEY_PATH points at; the public JWK is
// the key the user service publishes on /.well-known/jwks.json.
package main

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/spf13/cobra"

	"github.com/mathservice-vn/platform/app/internal/version"
)

const (
	privateKeyFileName = "signing-key.private.jwk"
	publicKeyFileName  = "signing-key.public.jwk"
)

var (
	outputDir string
	rsaSize   int
	kid       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "JWT signing key generator",
		Long:              "Generate an RSA key pair in JWK format for RS256 access token signing",
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new signing key pair",
		Long:  "Generate a new RSA key pair and write private and public JWK files",
		RunE:  runGenerate,
	}

	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", 4096, "RSA key size in bits (2048 or 4096, default: 4096)")
	generateCmd.Flags().StringVarP(&kid, "kid", "k", "", "Key ID (default: derived from key thumbprint)")
	if err := generateCmd.MarkFlagRequired("outputdir"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if rsaSize != 2048 && rsaSize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048 or 4096)", rsaSize)
	}

	// make the directory if it doesn't exist
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	fmt.Printf("Generating %d-bit RSA signing key pair\n", rsaSize)

	rawKey, err := rsa.GenerateKey(rand.Reader, rsaSize)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privateKey, err := jwk.Import(rawKey)
	if err != nil {
		return fmt.Errorf("failed to import private key: %w", err)
	}

	if kid == "" {
		thumbprint, err := privateKey.Thumbprint(crypto.SHA256)
		if err != nil {
			return fmt.Errorf("failed to compute thumbprint: %w", err)
		}
		kid = fmt.Sprintf("%x", thumbprint[:8])
	}

	publicKey, err := jwk.Import(&rawKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to import public key: %w", err)
	}

	for _, key := range []jwk.Key{privateKey, publicKey} {
		if err := key.Set(jwk.KeyIDKey, kid); err != nil {
			return fmt.Errorf("failed to set key ID: %w", err)
		}
		if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
			return fmt.Errorf("failed to set algorithm: %w", err)
		}
		if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
			return fmt.Errorf("failed to set key usage: %w", err)
		}
	}

	privatePath := filepath.Join(outputDir, privateKeyFileName)
	if err := writeJWK(privatePath, privateKey, 0o600); err != nil {
		return err
	}
	fmt.Printf("✓ Private JWK: %s (kid: %s)\n", privatePath, kid)

	publicPath := filepath.Join(outputDir, publicKeyFileName)
	if err := writeJWK(publicPath, publicKey, 0o644); err != nil {
		return err
	}
	fmt.Printf("✓ Public JWK:  %s (kid: %s)\n", publicPath, kid)

	fmt.Println("Keep the private key secret. Point JWT_SIGNING_KEY_PATH at it to enable RS256 signing.")
	return nil
}

func writeJWK(path string, key jwk.Key, mode os.FileMode) error {
	raw, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JWK: %w", err)
	}
	if err := os.WriteFile(path, raw, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
