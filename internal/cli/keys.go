package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/attest"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage Ed25519 signing keys",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate a new signing key and write it to a file",
	Long: `Generate creates a fresh Ed25519 signing key and writes the seed to
the given file with 0600 permissions. Point scan and serve at it with
--key-file so assessments stay verifiable across runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("key file already exists: %s", path)
		}

		kp, err := attest.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		if err := attest.WriteKeyFile(path, kp); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}

		fmt.Printf("✓ Wrote signing key: %s\n", path)
		fmt.Printf("  Key ID: %s\n", kp.KeyID())
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the public key set for a signing key file",
	Long:  `Show prints the JWKS for a key file, the same document the serve command publishes at /.well-known/jwks.json.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, err := attest.LoadKeyFile(args[0])
		if err != nil {
			return fmt.Errorf("load key file: %w", err)
		}

		jwks := attest.NewSigner(kp).PublicJWKS()
		data, err := json.MarshalIndent(jwks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysShowCmd)
}
