package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xmppctl/internal/config"
	"xmppctl/internal/secret"
)

var errMissingPassword = errors.New("missing password")

// NewEncryptCommand returns the encrypt-password helper.
func NewEncryptCommand(d *Deps) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "encrypt-password [password]",
		Short: "Encrypt the account password into the gateway config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				password = readPipedLine(cmd.InOrStdin())
			}
			if password == "" {
				name := rootName(cmd)
				errOut := cmd.ErrOrStderr()
				fmt.Fprintf(errOut, "Usage: %s encrypt-password <password> [--config <path>]\n", name)
				fmt.Fprintf(errOut, "Or use stdin: echo \"mypassword\" | %s encrypt-password --config %s\n", name, configPath)
				return reported(errMissingPassword)
			}

			passphrase, fallback := secret.Passphrase()
			if fallback {
				d.Log.Warn().Msg("XMPP_ENCRYPTION_KEY not set; using host-derived key")
			}
			if err := secret.UpdateConfig(configPath, password, passphrase); err != nil {
				return fmt.Errorf("update %s: %w", configPath, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Password encrypted successfully!")
			fmt.Fprintf(out, "Config file: %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.String("XMPP_CONFIG_PATH", "gateway.json"), "Gateway config file")
	return cmd
}

// readPipedLine returns the first line of in, unless in is an interactive
// terminal.
func readPipedLine(in io.Reader) string {
	if f, ok := in.(*os.File); ok {
		info, err := f.Stat()
		if err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return ""
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}
