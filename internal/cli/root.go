// Package cli is the operator command surface: it maps each subcommand onto
// the dispatch router, the gateway launcher and the host's queue and roster.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xmppctl/dispatch"
	"xmppctl/host"
	"xmppctl/internal/config"
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("reported")

func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

// Gateway is the external gateway process as seen by the commands.
type Gateway interface {
	dispatch.Sender
	StartBackground() (int, error)
}

// Deps is everything the command handlers operate on. It is built once per
// process and shared by every subcommand.
type Deps struct {
	Host    host.Host
	Gateway Gateway
	Config  *config.Config
	Log     zerolog.Logger
}

// NewRootCommand returns the xmppctl command tree.
func NewRootCommand(d *Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "xmppctl",
		Short:         "Operate a background XMPP gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewXMPPCommand(d))
	root.AddCommand(NewEncryptCommand(d))
	return root
}

// Execute runs root and returns the process exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return 1
}

func rootName(cmd *cobra.Command) string {
	return cmd.Root().Name()
}
