package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xmppctl/dispatch"
	"xmppctl/health"
	"xmppctl/internal/address"
	"xmppctl/queue"
	"xmppctl/stanza"
)

const queuePreview = 5

// NewXMPPCommand returns the xmpp command group. A gateway embedding this
// package mounts it under its own root with a Host that exposes its live
// connection.
func NewXMPPCommand(d *Deps) *cobra.Command {
	xmpp := &cobra.Command{
		Use:   "xmpp",
		Short: "XMPP channel commands",
	}
	xmpp.AddCommand(
		newStartCmd(d),
		newStatusCmd(d),
		newMsgCmd(d),
		newRosterCmd(d),
		newNickCmd(d),
		newJoinCmd(d),
		newPollCmd(d),
		newClearCmd(d),
		newQueueCmd(d),
		newServeCmd(d),
	)
	return xmpp
}

func newStartCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the gateway in background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Starting gateway...")

			pid, err := d.Gateway.StartBackground()
			if err != nil {
				d.Log.Warn().Err(err).Msg("gateway start failed")
				fmt.Fprintf(out, "Failed to start gateway: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Gateway starting in background (pid: %d)\n", pid)
			fmt.Fprintln(out, "Waiting for gateway to initialize...")

			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(d.Config.GatewayReadyDelay):
			}
			fmt.Fprintf(out, "Gateway should be ready. Try: %s xmpp status\n", rootName(cmd))
			return nil
		},
	}
}

func newStatusCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show XMPP connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if client := d.Host.DirectHandle(); client != nil {
				status := ""
				if sr, ok := client.(dispatch.StatusReporter); ok {
					status = sr.Status()
				}
				if status == "" {
					status = "Connected (no status available)"
				}
				fmt.Fprintln(out, status)
				return nil
			}

			name := rootName(cmd)
			fmt.Fprintln(out, "XMPP client not connected. Gateway must be running.")
			fmt.Fprintf(out, "Start gateway with: %s xmpp start\n", name)
			fmt.Fprintf(out, "Or send messages directly: %s xmpp msg user@domain.com \"Hello\"\n", name)

			if url := d.Config.GatewayHealthURL; url != "" {
				if err := health.Probe(cmd.Context(), url); err != nil {
					fmt.Fprintf(out, "Gateway health endpoint %s: unreachable (%v)\n", url, err)
				} else {
					fmt.Fprintf(out, "Gateway health endpoint %s: reachable\n", url)
				}
			}
			return nil
		},
	}
}

func newMsgCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "msg <address> <message...>",
		Short: "Send a direct message (falls back to the gateway process)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args[1:], " ")
			router := dispatch.NewRouter(d.Host, d.Gateway, cmd.OutOrStdout(), d.Log)
			res, err := router.Dispatch(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			if !res.Delivered {
				return reported(res.Err())
			}
			return nil
		},
	}
}

func newRosterCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Show roster (in-memory)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			entries := d.Host.Roster().Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No roster entries (in-memory only)")
				return nil
			}
			fmt.Fprintln(out, "Roster (in-memory):")
			for _, e := range entries {
				nick := e.Nick
				if nick == "" {
					nick = "no nick"
				}
				fmt.Fprintf(out, "  %s: %s\n", e.Address, nick)
			}
			return nil
		},
	}
}

func newNickCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "nick <address> <name>",
		Short: "Set roster nickname (in-memory)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := address.Parse(args[0])
			if err != nil {
				return err
			}
			d.Host.Roster().SetNick(addr, args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "Nickname set for %s: %s\n", addr, args[1])
			return nil
		},
	}
}

func newJoinCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room> [nick]",
		Short: "Join a group chat room",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client := d.Host.DirectHandle()
			if client == nil {
				fmt.Fprintln(out, "XMPP client not connected. Gateway must be running.")
				fmt.Fprintf(out, "Start gateway with: %s xmpp start\n", rootName(cmd))
				return nil
			}

			room := args[0]
			nick := d.Config.DefaultNick
			if len(args) > 1 && args[1] != "" {
				nick = args[1]
			}

			if err := joinRoom(cmd, client, room, nick); err != nil {
				d.Log.Warn().Err(err).Str("room", room).Msg("join failed")
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to join room: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Joined room: %s as %s\n", room, nick)
			return nil
		},
	}
}

func joinRoom(cmd *cobra.Command, client dispatch.Client, room, nick string) error {
	if joiner, ok := client.(dispatch.RoomJoiner); ok {
		return joiner.JoinRoom(cmd.Context(), room, nick)
	}
	occupant, err := address.Occupant(room, nick)
	if err != nil {
		return err
	}
	return client.Send(cmd.Context(), stanza.JoinRoom(occupant))
}

func newPollCmd(d *Deps) *cobra.Command {
	var peek bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Print unprocessed queued messages and mark them processed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			unprocessed := d.Host.Unprocessed()
			if len(unprocessed) == 0 {
				fmt.Fprintln(out, "No unprocessed messages in queue")
				return nil
			}
			fmt.Fprintf(out, "Found %d unprocessed messages:\n", len(unprocessed))
			ids := make([]string, 0, len(unprocessed))
			for i, msg := range unprocessed {
				fmt.Fprintf(out, "%d. [%s] %s: %s\n", i+1, msg.AccountID, msg.From, msg.Body)
				ids = append(ids, msg.ID)
			}
			if !peek {
				marked := d.Host.MarkProcessed(ids...)
				d.Log.Debug().Int("marked", marked).Msg("poll consumed messages")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&peek, "peek", false, "Leave printed messages unprocessed")
	return cmd
}

func newClearCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear old messages from queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before := d.Host.Len()
			d.Host.ClearOld()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d old messages\n", before-d.Host.Len())
			return nil
		},
	}
}

func newQueueCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show message queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			total, unprocessed := d.Host.Counts()
			fmt.Fprintf(out, "Message queue: %d total, %d unprocessed\n", total, unprocessed)
			for i, e := range d.Host.Snapshot(queuePreview) {
				fmt.Fprintf(out, "%d. %s [%s] %s: %s\n", i+1, processedMark(e), e.AccountID, e.From, e.Body)
			}
			return nil
		},
	}
}

func processedMark(e queue.SnapshotEntry) string {
	if e.Processed {
		return "✓"
	}
	return "✗"
}
