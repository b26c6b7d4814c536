package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacky-htg/warm-transfer/agent/client"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type globalOpts struct {
	backend string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOpts{}
	cmd := &cobra.Command{
		Use:          "transferctl",
		Short:        "Drive the warm transfer API from a terminal",
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", envOr("TRANSFER_BACKEND_URL", "http://localhost:8000"), "backend base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP timeout")

	cmd.AddCommand(newHealthCmd(opts), newTokenCmd(opts), newTransferCmd(opts), newProbeCmd(opts))
	return cmd
}

func newHealthCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend is up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := client.New(opts.backend, opts.timeout).Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok=%t\n", ok)
			return nil
		},
	}
}

func newTokenCmd(opts *globalOpts) *cobra.Command {
	var identity, room string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch a room join token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := client.New(opts.backend, opts.timeout).Token(cmd.Context(), identity, room)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "participant identity")
	cmd.Flags().StringVar(&room, "room", "", "room name")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func newTransferCmd(opts *globalOpts) *cobra.Command {
	var req client.TransferRequest
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Prepare a warm transfer room for two agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := client.New(opts.backend, opts.timeout).Transfer(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.FromRoom, "from", "", "room the caller is in")
	cmd.Flags().StringVar(&req.AgentA, "agent-a", "", "identity of the agent handing off")
	cmd.Flags().StringVar(&req.AgentB, "agent-b", "", "identity of the receiving agent")
	cmd.Flags().StringVar(&req.NewRoom, "new-room", "", "transfer room name (default <from>-transfer-<unix>)")
	cmd.Flags().StringVar(&req.Transcript, "transcript", "", "call transcript to summarize")
	cmd.Flags().StringVar(&req.Summary, "summary", "", "summary to pass through as-is")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("agent-a")
	_ = cmd.MarkFlagRequired("agent-b")
	cmd.MarkFlagsOneRequired("transcript", "summary")
	return cmd
}

func newProbeCmd(opts *globalOpts) *cobra.Command {
	var (
		identity, room, token, lkURL string
		wait                         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Join LiveKit signaling with a token and print incoming messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if token == "" {
				if identity == "" || room == "" {
					return fmt.Errorf("either --token or both --identity and --room are required")
				}
				res, err := client.New(opts.backend, opts.timeout).Token(cmd.Context(), identity, room)
				if err != nil {
					return err
				}
				token = res.Token
				if lkURL == "" {
					lkURL = res.WSURL
				}
			}
			if lkURL == "" {
				return fmt.Errorf("LiveKit URL not set: pass --url or set LIVEKIT_URL")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			fmt.Fprintf(out, "connecting to LiveKit signaling, observing for %s\n", wait)
			n, err := client.Probe(ctx, lkURL, token, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "done, %d messages\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "join token (fetched from the backend when empty)")
	cmd.Flags().StringVar(&identity, "identity", "", "identity used to fetch a token")
	cmd.Flags().StringVar(&room, "room", "", "room used to fetch a token")
	cmd.Flags().StringVar(&lkURL, "url", os.Getenv("LIVEKIT_URL"), "LiveKit server URL")
	cmd.Flags().DurationVar(&wait, "wait", 20*time.Second, "how long to keep the socket open")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
