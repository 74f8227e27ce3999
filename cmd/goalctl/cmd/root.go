// Package cmd implements goalctl, a terminal view over one owner's goals.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalboard/internal/client"
	"github.com/templui/goalboard/internal/config"
	"github.com/templui/goalboard/internal/store"
)

// Backend is the remote goal API plus the archive call the store does not cover.
type Backend interface {
	store.API
	Archive(ctx context.Context, ownerID string) (string, error)
}

type Options struct {
	Out    io.Writer
	ErrOut io.Writer
	// NewBackend builds the API for the resolved client config. Defaults to an HTTP client.
	NewBackend func(cfg config.ClientConfig) Backend
	Now        func() time.Time
}

// session is the state shared by every subcommand of one invocation.
type session struct {
	opts    Options
	cfg     config.ClientConfig
	backend Backend
	store   *store.Store
}

func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.NewBackend == nil {
		opts.NewBackend = func(cfg config.ClientConfig) Backend {
			return client.New(cfg.BaseURL, cfg.Timeout)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &session{opts: opts}

	var (
		baseURL string
		owner   string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "goalctl",
		Short:         "Track goals from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.LoadClient()
			if cmd.Flags().Changed("url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("owner") {
				cfg.OwnerID = owner
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if cfg.OwnerID == "" {
				return fmt.Errorf("owner is required: pass --owner or set GOALBOARD_OWNER")
			}
			return s.open(cmd.Context(), cfg)
		},
	}

	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.ErrOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&baseURL, "url", "", "goalboard server URL (default $GOALBOARD_URL)")
	flags.StringVar(&owner, "owner", "", "owner id (default $GOALBOARD_OWNER)")
	flags.DurationVar(&timeout, "timeout", 0, "request timeout (default $GOALBOARD_TIMEOUT)")

	rootCmd.AddCommand(listCmd(s))
	rootCmd.AddCommand(boardCmd(s))
	rootCmd.AddCommand(streakCmd(s))
	rootCmd.AddCommand(summaryCmd(s))
	rootCmd.AddCommand(friendsCmd(s))
	rootCmd.AddCommand(createCmd(s))
	rootCmd.AddCommand(updateCmd(s))
	rootCmd.AddCommand(deleteCmd(s))
	rootCmd.AddCommand(participateCmd(s))
	rootCmd.AddCommand(pinCmd(s))
	rootCmd.AddCommand(archiveCmd(s))

	return rootCmd
}

// open builds the store and loads the owner's collection so every
// subcommand starts from the authoritative state.
func (s *session) open(ctx context.Context, cfg config.ClientConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.cfg = cfg
	s.backend = s.opts.NewBackend(cfg)
	s.store = store.New(s.backend, cfg.OwnerID,
		store.WithClock(s.opts.Now),
		store.WithNotifier(store.NotifierFunc(s.notify)),
	)

	_, err := s.store.Load(ctx)
	return err
}

func (s *session) notify(n store.Notification) {
	fmt.Fprintf(s.opts.ErrOut, "%s: %s\n", n.Op, n.Message)
}
