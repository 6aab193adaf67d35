// Command notes records, transcribes, lists and deletes audio notes against a
// running audio notes server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/audionotes/internal/client"
	"github.com/nikhilbhutani/audionotes/internal/config"
	"github.com/nikhilbhutani/audionotes/internal/recorder"
)

// app is shared by all subcommands; PersistentPreRunE fills it in.
type app struct {
	cfg     *config.ClientConfig
	client  *client.Client
	verbose bool
	yes     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "notes",
		Short:         "Record and manage transcribed audio notes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("server", "", "server base URL (default $NOTES_SERVER_URL or http://localhost:8080)")
	root.PersistentFlags().Duration("timeout", 0, "request timeout, 0 waits indefinitely (default $NOTES_CLIENT_TIMEOUT)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(newRecordCmd(a), newListCmd(a), newDeleteCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelError
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerURL, _ = cmd.Flags().GetString("server")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	a.cfg = cfg
	a.client = client.New(cfg.ServerURL, cfg.Timeout)
	return nil
}

// controller builds a recorder controller whose microphone plays back mic.
func (a *app) controller(cmd *cobra.Command, mic recorder.Microphone, filename string) *recorder.Controller {
	opts := []recorder.Option{}
	if filename != "" {
		opts = append(opts, recorder.WithFilename(filepath.Base(filename)))
	}
	return recorder.NewController(mic, a.client, a.client, a.confirmer(cmd.InOrStdin(), cmd.OutOrStdout()), opts...)
}

func (a *app) confirmer(in io.Reader, out io.Writer) recorder.Confirmer {
	if a.yes {
		return recorder.ConfirmFunc(func(string) bool { return true })
	}
	r := bufio.NewReader(in)
	return recorder.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}

// userError replaces err with the message the controller shows the user, if
// it set one.
func userError(c *recorder.Controller, err error) error {
	if msg := c.Snapshot().Error; msg != "" {
		slog.Debug("operation failed", "error", err)
		return errors.New(msg)
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
