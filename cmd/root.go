package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bz888/localchat/internal/api"
	"github.com/bz888/localchat/internal/api/server"
	"github.com/bz888/localchat/internal/config"
	"github.com/bz888/localchat/internal/conversation"
	"github.com/bz888/localchat/internal/logger"
	"github.com/bz888/localchat/internal/ui"
	"github.com/spf13/cobra"
)

var flags config.Flags

var rootCmd = &cobra.Command{
	Use:           "localchat",
	Short:         "Chat with a local model from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run only the chat server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	RunE:  runConfig,
}

func init() {
	flags.Register(rootCmd)
	rootCmd.AddCommand(serveCmd, configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}

	apiClient, err := api.NewClient(cfg.ServerURL())
	if err != nil {
		return err
	}
	conv := conversation.New(apiClient)
	view := ui.New(cfg, conv, apiClient)

	if err := logger.InitLogger(cfg.Dev, cfg.LogPath, view.DebugConsole()); err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	_, serverErr, err := startServer(ctx, cfg)
	if err != nil {
		return err
	}
	return runApp(view, serverErr)
}

// startServer binds the chat server address and serves in the background until
// ctx ends. The channel receives Run's result once.
func startServer(ctx context.Context, cfg *config.Config) (*server.Server, <-chan error, error) {
	srv, err := server.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := srv.Listen(); err != nil {
		return nil, nil, err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(ctx)
	}()
	return srv, serverErr, nil
}

type app interface {
	Run() error
	Stop()
}

// runApp runs the UI until it quits or the server fails. A server failure
// stops the UI and is returned.
func runApp(ui app, serverErr <-chan error) error {
	failed := make(chan error, 1)
	go func() {
		if err := <-serverErr; err != nil {
			logger.NewLogger("Server").Error(err)
			failed <- err
			ui.Stop()
		}
	}()

	if err := ui.Run(); err != nil {
		return err
	}
	select {
	case err := <-failed:
		return err
	default:
		return nil
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}

	if err := logger.InitLogger(cfg.Dev, cfg.LogPath, nil); err != nil {
		return err
	}
	defer logger.Close()

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := flags.Resolve(cmd)
	if err != nil {
		return err
	}
	return cfg.Encode(cmd.OutOrStdout())
}
