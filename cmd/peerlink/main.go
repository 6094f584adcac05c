package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"peerlink/internal/bootstrap"
	profiledto "peerlink/internal/modules/profile/dto"
	"peerlink/internal/platform/config"
	"peerlink/internal/platform/logger"
	profileview "peerlink/internal/ui/views/profile"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	stateDir  string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "peerlink",
		Short:         "School 21 participant profile viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.stateDir, "state-dir", config.DefaultStateDir(), "directory holding the token, preferences and cache")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "pretty|json (overrides config)")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newOfflineCmd(opts))
	root.AddCommand(newPrefsCmd(opts))
	root.AddCommand(newCacheCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTUICmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.New(opts.stateDir)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	return cfg, nil
}

func loadApp(opts *rootOptions, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return bootstrap.New(cfg, log)
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.MkdirAll(opts.stateDir, 0o755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}
			logFile, err := os.OpenFile(filepath.Join(opts.stateDir, "peerlink.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()

			app, err := loadApp(opts, logFile)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string
	var passwordStdin, remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your platform login and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				suggested := ""
				if prefs, err := app.PreferencesCLI.Get(ctx); err == nil {
					suggested = prefs.RememberedLogin
				}
				if username, err = promptLine(cmd, in, "Login", suggested); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd, in, passwordStdin)
			if err != nil {
				return err
			}

			out, err := app.SessionCLI.Login(ctx, username, password, remember)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s", out.Login)
			if !out.ExpiresAt.IsZero() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " (token expires %s)", out.ExpiresAt.Local().Format(time.DateTime))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "platform login (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&remember, "remember", true, "remember the login for the next sign in")
	return cmd
}

func promptLine(cmd *cobra.Command, in *bufio.Reader, label, suggested string) (string, error) {
	if suggested != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s [%s]: ", label, suggested)
	} else {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	if line = strings.TrimSpace(line); line == "" {
		return suggested, nil
	}
	return line, nil
}

// readPassword never echoes the password and never hands it to anything but
// the session use case.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fd := os.Stdin.Fd()
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal: use --password-stdin")
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.SessionCLI.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored token state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.Status(cmd.Context(), verify)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !out.Authenticated {
				_, _ = fmt.Fprintln(w, "not signed in")
				return nil
			}
			_, _ = fmt.Fprintf(w, "login:    %s\n", out.Login)
			if out.Subject != "" {
				_, _ = fmt.Fprintf(w, "subject:  %s\n", out.Subject)
			}
			if !out.ExpiresAt.IsZero() {
				state := "valid"
				if out.Expired {
					state = "expired"
				}
				_, _ = fmt.Fprintf(w, "expires:  %s (%s)\n", out.ExpiresAt.Local().Format(time.DateTime), state)
			}
			if verify {
				if out.Verified {
					_, _ = fmt.Fprintln(w, "verified: signature and issuer ok")
				} else {
					_, _ = fmt.Fprintf(w, "verified: no (%s)\n", out.VerifyError)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the token signature against the identity provider")
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "profile <login>",
		Short: "Load and print a participant profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ProfileCLI.Load(cmd.Context(), args[0])
			if out.State != profiledto.StateReady {
				if out.Message != "" {
					return errors.New(out.Message)
				}
				if err == nil {
					err = fmt.Errorf("profile %s: %s", args[0], out.State)
				}
				return err
			}
			if out.Reauthenticate {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), out.Message)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Profile)
			}
			return printMarkdown(cmd.OutOrStdout(), profileview.Markdown(out))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized profile as JSON")
	return cmd
}

func printMarkdown(w io.Writer, doc string) error {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		_, err = io.WriteString(w, doc)
		return err
	}
	rendered, err := renderer.Render(doc)
	if err != nil {
		_, err = io.WriteString(w, doc)
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func newOfflineCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "offline on|off",
		Short:     "Toggle serving profiles from the local cache",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.PreferencesCLI.SetOfflineMode(cmd.Context(), args[0] == "on"); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "offline mode %s\n", args[0])
			return nil
		},
	}
}

func newPrefsCmd(opts *rootOptions) *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			p, err := app.PreferencesCLI.Get(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "offline:  %t\n", p.OfflineMode)
			_, _ = fmt.Fprintf(w, "language: %s\n", p.Language)
			_, _ = fmt.Fprintf(w, "theme:    %s (%s %s)\n", p.ThemeID, p.ThemeName, p.ThemeHex)
			remembered := p.RememberedLogin
			if remembered == "" {
				remembered = "-"
			}
			_, _ = fmt.Fprintf(w, "login:    %s\n", remembered)
			return nil
		},
	}

	prefs.AddCommand(&cobra.Command{
		Use:   "lang <en|ru|uz>",
		Short: "Set the message language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.PreferencesCLI.SetLanguage(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "language %s\n", strings.ToUpper(strings.TrimSpace(args[0])))
			return nil
		},
	})

	prefs.AddCommand(&cobra.Command{
		Use:   "theme <id>",
		Short: "Set the accent theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.PreferencesCLI.SetTheme(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "theme %s\n", strings.ToLower(args[0]))
			return nil
		},
	})

	prefs.AddCommand(&cobra.Command{
		Use:   "themes",
		Short: "List theme presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			for _, t := range app.PreferencesCLI.Themes() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-10s %s\n", t.ID, t.Name, t.Hex)
			}
			return nil
		},
	})

	prefs.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Forget the remembered login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.PreferencesCLI.ForgetLogin(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "remembered login cleared")
			return nil
		},
	})
	return prefs
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cache := &cobra.Command{Use: "cache", Short: "Manage the offline profile cache"}
	cache.AddCommand(&cobra.Command{
		Use:   "purge [login]",
		Short: "Remove one cached profile, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			login := ""
			if len(args) == 1 {
				login = args[0]
			}
			out, err := app.ProfileCLI.PurgeCache(cmd.Context(), login)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached profiles\n", out.Removed)
			return nil
		},
	})
	return cache
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API for a browser front end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if addr == "" {
				addr = app.Config().Server.Addr
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           app.Server().Router(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      90 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("http server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr from config)")
	return cmd
}
