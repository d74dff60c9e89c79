package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/metrics"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Shoko and store the API key",
	Long: `Authenticate with Shoko using a username and password. The API key
returned by the server is stored in the local database and used by every
other command unless shoko.api_key is set in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		device, _ := cmd.Flags().GetString("device")

		if username == "" {
			username = cfg.Shoko.Username
		}
		if password == "" {
			password = cfg.Shoko.Password
		}
		if username == "" {
			fmt.Print("Username: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read username: %w", err)
			}
			username = strings.TrimSpace(line)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shoko.Timeout+5*time.Second)
		defer cancel()

		key, err := newAPIClient().Login(ctx, username, password, device)
		if err != nil {
			return err
		}

		if err := database.SetSetting(database.GetDB(), database.SettingAPIKey, key); err != nil {
			return fmt.Errorf("failed to store api key: %w", err)
		}

		fmt.Println(okStyle.Render("Logged in as " + username))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.SetSetting(database.GetDB(), database.SettingAPIKey, ""); err != nil {
			return err
		}
		fmt.Println("Stored API key removed")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that Shoko Server is reachable and started",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shoko.Timeout+5*time.Second)
		defer cancel()

		client := newAPIClient()
		status, err := client.Health(ctx)
		if err != nil {
			fmt.Println(field("Server", client.BaseURL()))
			fmt.Println(field("Status", errStyle.Render("Unavailable ✗")))
			return err
		}

		fmt.Println(field("Server", client.BaseURL()))
		fmt.Println(field("Status", okStyle.Render(status.State+" ✓")))
		if status.Uptime != "" {
			fmt.Println(field("Uptime", status.Uptime))
		}
		fmt.Println(field("Authenticated", fmt.Sprintf("%t", client.HasAPIKey())))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose Prometheus metrics and run tasks on demand",
	Long: `Serve Prometheus metrics on --metrics-addr. Tasks have no default
triggers; send SIGUSR1 to run the import task, or POST /tasks/<key>/run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("metrics-addr")
		if addr == "" {
			addr = cfg.Metrics.Addr
		}
		if addr == "" {
			return errors.New("no metrics address: set --metrics-addr or metrics.addr")
		}

		registry, err := newTaskRegistry(newAPIClient())
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		runner := newTaskRunner(ctx, registry)
		mux.HandleFunc("/tasks/", taskTriggerHandler(runner))

		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go watchRunSignal(ctx, runner)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("serving metrics", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		var serveErr error
		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				serveErr = err
			}
			cancel()
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
			serveErr = err
		}

		// running tasks still write their results to the database, which is
		// closed once this command returns
		if err := runner.Wait(shutdownCtx); err != nil {
			logger.Warn("tasks still running at shutdown", "error", err)
		}
		return serveErr
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Shoko username (default: shoko.username)")
	loginCmd.Flags().StringP("password", "p", "", "Shoko password (default: shoko.password)")
	loginCmd.Flags().String("device", "", "device name reported to Shoko")
	serveCmd.Flags().String("metrics-addr", "", "listen address for /metrics (default: metrics.addr)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
}
