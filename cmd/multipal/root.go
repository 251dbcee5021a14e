package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hyperengineering/multipal"
	"github.com/hyperengineering/multipal/internal/drive"
	"github.com/hyperengineering/multipal/internal/profile"
	"github.com/spf13/cobra"
)

var (
	cfgProfilePath   string
	cfgBackup        string
	cfgDriveBaseURL  string
	cfgDriveClientID string
	cfgDriveToken    string
	cfgUID           string
	cfgDebug         bool
)

var rootCmd = &cobra.Command{
	Use:   "multipal",
	Short: "Multipal - app instance cloning and backup CLI",
	Long: `Multipal clones catalog apps into isolated instances and keeps
your instance list and settings backed up to a cloud provider.

Most commands operate on a user session; pass --uid (or set
MULTIPAL_UID) to load that user's saved instances and settings.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgProfilePath, "profile-path", "", "Path to local profile database (default: ./data/profiles.db)")
	rootCmd.PersistentFlags().StringVar(&cfgBackup, "backup", "", "Backup backend: auto, drive, or mock (default: auto)")
	rootCmd.PersistentFlags().StringVar(&cfgDriveBaseURL, "drive-base-url", "", "Base URL of the drive API")
	rootCmd.PersistentFlags().StringVar(&cfgDriveClientID, "drive-client-id", "", "OAuth client ID for the drive API")
	rootCmd.PersistentFlags().StringVar(&cfgDriveToken, "drive-token", "", "OAuth refresh token for the drive API")
	rootCmd.PersistentFlags().StringVar(&cfgUID, "uid", "", "User ID for the session (default: $MULTIPAL_UID)")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Enable debug logging")
}

func loadConfig() multipal.Config {
	cfg := multipal.ConfigFromEnv()

	if cfgProfilePath != "" {
		cfg.ProfilePath = cfgProfilePath
	}
	if cfgBackup != "" {
		cfg.Backup = multipal.BackupBackend(cfgBackup)
	}
	if cfgDriveBaseURL != "" {
		cfg.DriveBaseURL = cfgDriveBaseURL
	}
	if cfgDriveClientID != "" {
		cfg.DriveClientID = cfgDriveClientID
	}
	if cfgDriveToken != "" {
		cfg.DriveToken = cfgDriveToken
	}
	if cfgDebug {
		cfg.Debug = true
	}

	return cfg
}

func sessionUID() string {
	if cfgUID != "" {
		return cfgUID
	}
	return os.Getenv("MULTIPAL_UID")
}

// buildClient assembles a client from config, signs in the session user when
// one is configured, and returns a cleanup func.
func buildClient(cmd *cobra.Command) (*multipal.Client, func(), error) {
	cfg := loadConfig().WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	debug, err := multipal.NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		return nil, nil, err
	}

	profiles, closeProfiles, err := profile.Select(cfg)
	if err != nil {
		_ = debug.Close()
		return nil, nil, err
	}

	client, err := multipal.New(cfg, multipal.Deps{
		Provider:        drive.Select(cfg, debug),
		Profiles:        profiles,
		Notifier:        noticePrinter{w: cmd.ErrOrStderr()},
		OnProviderState: newAuthSignal(),
	})
	if err != nil {
		_ = closeProfiles()
		_ = debug.Close()
		return nil, nil, err
	}

	if uid := sessionUID(); uid != "" {
		client.SignIn(cmd.Context(), uid)
	}

	cleanup := func() {
		_ = client.Close()
		_ = closeProfiles()
		_ = debug.Close()
	}
	return client, cleanup, nil
}

// providerAuthed is closed on the first Authenticated provider state;
// buildClient wires it through the state callback.
var providerAuthed chan struct{}

func newAuthSignal() multipal.StateFunc {
	ch := make(chan struct{})
	providerAuthed = ch
	var once sync.Once
	return func(st multipal.ProviderState) {
		if st.Authenticated {
			once.Do(func() { close(ch) })
		}
	}
}

// authenticate signs in to the backup provider, required before backup and
// restore operations. Providers that report readiness asynchronously signal
// through the state callback; wait on it rather than polling.
func authenticate(cmd *cobra.Command, client *multipal.Client) error {
	ctx := cmd.Context()
	if err := client.AuthenticateProvider(ctx); err != nil {
		return fmt.Errorf("provider sign-in failed: %w", err)
	}
	if client.ProviderState().Authenticated || providerAuthed == nil {
		return nil
	}
	select {
	case <-providerAuthed:
		return nil
	case <-time.After(time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
