package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"attendance-backend/internal/checker"
	"attendance-backend/internal/components/chrono"
	"attendance-backend/internal/components/telemetry"
	"attendance-backend/internal/scrapers/portal"
	"attendance-backend/lib/configutil"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	usernameEnv = "PORTAL_USERNAME"
	passwordEnv = "PORTAL_PASSWORD"

	// noticeMessageEnv is shown to the student whose profile "Username" is noticeUsernameEnv.
	noticeUsernameEnv = "PORTAL_NOTICE_USERNAME"
	noticeMessageEnv  = "PORTAL_NOTICE_MESSAGE"
)

var (
	configPath *string
	envPath    *string
	dumpDir    *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:           "attendance-cli",
	Short:         "attendance-cli checks a student's attendance on the college portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		err := godotenv.Load(*envPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", *envPath, err)
		}
		return nil
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "attendance.json5", "The portal configuration, a <name>.local.<ext> next to it overrides it.")
	envPath = rootCmd.PersistentFlags().String("env", ".env", "A dotenv file that may provide "+usernameEnv+" and "+passwordEnv+".")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every HTTP exchange with the portal to this directory.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every request.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	reportError(os.Stderr, err)
	return err
}

func reportError(w io.Writer, err error) {
	// a failed check has already told the student why
	if err == nil || errors.Is(err, errCheckFailed) {
		return
	}
	fmt.Fprintln(w, err)
}

func loadConfig() (checker.Config, error) {
	config, err := configutil.MergeOnto(checker.DefaultConfig(), *configPath)
	if err != nil {
		return checker.Config{}, fmt.Errorf("read %s: %w", *configPath, err)
	}
	return config, nil
}

// newTelemetry decorates slog with otel metrics, falling back to slog alone.
func newTelemetry() telemetry.API {
	var tel telemetry.API = telemetry.SlogAPI{}
	otelTel, err := telemetry.NewOtelAPI(tel)
	if err != nil {
		tel.ReportWarning("cli.telemetry", err)
		return tel
	}
	return otelTel
}

func newChecker(tel telemetry.API) (checker.Checker, error) {
	config, err := loadConfig()
	if err != nil {
		return checker.Checker{}, err
	}

	var output telemetry.InstrumentOutput
	if *dumpDir != "" {
		fsOutput, err := telemetry.NewFilesystemOutput(*dumpDir)
		if err != nil {
			return checker.Checker{}, err
		}
		output = fsOutput
	}

	return checker.NewChecker(config, tel, chrono.NewStandardTime(nil), output)
}

// noticeFor returns the configured notice if `profile` belongs to its recipient.
func noticeFor(profile portal.Profile) string {
	recipient := os.Getenv(noticeUsernameEnv)
	if recipient == "" {
		return ""
	}
	username, ok := profile.Get("Username")
	if !ok || username != recipient {
		return ""
	}
	return os.Getenv(noticeMessageEnv)
}

// resolveCredentials prefers flags over the environment.
func resolveCredentials(username, password string) portal.Credentials {
	if username == "" {
		username = os.Getenv(usernameEnv)
	}
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	return portal.Credentials{
		Username: username,
		Password: password,
	}
}
