package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"attendance-backend/internal/checker"

	"github.com/spf13/cobra"
)

type checkFlags struct {
	username *string
	password *string
	json     *bool
	subject  *string
}

var checkOpts checkFlags

func init() {
	checkOpts = addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) checkFlags {
	return checkFlags{
		username: cmd.Flags().StringP("username", "u", "", "Portal username, defaults to $"+usernameEnv+"."),
		password: cmd.Flags().StringP("password", "p", "", "Portal password, defaults to $"+passwordEnv+"."),
		json:     cmd.Flags().Bool("json", false, "Print the report as JSON."),
		subject:  cmd.Flags().StringP("subject", "s", "", "Only show subjects whose name resembles this."),
	}
}

var checkCmd = &cobra.Command{
	Use:   "check [--username <user>] [--password <pass>] [--json] [--subject <name>]",
	Short: "Logs into the portal and prints per-subject and overall attendance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tel := newTelemetry()
		c, err := newChecker(tel)
		if err != nil {
			return err
		}
		return runCheck(cmd.Context(), c, checkOpts, os.Stdout, os.Stderr)
	},
}

var errCheckFailed = errors.New("check failed")

func runCheck(ctx context.Context, c checker.Checker, flags checkFlags, out, errOut io.Writer) error {
	credentials := resolveCredentials(*flags.username, *flags.password)

	report, err := c.Check(ctx, credentials)
	if err != nil {
		slog.Debug("check failed", "err", err)
		fmt.Fprintln(errOut, checker.UserMessage(err))
		return errCheckFailed
	}

	if *flags.subject != "" {
		report = filterReport(report, *flags.subject)
	}

	if *flags.json {
		return writeJSON(out, report)
	}
	renderReport(out, report)
	return nil
}
