// Package cli implements the accountdesk command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/internal/logging"
	"github.com/mesh-intelligence/accountdesk/pkg/accountdesk"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	remoteURL string
	jsonMode  bool
}

// app is the state shared by the commands of one root command.
type app struct {
	flags    rootFlags
	settings settings
	logger   *zap.Logger
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by bad input (exit code 1).
func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

// sysError marks err as an environment or backend failure (exit code 2).
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
// Unmarked errors come from cobra itself (unknown flags, bad arguments).
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// NewRootCmd creates the top-level "accountdesk" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "accountdesk",
		Short:   "Browse, search, sort and edit account records",
		Long:    "accountdesk lists account records from a local store or a remote\nserver, with search, sorting, inline edits, and detail navigation.",
		Version: accountdesk.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			s, err := a.resolveSettings()
			if err != nil {
				return err
			}
			a.settings = s
			if cmd.Name() != "browse" {
				logger, err := logging.New(s.logLevel, s.logFormat)
				if err != nil {
					return userError(fmt.Errorf("config: %w", err))
				}
				a.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.accountdesk-db)")
	root.PersistentFlags().StringVar(&a.flags.remoteURL, "remote", "", "use the remote backend at this URL")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newOpenCmd(a),
		newServeCmd(a),
		newBrowseCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "accountdesk:", err)
	}
	return exitCode(err)
}
