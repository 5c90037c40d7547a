// Package cli implements the fieldctl command-line interface.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datafields/pkg/types"
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
	jsonMode  bool
}

// NewRootCmd creates the top-level "fieldctl" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "fieldctl",
		Short: "Store, validate and transport link field values",
		Long: "fieldctl manages link field values and the elements they reference.\n" +
			"Values are stored as blobs, checked against the element store and\n" +
			"moved in and out through CSV and web-service transports.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&f.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "data directory (default: .datafields-db)")
	root.PersistentFlags().BoolVar(&f.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(f))
	root.AddCommand(newInitCmd(f))
	root.AddCommand(newElementCmd(f))
	root.AddCommand(newLinkCmd(f))
	root.AddCommand(newCSVCmd(f))
	root.AddCommand(newWebserviceCmd(f))
	root.AddCommand(newRemapCmd(f))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a failure of the environment rather than of the
// user's input.
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps err to the process exit code. Errors not marked by
// sysError are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrDetached) {
		return exitSysError
	}
	return exitUserError
}
