package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rebeliceyang/lazydb/internal/config"
	"github.com/rebeliceyang/lazydb/internal/credentials"
	"github.com/rebeliceyang/lazydb/internal/models"
)

func newPasswordCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage connection passwords stored in the OS keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <connection>",
		Short: "Store the password of a configured connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := findConnection(opts, args[0])
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, d)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("empty password, nothing stored")
			}
			if err := credentials.NewPasswordStore().Save(d, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s\n", d.MaskedURL())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <connection>",
		Short: "Remove the stored password of a configured connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := findConnection(opts, args[0])
			if err != nil {
				return err
			}
			if err := credentials.NewPasswordStore().Delete(d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed password for %s\n", d.MaskedURL())
			return nil
		},
	})

	return cmd
}

func findConnection(opts *rootOptions, id string) (models.ConnectionDescriptor, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return models.ConnectionDescriptor{}, err
	}
	for _, d := range cfg.Connections {
		if d.ID == id || d.Name == id {
			return d, nil
		}
	}
	return models.ConnectionDescriptor{}, fmt.Errorf("no connection named %q", id)
}

// readPassword prompts without echo on a terminal and reads the first line
// of input otherwise.
func readPassword(cmd *cobra.Command, d models.ConnectionDescriptor) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", d.MaskedURL())
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
