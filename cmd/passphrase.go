package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Daskott/sos/server/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPassphraseLength = 8

func createPassphraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passphrase",
		Short: "Set the passphrase used to log in to the sos server",
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := readPassphrase(cmd)
			if err != nil {
				return err
			}

			if len(passphrase) < minPassphraseLength {
				return formattedError("passphrase must have at least %v characters", minPassphraseLength)
			}

			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			if err := auth.SavePassphrase(a.db.WithContext(cmd.Context()), passphrase); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Passphrase saved")
			return nil
		},
	}
}

// readPassphrase reads without echo from a terminal, asking twice. Piped
// input is read as a single line.
func readPassphrase(cmd *cobra.Command) (string, error) {
	stdinFd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(stdinFd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("unable to read passphrase: %v", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Passphrase: ")
	first, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}

	fmt.Fprint(cmd.OutOrStdout(), "Repeat passphrase: ")
	second, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", formattedError("passphrases do not match")
	}

	return string(first), nil
}
