package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kampuskuevent/server/internal/auth"
	"github.com/spf13/cobra"
)

func newHashTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the bcrypt hash of an admin token",
		Long: `Hash an admin token for use as ADMIN_TOKEN_BCRYPT.

The token is read from the first argument, or from the first line of stdin
when no argument is given.

Examples:
  server hash-token 's3cret'
  echo 's3cret' | server hash-token`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := readTokenLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = line
			}

			hash, err := auth.HashToken(token)
			if err != nil {
				return fmt.Errorf("hash token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// readTokenLine returns the first line of r without its line terminator.
func readTokenLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
