package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the IPAM",
		Long: `Open a session with the configured API endpoint. The session cookie and
CSRF token are stored in the config file and reused by later commands.

The password is read from --password, the IPAM_PASSWORD environment variable
or an interactive prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.API == "" {
				return constants.ErrNoAPIConfigured
			}

			endpoint, err := ipamclient.NormalizeEndpoint(config.API)
			if err != nil {
				return fmt.Errorf("invalid API endpoint: %w", err)
			}

			config.API = endpoint

			input := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username = config.Username
			}

			if username == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
				username = readLine(input)
			}

			if username == "" {
				return constants.ErrUsernameRequired
			}

			if password == "" {
				password = viper.GetString("password")
			}

			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

				password, err = readPassword(cmd, input)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				fmt.Fprintln(cmd.ErrOrStderr())
			}

			if password == "" {
				return constants.ErrPasswordRequired
			}

			clientConfig, err := buildClientConfig(config)
			if err != nil {
				return err
			}

			clientConfig.Username = username
			clientConfig.Password = password

			ctx := cmd.Context()

			cli, err := ipamclient.New(ctx, clientConfig)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			defer func() { _ = cli.Close() }()

			sessionID, csrfToken := cli.Session().Current()

			err = NewConfigPersister().UpdateSession(endpoint, sessionID, csrfToken)
			if err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			config = loadConfig()
			config.Username = username

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", endpoint, username)

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the IPAM",
		Long:  "End the stored session on the server and remove it from the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.API == "" {
				return constants.ErrNoAPIConfigured
			}

			if config.SessionID == "" {
				return constants.ErrNotLoggedIn
			}

			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			err = cli.Session().Logout(ctx)
			if err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}

			err = NewConfigPersister().UpdateSession(config.API, "", "")
			if err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", config.API)

			return nil
		},
	}
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')

	return strings.TrimSpace(line)
}

// readPassword reads without echo from a terminal and falls back to a plain
// line when stdin is redirected.
func readPassword(cmd *cobra.Command, r *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		bytePassword, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}

		return string(bytePassword), nil
	}

	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return strings.TrimSpace(line), nil
}
