package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

var userResource = resource[ipam.User]{
	singular: "user",
	plural:   "users",
	header:   []string{"ID", "Username", "Email", "Name", "Staff", "Active"},
	widths:   []int{6, 20, 28, 24, 6, 6},
	row: func(u ipam.User) []string {
		return []string{
			strconv.Itoa(u.ID),
			u.Username,
			orNotAvailable(u.Email),
			orNotAvailable(fullName(u)),
			strconv.FormatBool(u.IsStaff),
			strconv.FormatBool(u.IsActive),
		}
	},
	details: func(u ipam.User) [][]string {
		lastLogin := constants.NotAvailable
		if u.LastLogin != nil {
			lastLogin = formatTime(*u.LastLogin)
		}

		return [][]string{
			{"ID", strconv.Itoa(u.ID)},
			{"Username", u.Username},
			{"Email", orNotAvailable(u.Email)},
			{"Name", orNotAvailable(fullName(u))},
			{"Staff", strconv.FormatBool(u.IsStaff)},
			{"Active", strconv.FormatBool(u.IsActive)},
			{"Last Login", lastLogin},
		}
	},
	listEndpoint:   ipamclient.UsersList,
	lister:         func(cli ipam.Client) ipam.Lister[ipam.User] { return cli.Users() },
	detailEndpoint: ipamclient.UserDetail,
}

func fullName(u ipam.User) string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Inspect users",
		Long:    "List and inspect the accounts of the IPAM application",
	}

	cmd.AddCommand(newListCommand(userResource))
	cmd.AddCommand(newGetCommand(userResource))
	cmd.AddCommand(newUsersMeCommand())

	return cmd
}

func newUsersMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			user, err := fetchOne(ctx, ipamclient.CurrentUser(cli), ipam.NewParams())
			if err != nil {
				if ipam.IsUnauthorized(err) || ipam.IsForbidden(err) {
					return constants.ErrNotLoggedIn
				}

				return fmt.Errorf("failed to get current user: %w", err)
			}

			return renderProperties(cmd, user, userResource.details(*user))
		},
	}
}
