package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

var domainResource = resource[ipam.Domain]{
	singular: "domain",
	plural:   "domains",
	header:   []string{"ID", "Name", "Records", "Serial", "Description"},
	widths:   []int{6, 32, 8, 12, 40},
	row: func(d ipam.Domain) []string {
		return []string{
			strconv.Itoa(d.ID),
			d.Name,
			strconv.Itoa(d.RecordCount),
			strconv.FormatInt(d.Serial, 10),
			truncate(d.Description, constants.DescriptionDisplayLength),
		}
	},
	details: func(d ipam.Domain) [][]string {
		return [][]string{
			{"ID", strconv.Itoa(d.ID)},
			{"Name", d.Name},
			{"Description", orNotAvailable(d.Description)},
			{"Serial", strconv.FormatInt(d.Serial, 10)},
			{"Records", strconv.Itoa(d.RecordCount)},
			{"Created", formatTime(d.CreatedAt)},
		}
	},
	listEndpoint:   ipamclient.DomainsList,
	lister:         func(cli ipam.Client) ipam.Lister[ipam.Domain] { return cli.Domains() },
	detailEndpoint: ipamclient.DomainDetail,
	remove: func(cli ipam.Client) func(context.Context, int) error {
		return cli.Domains().Delete
	},
}

// NewDomainsCommand creates the domains command group.
func NewDomainsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "domains",
		Aliases: []string{"domain"},
		Short:   "Manage domains",
		Long:    "List, inspect, create and delete DNS domains",
	}

	cmd.AddCommand(newListCommand(domainResource))
	cmd.AddCommand(newGetCommand(domainResource))
	cmd.AddCommand(newDomainsCreateCommand())
	cmd.AddCommand(newDeleteCommand(domainResource))
	cmd.AddCommand(newBrowseCommand(domainResource, "Domains"))

	return cmd
}

func newDomainsCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			domain, err := cli.Domains().Create(ctx, &ipam.Domain{
				Name:        args[0],
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("failed to create domain: %w", err)
			}

			return renderProperties(cmd, domain, domainResource.details(*domain))
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "domain description")

	return cmd
}
