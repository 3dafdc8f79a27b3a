package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

var hostResource = resource[ipam.Host]{
	singular: "host",
	plural:   "hosts",
	header:   []string{"ID", "Hostname", "IP Address", "MAC Address", "Owner", "Active"},
	widths:   []int{6, 28, 16, 18, 14, 6},
	row: func(h ipam.Host) []string {
		return []string{
			strconv.Itoa(h.ID),
			h.FQDN(),
			h.IPAddress,
			orNotAvailable(h.MACAddress),
			orNotAvailable(h.Owner),
			strconv.FormatBool(h.Active),
		}
	},
	details: func(h ipam.Host) [][]string {
		return [][]string{
			{"ID", strconv.Itoa(h.ID)},
			{"Hostname", h.Hostname},
			{"Domain", orNotAvailable(h.Domain)},
			{"FQDN", h.FQDN()},
			{"IP Address", h.IPAddress},
			{"MAC Address", orNotAvailable(h.MACAddress)},
			{"Owner", orNotAvailable(h.Owner)},
			{"Location", orNotAvailable(h.Location)},
			{"Description", orNotAvailable(h.Description)},
			{"Active", strconv.FormatBool(h.Active)},
			{"Created", formatTime(h.CreatedAt)},
			{"Updated", formatTime(h.UpdatedAt)},
		}
	},
	listEndpoint:   ipamclient.HostsList,
	lister:         func(cli ipam.Client) ipam.Lister[ipam.Host] { return cli.Hosts() },
	detailEndpoint: ipamclient.HostDetail,
	remove: func(cli ipam.Client) func(context.Context, int) error {
		return cli.Hosts().Delete
	},
}

// NewHostsCommand creates the hosts command group.
func NewHostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hosts",
		Aliases: []string{"host"},
		Short:   "Manage hosts",
		Long:    "List, inspect, create, edit and delete hosts",
	}

	cmd.AddCommand(newListCommand(hostResource))
	cmd.AddCommand(newGetCommand(hostResource))
	cmd.AddCommand(newHostsCreateCommand())
	cmd.AddCommand(newHostsEditCommand())
	cmd.AddCommand(newDeleteCommand(hostResource))
	cmd.AddCommand(newBrowseCommand(hostResource, "Hosts"))

	return cmd
}

type hostFlags struct {
	hostname    string
	ipAddress   string
	macAddress  string
	domain      string
	owner       string
	location    string
	description string
	active      bool
}

func (f *hostFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.hostname, "hostname", "", "host name")
	cmd.Flags().StringVar(&f.ipAddress, "ip", "", "IP address")
	cmd.Flags().StringVar(&f.macAddress, "mac", "", "MAC address")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain name")
	cmd.Flags().StringVar(&f.owner, "owner", "", "owner")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().BoolVar(&f.active, "active", true, "whether the host is active")
}

func newHostsCreateCommand() *cobra.Command {
	flags := &hostFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			host, err := cli.Hosts().Create(ctx, &ipam.Host{
				Hostname:    flags.hostname,
				IPAddress:   flags.ipAddress,
				MACAddress:  flags.macAddress,
				Domain:      flags.domain,
				Owner:       flags.owner,
				Location:    flags.location,
				Description: flags.description,
				Active:      flags.active,
			})
			if err != nil {
				return fmt.Errorf("failed to create host: %w", err)
			}

			return renderProperties(cmd, host, hostResource.details(*host))
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("hostname")
	_ = cmd.MarkFlagRequired("ip")

	return cmd
}

func newHostsEditCommand() *cobra.Command {
	flags := &hostFlags{}

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a host",
		Long:  "Load a host, change the given fields and save it. Fields without a flag are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			host, err := editItem(cmd, hostResource.singular, id, ipamclient.HostDetail(cli), ipamclient.HostSave(cli),
				func(e *hooks.EditableData[ipam.Host]) {
					setChanged(cmd, e, "hostname", flags.hostname, func(h *ipam.Host) *string { return &h.Hostname })
					setChanged(cmd, e, "ip", flags.ipAddress, func(h *ipam.Host) *string { return &h.IPAddress })
					setChanged(cmd, e, "mac", flags.macAddress, func(h *ipam.Host) *string { return &h.MACAddress })
					setChanged(cmd, e, "domain", flags.domain, func(h *ipam.Host) *string { return &h.Domain })
					setChanged(cmd, e, "owner", flags.owner, func(h *ipam.Host) *string { return &h.Owner })
					setChanged(cmd, e, "location", flags.location, func(h *ipam.Host) *string { return &h.Location })
					setChanged(cmd, e, "description", flags.description, func(h *ipam.Host) *string { return &h.Description })
					setChanged(cmd, e, "active", flags.active, func(h *ipam.Host) *bool { return &h.Active })
				})
			if err != nil {
				return err
			}

			return renderProperties(cmd, host, hostResource.details(*host))
		},
	}

	flags.register(cmd)

	return cmd
}
