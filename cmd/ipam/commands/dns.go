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

const defaultRecordTTL = 3600

var dnsRecordResource = resource[ipam.DNSRecord]{
	singular: "DNS record",
	plural:   "DNS records",
	header:   []string{"ID", "Name", "Type", "Content", "TTL", "Priority"},
	widths:   []int{6, 32, 6, 32, 6, 8},
	row: func(r ipam.DNSRecord) []string {
		return []string{
			strconv.Itoa(r.ID),
			r.FQDN(),
			r.Type,
			truncate(r.Content, 40),
			strconv.Itoa(r.TTL),
			formatIntPtr(r.Priority),
		}
	},
	details: func(r ipam.DNSRecord) [][]string {
		return [][]string{
			{"ID", strconv.Itoa(r.ID)},
			{"Name", r.Name},
			{"FQDN", r.FQDN()},
			{"Type", r.Type},
			{"Content", r.Content},
			{"TTL", strconv.Itoa(r.TTL)},
			{"Priority", formatIntPtr(r.Priority)},
			{"Domain", r.Domain},
			{"Host", formatIntPtr(r.Host)},
			{"Created", formatTime(r.CreatedAt)},
			{"Updated", formatTime(r.UpdatedAt)},
		}
	},
	listEndpoint:   ipamclient.DNSRecordsList,
	lister:         func(cli ipam.Client) ipam.Lister[ipam.DNSRecord] { return cli.DNSRecords() },
	detailEndpoint: ipamclient.DNSRecordDetail,
	remove: func(cli ipam.Client) func(context.Context, int) error {
		return cli.DNSRecords().Delete
	},
}

// NewDNSRecordsCommand creates the dns command group.
func NewDNSRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dns",
		Aliases: []string{"dns-records", "records"},
		Short:   "Manage DNS records",
		Long:    "List, inspect, create, edit and delete DNS records. Records are validated before they are sent.",
	}

	cmd.AddCommand(newListCommand(dnsRecordResource))
	cmd.AddCommand(newGetCommand(dnsRecordResource))
	cmd.AddCommand(newDNSRecordsCreateCommand())
	cmd.AddCommand(newDNSRecordsEditCommand())
	cmd.AddCommand(newDeleteCommand(dnsRecordResource))
	cmd.AddCommand(newBrowseCommand(dnsRecordResource, "DNS Records"))

	return cmd
}

type dnsRecordFlags struct {
	name       string
	recordType string
	content    string
	ttl        int
	priority   int
	domain     string
	host       int
}

func (f *dnsRecordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "record name, @ for the zone apex")
	cmd.Flags().StringVar(&f.recordType, "type", "", "record type (A, AAAA, CNAME, MX, TXT, ...)")
	cmd.Flags().StringVar(&f.content, "content", "", "record data")
	cmd.Flags().IntVar(&f.ttl, "ttl", defaultRecordTTL, "time to live in seconds")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "priority for MX and SRV records")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain the record belongs to")
	cmd.Flags().IntVar(&f.host, "host", 0, "ID of the host the record points to")
}

func newDNSRecordsCreateCommand() *cobra.Command {
	flags := &dnsRecordFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a DNS record",
		RunE: func(cmd *cobra.Command, args []string) error {
			record := &ipam.DNSRecord{
				Name:    flags.name,
				Type:    flags.recordType,
				Content: flags.content,
				TTL:     flags.ttl,
				Domain:  flags.domain,
			}

			if cmd.Flags().Changed("priority") {
				record.Priority = &flags.priority
			}

			if cmd.Flags().Changed("host") {
				record.Host = &flags.host
			}

			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			created, err := cli.DNSRecords().Create(ctx, record)
			if err != nil {
				return fmt.Errorf("failed to create DNS record: %w", err)
			}

			return renderProperties(cmd, created, dnsRecordResource.details(*created))
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("content")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func newDNSRecordsEditCommand() *cobra.Command {
	flags := &dnsRecordFlags{}

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a DNS record",
		Long:  "Load a DNS record, change the given fields and save it. Fields without a flag are kept.",
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

			record, err := editItem(cmd, dnsRecordResource.singular, id,
				ipamclient.DNSRecordDetail(cli), ipamclient.DNSRecordSave(cli),
				func(e *hooks.EditableData[ipam.DNSRecord]) {
					setChanged(cmd, e, "name", flags.name, func(r *ipam.DNSRecord) *string { return &r.Name })
					setChanged(cmd, e, "type", flags.recordType, func(r *ipam.DNSRecord) *string { return &r.Type })
					setChanged(cmd, e, "content", flags.content, func(r *ipam.DNSRecord) *string { return &r.Content })
					setChanged(cmd, e, "ttl", flags.ttl, func(r *ipam.DNSRecord) *int { return &r.TTL })
					setChanged(cmd, e, "priority", &flags.priority, func(r *ipam.DNSRecord) **int { return &r.Priority })
					setChanged(cmd, e, "domain", flags.domain, func(r *ipam.DNSRecord) *string { return &r.Domain })
					setChanged(cmd, e, "host", &flags.host, func(r *ipam.DNSRecord) **int { return &r.Host })
				})
			if err != nil {
				return err
			}

			return renderProperties(cmd, record, dnsRecordResource.details(*record))
		},
	}

	flags.register(cmd)

	return cmd
}
