package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

var logResource = resource[ipam.LogEntry]{
	singular: "log entry",
	plural:   "log entries",
	header:   []string{"ID", "Time", "User", "Action", "Object", "Message"},
	widths:   []int{6, 20, 14, 10, 16, 40},
	row: func(l ipam.LogEntry) []string {
		return []string{
			strconv.Itoa(l.ID),
			formatTime(l.Timestamp),
			l.Username,
			l.Action,
			logObject(l),
			truncate(l.Message, constants.DescriptionDisplayLength),
		}
	},
	details: func(l ipam.LogEntry) [][]string {
		return [][]string{
			{"ID", strconv.Itoa(l.ID)},
			{"Time", formatTime(l.Timestamp)},
			{"User", l.Username},
			{"Action", l.Action},
			{"Object", logObject(l)},
			{"Message", l.Message},
		}
	},
	listEndpoint:   ipamclient.LogsList,
	lister:         func(cli ipam.Client) ipam.Lister[ipam.LogEntry] { return cli.Logs() },
	detailEndpoint: ipamclient.LogDetail,
}

func logObject(l ipam.LogEntry) string {
	if l.ObjectType == "" {
		return constants.NotAvailable
	}

	if l.ObjectID == nil {
		return l.ObjectType
	}

	return l.ObjectType + " " + strconv.Itoa(*l.ObjectID)
}

// NewLogsCommand creates the logs command group.
func NewLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logs",
		Aliases: []string{"log"},
		Short:   "Inspect the audit log",
		Long:    "List and inspect audit log entries. The audit log is read only.",
	}

	cmd.AddCommand(newListCommand(logResource))
	cmd.AddCommand(newGetCommand(logResource))
	cmd.AddCommand(newLogsStreamCommand())
	cmd.AddCommand(newBrowseCommand(logResource, "Audit Log"))

	return cmd
}

// newLogsStreamCommand prints log entries page by page as they arrive instead
// of collecting the whole log first.
func newLogsStreamCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print every log entry page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := flags.validate()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			options := &ipam.PaginationOptions{
				PageSize: effectivePageSize(loadConfig(), flags.pageSize),
				MaxPages: flags.maxPages,
			}

			for result := range ipam.StreamPages(ctx, cli.Logs(), flags.params(), options) {
				if result.Err != nil {
					return fmt.Errorf("failed to list log entries: %w", result.Err)
				}

				for _, entry := range result.Items {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
						formatTime(entry.Timestamp), entry.Username, entry.Action, logObject(entry), entry.Message)
				}
			}

			return ctx.Err()
		},
	}

	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "results per page (default from config)")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "stop after this many pages")
	cmd.Flags().StringVar(&flags.search, "search", "", "free text filter")
	cmd.Flags().StringVar(&flags.orderBy, "order-by", "", "sort field")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")

	flags.page = 1

	return cmd
}
