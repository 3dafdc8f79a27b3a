package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/fivetwenty-io/ipam-client/pkg/ipamclient"
)

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search hosts, records, domains and users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			size := effectivePageSize(loadConfig(), pageSize)

			params := ipam.NewParams().
				WithSearch(args[0]).
				WithPage(page).
				WithPageSize(size)

			results, err := fetchOne(ctx, ipamclient.Search(cli), params)
			if err != nil {
				return fmt.Errorf("failed to search: %w", err)
			}

			rows := make([][]string, 0, len(results.Results))
			for _, r := range results.Results {
				rows = append(rows, []string{r.Kind, strconv.Itoa(r.ID), r.Label, orNotAvailable(r.Detail)})
			}

			err = render(cmd, results, []string{"Kind", "ID", "Label", "Detail"}, rows)
			if err != nil {
				return err
			}

			if outputFormat() == constants.FormatTable && results.HasNext() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nShowing page %d of %d. Use --page to see more results.\n",
					page, results.TotalPages(size))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "results per page (default from config)")

	return cmd
}
