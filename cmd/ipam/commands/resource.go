package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// resource describes how the CLI lists, shows and deletes one collection.
type resource[T any] struct {
	singular string
	plural   string
	header   []string
	widths   []int
	row      func(T) []string
	details  func(T) [][]string

	listEndpoint   func(ipam.Client) hooks.Endpoint[ipam.ListResponse[T]]
	lister         func(ipam.Client) ipam.Lister[T]
	detailEndpoint func(ipam.Client) hooks.Endpoint[T]
	remove         func(ipam.Client) func(context.Context, int) error
}

func (r resource[T]) rows(items []T) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, r.row(item))
	}

	return rows
}

// hookOptions binds hooks to the command context and, when verbose, logs
// their failures.
func hookOptions(ctx context.Context) []hooks.Option {
	opts := []hooks.Option{hooks.WithContext(ctx)}

	if viper.GetBool("verbose") {
		opts = append(opts, hooks.WithLogger(NewStderrLogger(os.Stderr, true)))
	}

	return opts
}

type listFlags struct {
	all      bool
	page     int
	pageSize int
	maxPages int
	search   string
	orderBy  string
	desc     bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "results per page (default from config)")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "stop --all after this many pages")
	cmd.Flags().StringVar(&f.search, "search", "", "free text filter")
	cmd.Flags().StringVar(&f.orderBy, "order-by", "", "sort field")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
}

func (f *listFlags) params() ipam.Params {
	params := ipam.NewParams()

	if f.search != "" {
		params.WithSearch(f.search)
	}

	if f.orderBy != "" {
		direction := ipam.DirectionAscending
		if f.desc {
			direction = ipam.DirectionDescending
		}

		params.WithOrderBy(f.orderBy, direction)
	}

	return params
}

func (f *listFlags) validate() error {
	if f.page < 1 {
		return fmt.Errorf("%w: page must be at least 1", constants.ErrInvalidValue)
	}

	if f.pageSize < 0 || f.pageSize > ipam.MaxPageSize {
		return fmt.Errorf("%w: %d", constants.ErrInvalidPageSize, f.pageSize)
	}

	return nil
}

func newListCommand[T any](res resource[T]) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + res.plural,
		Long:  "List " + res.plural + " one page at a time, or every page with --all",
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

			pageSize := effectivePageSize(loadConfig(), flags.pageSize)

			if flags.all {
				items, err := ipam.FetchAllPages(ctx, res.lister(cli), flags.params(), &ipam.PaginationOptions{
					PageSize: pageSize,
					MaxPages: flags.maxPages,
				})
				if err != nil {
					return fmt.Errorf("failed to list %s: %w", res.plural, err)
				}

				return render(cmd, items, res.header, res.rows(items))
			}

			list, err := fetchPage(ctx, res.listEndpoint(cli), flags.page, pageSize, flags.params())
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", res.plural, err)
			}

			err = render(cmd, list, res.header, res.rows(list.Results))
			if err != nil {
				return err
			}

			if outputFormat() == constants.FormatTable && list.HasNext() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nShowing page %d of %d. Use --all to fetch all pages.\n",
					flags.page, list.TotalPages(pageSize))
			}

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// fetchPage loads one page through a PaginatedAPI and waits for the result.
func fetchPage[T any](
	ctx context.Context,
	endpoint hooks.Endpoint[ipam.ListResponse[T]],
	page, pageSize int,
	params ipam.Params,
) (*ipam.ListResponse[T], error) {
	api := hooks.NewPaginatedAPI[ipam.ListResponse[T]](nil, hookOptions(ctx)...)
	defer api.Close()

	api.Update(endpoint, page, pageSize, params, true)

	state, err := api.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if state.Err != nil {
		return nil, state.Err
	}

	return state.Data, nil
}

// fetchOne loads one item through an APIData and waits for the result.
func fetchOne[T any](ctx context.Context, endpoint hooks.Endpoint[T], params ipam.Params) (*T, error) {
	api := hooks.NewAPIData[T](nil, hookOptions(ctx)...)
	defer api.Close()

	api.Update(endpoint, params, true)

	state, err := api.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if state.Err != nil {
		return nil, state.Err
	}

	return state.Data, nil
}

func newGetCommand[T any](res resource[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a " + res.singular,
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

			item, err := fetchOne(ctx, res.detailEndpoint(cli), ipam.NewParams().With(ipam.ParamID, id))
			if err != nil {
				return fmt.Errorf("failed to get %s %d: %w", res.singular, id, err)
			}

			return renderProperties(cmd, item, res.details(*item))
		},
	}
}

func newDeleteCommand[T any](res resource[T]) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + res.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !force {
				if !confirm(cmd, fmt.Sprintf("Really delete %s %d?", res.singular, id)) {
					return constants.ErrDeleteAborted
				}
			}

			ctx := cmd.Context()

			cli, err := CreateClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			err = res.remove(cli)(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete %s %d: %w", res.singular, id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", res.singular, id)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", constants.ErrInvalidIdentifier, value)
	}

	return id, nil
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

// setChanged applies a flag value to the field selected by get when the flag
// was given on the command line.
func setChanged[T, V any](cmd *cobra.Command, e *hooks.EditableData[T], flag string, value V, get func(*T) *V) {
	if cmd.Flags().Changed(flag) {
		hooks.Field(e, get).Set(value)
	}
}

// editItem loads an item, applies the changed flags with apply and saves it.
func editItem[T any](
	cmd *cobra.Command,
	singular string,
	id int,
	fetch hooks.Endpoint[T],
	save hooks.SaveEndpoint[T],
	apply func(*hooks.EditableData[T]),
) (*T, error) {
	ctx := cmd.Context()

	var zero T

	e := hooks.NewEditableData(fetch, save, zero, ipam.NewParams().With(ipam.ParamID, id), nil, hookOptions(ctx)...)
	defer e.Close()

	state, err := e.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if state.Err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", singular, id, state.Err)
	}

	apply(e)

	if !e.State().Modified {
		return nil, constants.ErrNothingToUpdate
	}

	err = e.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %d: %w", singular, id, err)
	}

	saved := e.State().Data

	return &saved, nil
}
