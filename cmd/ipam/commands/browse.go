package commands

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/internal/tui"
	"github.com/fivetwenty-io/ipam-client/pkg/hooks"
)

const defaultColumnWidth = 16

// browserColumns derives the browser columns from the list table layout.
func browserColumns[T any](res resource[T]) []tui.Column[T] {
	columns := make([]tui.Column[T], 0, len(res.header))

	for i, title := range res.header {
		width := defaultColumnWidth
		if i < len(res.widths) {
			width = res.widths[i]
		}

		columns = append(columns, tui.Column[T]{
			Title: title,
			Width: width,
			Value: func(item T) string { return res.row(item)[i] },
		})
	}

	return columns
}

func newBrowseCommand[T any](res resource[T], title string) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse " + res.plural + " interactively",
		Long: "Page through " + res.plural + " in the terminal. Pages next to the displayed one " +
			"are prefetched and recently visited pages are kept in memory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, ok := cmd.OutOrStdout().(*os.File)
			if !ok || !term.IsTerminal(int(out.Fd())) {
				return constants.ErrNotATerminal
			}

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

			config := loadConfig()

			browser, err := tui.NewBrowser(
				title,
				res.listEndpoint(cli),
				flags.params(),
				browserColumns(res),
				tui.WithPageSize(effectivePageSize(config, flags.pageSize)),
				tui.WithPrefetch(effectivePrefetch(config)),
				tui.WithHookOptions(append(hookOptions(ctx), hooks.WithCacheSize(constants.DefaultPageCacheSize))...),
			)
			if err != nil {
				return err
			}
			defer browser.Close()

			_, err = tea.NewProgram(browser, tea.WithAltScreen(), tea.WithOutput(out), tea.WithContext(ctx)).Run()

			return err
		},
	}

	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "results per page (default from config)")
	cmd.Flags().StringVar(&flags.search, "search", "", "free text filter")
	cmd.Flags().StringVar(&flags.orderBy, "order-by", "", "sort field")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")

	flags.page = 1

	return cmd
}
