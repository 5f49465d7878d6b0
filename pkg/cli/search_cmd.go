package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"econ-curator/internal/domain"
)

func newSearchCmd() *cobra.Command {
	var source string
	var tag string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the indicator catalog",
		Long: "Free-text search over indicator id, name, description, and tags. " +
			"Use --source or --tag for exact filters; with no arguments, lists everything.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			var results []domain.IndicatorDescriptor
			switch {
			case len(args) == 1:
				results = a.Catalog.Search(args[0])
			case source != "":
				s := domain.Source(source)
				if !domain.ValidSource(s) {
					return domain.ErrValidation("unknown source %q (known: %v)", source, domain.KnownSources())
				}
				results = a.Catalog.BySource(s)
			case tag != "":
				results = a.Catalog.ByTag(tag)
			default:
				results = a.Catalog.All()
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no indicators matched")
				return nil
			}
			printIndicators(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "filter by source")
	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	return cmd
}

func printIndicators(results []domain.IndicatorDescriptor) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tNAME\tREFERENCE\tTAGS")
	for _, d := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Source, d.Name, d.Reference, strings.Join(d.Tags, ","))
	}
	_ = w.Flush()
}
