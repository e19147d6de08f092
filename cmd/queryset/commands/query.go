package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/queryset/internal/cli/filterexpr"
	"github.com/satishbabariya/queryset/internal/cli/ui"
	"github.com/satishbabariya/queryset/internal/cli/watch"
	"github.com/satishbabariya/queryset/internal/core/query/builder"
	"github.com/satishbabariya/queryset/internal/core/query/compiler"
	"github.com/satishbabariya/queryset/runtime/client"
)

// queryOptions are the flags describing a query set.
type queryOptions struct {
	filters  []string
	excludes []string
	order    []string
	limit    int
	offset   int
	related  []string
	values   []string
}

func (o *queryOptions) bindWhere(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.filters, "filter", "f", nil, `filter expression, e.g. 'title__contains="Go",pages__gt=100 | draft=true' (repeatable, all must hold)`)
	cmd.Flags().StringArrayVarP(&o.excludes, "exclude", "x", nil, "exclusion expression (repeatable)")
}

func (o *queryOptions) bind(cmd *cobra.Command) {
	o.bindWhere(cmd)
	cmd.Flags().StringSliceVarP(&o.order, "order", "o", nil, "order references, '-' prefix for descending")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "maximum number of rows")
	cmd.Flags().IntVar(&o.offset, "offset", 0, "rows to skip")
	cmd.Flags().StringSliceVar(&o.related, "related", nil, "relation paths whose tables are selected too")
	cmd.Flags().StringSliceVar(&o.values, "values", nil, "columns to select")
}

// apply builds the query set the flags describe.
func (o *queryOptions) apply(mgr *client.Manager) (*builder.QuerySet, error) {
	qs := mgr.Objects()
	for _, expr := range o.filters {
		where, err := filterexpr.Parse(expr)
		if err != nil {
			return nil, err
		}
		qs.Filter(where...)
	}
	for _, expr := range o.excludes {
		where, err := filterexpr.Parse(expr)
		if err != nil {
			return nil, err
		}
		qs.Exclude(where...)
	}
	qs.OrderBy(o.order...).SelectRelated(o.related...).Values(o.values...)
	if o.limit > 0 {
		qs.Limit(o.limit)
	}
	if o.offset > 0 {
		qs.Offset(o.offset)
	}
	return qs, nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand(app *App) *cobra.Command {
	opts := &queryOptions{}
	var watchConfig, showSQL bool

	cmd := &cobra.Command{
		Use:   "query MODEL",
		Short: "Run a query and print the matching rows",
		Example: `  queryset query Book --filter 'author__name__contains="Chiang"' --order -pages
  queryset query Book --values title,author__name --limit 10
  queryset query Book --related author --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run := func() error {
				return runQuery(cmd.Context(), app, args[0], opts, showSQL)
			}
			if !watchConfig {
				return run()
			}
			if app.Config.File == "" {
				return fmt.Errorf("--watch needs a configuration file")
			}

			w, err := watch.NewWatcher(app.Config.File, func() error {
				if err := app.Load(cmd); err != nil {
					return err
				}
				return run()
			})
			if err != nil {
				return err
			}
			app.ui.Info("watching %s, press Ctrl+C to stop", w.File())
			return w.Run(cmd.Context())
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVarP(&watchConfig, "watch", "w", false, "re-run whenever the configuration file changes")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "print the compiled statement before the rows")
	return cmd
}

func runQuery(ctx context.Context, app *App, model string, opts *queryOptions, showSQL bool) error {
	c, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	mgr, err := c.Model(model)
	if err != nil {
		return err
	}
	qs, err := opts.apply(mgr)
	if err != nil {
		return err
	}
	if showSQL {
		stmt, err := qs.Statement()
		if err != nil {
			return err
		}
		app.ui.Code(formatStatement(stmt.SQL, stmt.Args))
	}

	start := time.Now()
	it := qs.ValuesIterator()
	rows, err := it.All(ctx)
	if err != nil {
		return err
	}

	if err := app.ui.Table(it.Columns(), ui.FormatRows(rows)); err != nil {
		return err
	}
	app.ui.Summary("%d rows in %s", len(rows), time.Since(start).Round(time.Microsecond))
	app.PrintStats(c)
	return nil
}

// NewCountCommand creates the count command.
func NewCountCommand(app *App) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "count MODEL",
		Short: "Count the rows matching the filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := app.Connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			mgr, err := c.Model(args[0])
			if err != nil {
				return err
			}
			qs, err := opts.apply(mgr)
			if err != nil {
				return err
			}
			n, err := qs.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	opts.bindWhere(cmd)
	return cmd
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(app *App) *cobra.Command {
	opts := &queryOptions{}
	var count bool

	cmd := &cobra.Command{
		Use:   "sql MODEL",
		Short: "Print the statement a query compiles to without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Offline()
			if err != nil {
				return err
			}
			mgr, err := c.Model(args[0])
			if err != nil {
				return err
			}
			qs, err := opts.apply(mgr)
			if err != nil {
				return err
			}

			var stmt *compiler.Statement
			if count {
				stmt, err = c.Store().Compiler().CompileCount(mgr.Meta(), qs.State())
			} else {
				stmt, err = qs.Statement()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatStatement(stmt.SQL, stmt.Args))
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&count, "count", false, "print the COUNT(*) form")
	return cmd
}

func formatStatement(sql string, args []any) string {
	if len(args) == 0 {
		return sql
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%#v", a)
	}
	return sql + "\n-- args: " + strings.Join(parts, ", ")
}
