package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/queryset/internal/cli/filterexpr"
	"github.com/satishbabariya/queryset/internal/cli/ui"
)

// NewGetCommand creates the get command.
func NewGetCommand(app *App) *cobra.Command {
	var related []string

	cmd := &cobra.Command{
		Use:   "get MODEL KEY|EXPR",
		Short: "Look up one record by primary key or filter expression",
		Example: `  queryset get Book 42
  queryset get Author 'name="Ted Chiang"'
  queryset get Book 42 --related author`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}

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
			e, err := mgr.Lookup(ctx, key)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("no %s matches %s", args[0], args[1])
			}

			if err := app.ui.Table([]string{"field", "value"}, attributeRows(e.Attributes())); err != nil {
				return err
			}
			for _, name := range related {
				r, err := e.Related(ctx, name)
				if err != nil {
					return err
				}
				app.ui.Section(name)
				if r == nil {
					app.ui.Info("no related %s", name)
					continue
				}
				if err := app.ui.Table([]string{"field", "value"}, attributeRows(r.Attributes())); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&related, "related", nil, "relations to resolve and print")
	return cmd
}

// parseKey reads a filter expression when arg contains "=", otherwise a
// primary-key value.
func parseKey(arg string) (any, error) {
	if !strings.Contains(arg, "=") {
		if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
			return n, nil
		}
		return arg, nil
	}

	where, err := filterexpr.Parse(arg)
	if err != nil {
		return nil, err
	}
	if len(where) != 1 {
		return nil, fmt.Errorf("lookup takes a single filter map, got %d alternatives", len(where))
	}
	return where[0], nil
}

func attributeRows(attrs map[string]any) [][]string {
	fields := make([]string, 0, len(attrs))
	for f := range attrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f, ui.FormatValue(attrs[f])}
	}
	return rows
}
