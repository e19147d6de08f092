package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/queryset/internal/core/meta"
	"github.com/satishbabariya/queryset/internal/core/query/lookup"
)

// NewModelsCommand creates the models command.
func NewModelsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the declared models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.Registry()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, name := range reg.Names() {
				m, _ := reg.Model(name)
				rows = append(rows, []string{
					m.Name,
					m.Table,
					strings.Join(m.PK, ", "),
					strings.Join(m.Ordering, ", "),
					strings.Join(m.RelationNames(), ", "),
				})
			}
			if len(rows) == 0 {
				app.ui.Warning("no models declared in %s", app.configName())
				return nil
			}
			return app.ui.Table([]string{"model", "table", "primary key", "ordering", "relations"}, rows)
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(app *App) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "describe MODEL",
		Short: "Describe a model and its relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.Registry()
			if err != nil {
				return err
			}
			m, err := reg.Model(args[0])
			if err != nil {
				return err
			}

			doc := describe(reg, m)
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}
			return app.ui.Markdown(doc)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func describe(reg *meta.Registry, m *meta.Meta) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.Name)
	fmt.Fprintf(&sb, "- **table:** `%s`\n", m.Table)
	fmt.Fprintf(&sb, "- **primary key:** %s\n", codeList(m.PK))
	if len(m.Ordering) > 0 {
		fmt.Fprintf(&sb, "- **default ordering:** %s\n", codeList(m.Ordering))
	}

	names := m.RelationNames()
	if len(names) == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Relations\n\n")
	sb.WriteString("| name | model | join | on |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		rel, _ := m.Relation(name)
		join := "inner"
		if rel.Nullable {
			join = "left"
		}
		target := rel.Model
		if t, err := reg.Target(rel); err == nil {
			target = fmt.Sprintf("%s (`%s`)", t.Name, t.Table)
		}
		on := make([]string, len(rel.On))
		for i, p := range rel.On {
			on[i] = fmt.Sprintf("`%s` = `%s`", p.Local, p.Foreign)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", name, target, join, strings.Join(on, " and "))
	}

	sb.WriteString("\n## Lookups\n\n")
	ops := make([]string, 0, len(lookup.Operators()))
	for _, op := range lookup.Operators() {
		ops = append(ops, string(op))
	}
	for _, name := range names {
		fmt.Fprintf(&sb, "- `%s__<column>__<%s>`\n", name, strings.Join(ops, "|"))
	}
	return sb.String()
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}
