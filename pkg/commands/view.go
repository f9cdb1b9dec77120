package commands

import (
	"strings"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/spf13/cobra"
)

type viewOptions struct {
	statuses []string
	taskType string
	tags     []string
}

func (o *viewOptions) filters(database *db.Database) (view.Filters, error) {
	filters := view.Filters{TaskType: db.TaskType(strings.ToUpper(o.taskType))}

	for _, raw := range o.statuses {
		status, err := db.ParseStatus(raw)
		if err != nil {
			return view.Filters{}, err
		}

		filters.Statuses = append(filters.Statuses, status)
	}

	for _, path := range o.tags {
		tag, err := findTag(database, path)
		if err != nil {
			return view.Filters{}, err
		}

		filters.TagIDs = append(filters.TagIDs, tag.ID)
	}

	return filters, nil
}

func viewNames() []string {
	names := []string{}
	for _, n := range view.Names() {
		names = append(names, string(n))
	}

	return names
}

func addView(topLevel *cobra.Command, a *app) {
	o := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view [today|week|tasks|someday]",
		Short: "List the tasks of a view, or count every view.",
		Example: `
trellis view
trellis view today
trellis view tasks --status doing,blocked --tag work
`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				engine := view.NewEngine(database)
				p := a.printer(cmd)

				if len(args) == 0 {
					counts, err := engine.Counts(cmd.Context())
					if err != nil {
						return err
					}

					p.Counts(counts)

					return nil
				}

				name, err := view.ParseName(args[0])
				if err != nil {
					return err
				}

				filters, err := o.filters(database)
				if err != nil {
					return err
				}

				tasks, err := engine.Fetch(cmd.Context(), name, filters)
				if err != nil {
					return err
				}

				p.TitleWithCount(name.Title(), len(tasks))
				p.Tasks(tasks, leafTags(database))

				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&o.statuses, "status", nil, "Only show these statuses.")
	cmd.Flags().StringVar(&o.taskType, "type", "", "Only show this task type.")
	cmd.Flags().StringSliceVar(&o.tags, "tag", nil, "Only show tasks under one of these tag paths.")

	topLevel.AddCommand(cmd)
}
