package commands

import (
	"fmt"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/spf13/cobra"
)

func addTag(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Work with the tag hierarchy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addTagList(cmd, a)
	addTagAdd(cmd, a)
	addTagDelete(cmd, a)
	addTagTasks(cmd, a)
	addTagNotes(cmd, a)

	topLevel.AddCommand(cmd)
}

func addTagList(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every tag.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				a.printer(cmd).Tags(database.Tags())

				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTagAdd(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Create a tag and any missing ancestors.",
		Example: `
trellis tag add work/clients/acme
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				tags, err := database.CreateTagsFromPath(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				a.printer(cmd).Tags(tags)

				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTagDelete(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a tag. Its descendants are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				tag, err := findTag(database, args[0])
				if err != nil {
					return err
				}

				if err := database.DeleteTag(cmd.Context(), tag.ID); err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", tag.FullPath)

				return err
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTagTasks(topLevel *cobra.Command, a *app) {
	exact := false

	cmd := &cobra.Command{
		Use:   "tasks <path>",
		Short: "List the tasks under a tag, including its descendants unless --exact.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				tag, err := findTag(database, args[0])
				if err != nil {
					return err
				}

				tasks, err := database.GetTasksForTag(tag.ID, !exact)
				if err != nil {
					return err
				}

				p := a.printer(cmd)
				p.TitleWithCount(tag.FullPath, len(tasks))
				p.Tasks(tasks, leafTags(database))

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "Leave out tasks only tagged with descendants.")

	topLevel.AddCommand(cmd)
}

func addTagNotes(topLevel *cobra.Command, a *app) {
	exact := false

	cmd := &cobra.Command{
		Use:   "notes <path>",
		Short: "List the notes under a tag, including its descendants unless --exact.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				tag, err := findTag(database, args[0])
				if err != nil {
					return err
				}

				notes, err := database.NotesForTag(tag.ID, !exact)
				if err != nil {
					return err
				}

				p := a.printer(cmd)
				p.TitleWithCount(tag.FullPath, len(notes))
				p.Notes(notes)

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "Leave out notes only tagged with descendants.")

	topLevel.AddCommand(cmd)
}
