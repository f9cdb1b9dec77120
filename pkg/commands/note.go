package commands

import (
	"fmt"
	"strings"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/spf13/cobra"
)

func addNote(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Work with linked notes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addNoteList(cmd, a)
	addNoteShow(cmd, a)
	addNoteAdd(cmd, a)
	addNoteEdit(cmd, a)
	addNoteLink(cmd, a)
	addNoteUnlink(cmd, a)
	addNoteDraft(cmd, a)
	addNoteDelete(cmd, a)
	addNoteHome(cmd, a)
	addNoteStar(cmd, a)
	addNoteIsland(cmd, a)
	addNoteTag(cmd, a)

	topLevel.AddCommand(cmd)
}

func (a *app) showNote(cmd *cobra.Command, database *db.Database, note db.Note) error {
	links := map[db.Direction]db.Note{}

	for _, dir := range db.Directions() {
		if id := note.Link(dir); id != "" {
			linked, err := database.Note(id)
			if err != nil {
				return err
			}

			links[dir] = linked
		}
	}

	tags, err := database.NoteTags(note.ID)
	if err != nil {
		return err
	}

	a.printer(cmd).Note(note, links, tags)

	return nil
}

func addNoteList(topLevel *cobra.Command, a *app) {
	noteType := ""

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes.",
		Example: `
trellis note list
trellis note list --type project
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				notes := database.Notes()
				if noteType != "" {
					notes = database.NotesOfType(db.NoteType(noteType))
				}

				p := a.printer(cmd)
				p.TitleWithCount("Notes", len(notes))
				p.Notes(notes)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&noteType, "type", "", "Only list notes of this type.")

	topLevel.AddCommand(cmd)
}

func addNoteShow(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "show <note>",
		Short: "Show a note and its neighbours.",
		Example: `
trellis note show home
trellis note show N-3F2A91
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteAdd(topLevel *cobra.Command, a *app) {
	in := db.NoteInput{}
	noteType := ""

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a note.",
		Example: `
trellis note add meeting notes
trellis note add --type project Kitchen remodel
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			in.Type = db.NoteType(noteType)

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := database.CreateNote(cmd.Context(), in)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	cmd.Flags().StringVar(&noteType, "type", "", "Note type (default plain).")
	cmd.Flags().StringVar(&in.Content, "content", "", "Note body.")

	topLevel.AddCommand(cmd)
}

func addNoteEdit(topLevel *cobra.Command, a *app) {
	var title, content, noteType string

	cmd := &cobra.Command{
		Use:   "edit <note>",
		Short: "Change the title, body or type of a note.",
		Example: `
trellis note edit N-3F2A91 --title "Weekly review"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := db.NoteUpdate{}

			if cmd.Flags().Changed("title") {
				in.Title = &title
			}

			if cmd.Flags().Changed("content") {
				in.Content = &content
			}

			if cmd.Flags().Changed("type") {
				t := db.NoteType(noteType)
				in.Type = &t
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				note, err = database.UpdateNote(cmd.Context(), note.ID, in)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title.")
	cmd.Flags().StringVar(&content, "content", "", "New body.")
	cmd.Flags().StringVar(&noteType, "type", "", "New type.")

	topLevel.AddCommand(cmd)
}

func addNoteLink(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "link <note> <up|down|left|right> <target>",
		Short: "Link two notes. The target gets the opposite link back.",
		Example: `
trellis note link home down N-3F2A91
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := db.ParseDirection(args[1])
			if err != nil {
				return err
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				source, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				target, err := findNote(database, args[2])
				if err != nil {
					return err
				}

				if err := database.SetLink(cmd.Context(), source.ID, target.ID, dir); err != nil {
					return err
				}

				source, err = database.Note(source.ID)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, source)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteUnlink(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "unlink <note> <up|down|left|right>",
		Short: "Remove a link from both notes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := db.ParseDirection(args[1])
			if err != nil {
				return err
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				if err := database.RemoveLink(cmd.Context(), note.ID, dir); err != nil {
					return err
				}

				note, err = database.Note(note.ID)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteDraft(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "draft <note> <up|down|left|right>",
		Short: "Open the linked note in a direction, creating an untitled one if there is none.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := db.ParseDirection(args[1])
			if err != nil {
				return err
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				source, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				note, _, err := database.CreateDraftLinkedNote(cmd.Context(), source.ID, dir)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteDelete(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "delete <note>",
		Short: "Delete a note. Its neighbours lose their links to it; the home note cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				if err := database.DeleteNote(cmd.Context(), note.ID); err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", note.RefID, note.Title)

				return err
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteHome(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "home [note]",
		Short: "Show the home note, or make another note home.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				if len(args) == 1 {
					note, err := findNote(database, args[0])
					if err != nil {
						return err
					}

					if err := database.SetHome(cmd.Context(), note.ID); err != nil {
						return err
					}
				}

				home, err := findNote(database, "home")
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, home)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteStar(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "star <note>",
		Short: "Star or unstar a note.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				note, err = database.ToggleNoteStar(cmd.Context(), note.ID)
				if err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteIsland(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "island <note>",
		Short: "Count the notes connected to a note through its links.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				count, err := database.CountIsland(note.ID)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)

				return err
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNoteTag(topLevel *cobra.Command, a *app) {
	remove := false

	cmd := &cobra.Command{
		Use:   "tag <note> <path>",
		Short: "Tag a note with a path and its ancestors, or remove a tag with --remove.",
		Example: `
trellis note tag home areas/personal
trellis note tag home areas/personal --remove
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				note, err := findNote(database, args[0])
				if err != nil {
					return err
				}

				if remove {
					tag, err := findTag(database, args[1])
					if err != nil {
						return err
					}

					if err := database.UntagNote(cmd.Context(), note.ID, tag.ID); err != nil {
						return err
					}
				} else if _, err := database.TagNote(cmd.Context(), note.ID, args[1]); err != nil {
					return err
				}

				return a.showNote(cmd, database, note)
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the tag instead.")

	topLevel.AddCommand(cmd)
}
