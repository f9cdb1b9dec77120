package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/spf13/cobra"
)

func addTask(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Work with tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addTaskList(cmd, a)
	addTaskShow(cmd, a)
	addTaskAdd(cmd, a)
	addTaskStatus(cmd, a)
	addTaskSchedule(cmd, a)
	addTaskStar(cmd, a)
	addTaskComplete(cmd, a)
	addTaskReorder(cmd, a)
	addTaskDelete(cmd, a)
	addTaskTag(cmd, a)

	topLevel.AddCommand(cmd)
}

func (a *app) showTask(cmd *cobra.Command, database *db.Database, task db.Task) error {
	tags, err := database.TaskTags(task.ID)
	if err != nil {
		return err
	}

	a.printer(cmd).Task(task, tags)

	return nil
}

// taskMutation resolves the task named by ref, applies mutate and shows the result.
func (a *app) taskMutation(cmd *cobra.Command, ref string, mutate func(*db.Database, string) (db.Task, error)) error {
	return a.withDatabase(cmd.Context(), func(database *db.Database) error {
		task, err := findTask(database, ref)
		if err != nil {
			return err
		}

		task, err = mutate(database, task.ID)
		if err != nil {
			return err
		}

		return a.showTask(cmd, database, task)
	})
}

func addTaskList(topLevel *cobra.Command, a *app) {
	project := ""

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every task in priority order, or the tasks of a project.",
		Example: `
trellis task list
trellis task list --project N-3F2A91
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				tasks := database.Tasks()

				if project != "" {
					note, err := findNote(database, project)
					if err != nil {
						return err
					}

					if tasks, err = database.ProjectTasks(note.ID); err != nil {
						return err
					}
				}

				p := a.printer(cmd)
				p.TitleWithCount("Tasks", len(tasks))
				p.Tasks(tasks, leafTags(database))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only list the tasks of this project note.")

	topLevel.AddCommand(cmd)
}

func addTaskShow(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "show <task>",
		Short: "Show every field of a task.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				task, err := findTask(database, args[0])
				if err != nil {
					return err
				}

				return a.showTask(cmd, database, task)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

type taskAddOptions struct {
	in       db.TaskInput
	status   string
	date     string
	taskType string
	workType string
	project  string
	tags     []string
}

func addTaskAdd(topLevel *cobra.Command, a *app) {
	o := &taskAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task.",
		Example: `
trellis task add call the plumber
trellis task add --date today --tag home/repairs fix the sink
trellis task add --date SOMEDAY learn the cello
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.in.Text = strings.Join(args, " ")
			o.in.TaskType = db.TaskType(strings.ToUpper(o.taskType))
			o.in.WorkType = db.WorkType(strings.ToLower(o.workType))

			if o.status != "" {
				status, err := db.ParseStatus(o.status)
				if err != nil {
					return err
				}

				o.in.Status = status
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				date, err := parseDate(database, o.date)
				if err != nil {
					return err
				}

				o.in.ScheduledDate = date

				if o.project != "" {
					note, err := findNote(database, o.project)
					if err != nil {
						return err
					}

					o.in.ProjectID = note.ID
				}

				task, err := database.CreateTask(cmd.Context(), o.in)
				if err != nil {
					return err
				}

				for _, path := range o.tags {
					if _, err := database.TagTask(cmd.Context(), task.ID, path); err != nil {
						return err
					}
				}

				return a.showTask(cmd, database, task)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.status, "status", "", "Initial status (default BACKLOG).")
	flags.StringVar(&o.date, "date", "", "Scheduled date: YYYY-MM-DD, today, THIS_WEEK or SOMEDAY.")
	flags.BoolVar(&o.in.Starred, "star", false, "Star the task.")
	flags.StringVar(&o.taskType, "type", "", "Task type, e.g. DEEP_WORK.")
	flags.StringVar(&o.workType, "work", "", "Work type: reactive or strategic.")
	flags.StringVar(&o.project, "project", "", "Project note the task belongs to.")
	flags.StringSliceVar(&o.tags, "tag", nil, "Tag paths to apply.")
	flags.IntVar(&o.in.Value, "value", 0, "Value, 0-5.")
	flags.IntVar(&o.in.Urgency, "urgency", 0, "Urgency, 0-5.")
	flags.IntVar(&o.in.Momentum, "momentum", 0, "Momentum, 0-5.")
	flags.IntVar(&o.in.Effort, "effort", 0, "Effort, 0-5.")
	flags.StringVar(&o.in.Context, "context", "", "Free-form context.")

	topLevel.AddCommand(cmd)
}

// parseDate accepts "today" as well as the stored forms.
func parseDate(database *db.Database, raw string) (db.ScheduledDate, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "today") {
		return db.DateOf(database.Now()), nil
	}

	return db.ParseScheduledDate(raw)
}

func addTaskStatus(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "status <task> <status>",
		Short: "Change the status of a task.",
		Example: `
trellis task status T-91C2D0 doing
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := db.ParseStatus(args[1])
			if err != nil {
				return err
			}

			return a.taskMutation(cmd, args[0], func(database *db.Database, id string) (db.Task, error) {
				return database.ChangeStatus(cmd.Context(), id, status)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTaskSchedule(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "schedule <task> [date]",
		Short: "Schedule a task, or clear its date when none is given.",
		Example: `
trellis task schedule T-91C2D0 2025-07-01
trellis task schedule T-91C2D0 today
trellis task schedule T-91C2D0 SOMEDAY
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}

			return a.taskMutation(cmd, args[0], func(database *db.Database, id string) (db.Task, error) {
				date, err := parseDate(database, raw)
				if err != nil {
					return db.Task{}, err
				}

				return database.ScheduleTask(cmd.Context(), id, date)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTaskStar(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "star <task>",
		Short: "Star or unstar a task.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.taskMutation(cmd, args[0], func(database *db.Database, id string) (db.Task, error) {
				return database.ToggleTaskStar(cmd.Context(), id)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTaskComplete(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "complete <task>",
		Short: "Mark a task done, or move a done task back to the backlog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.taskMutation(cmd, args[0], func(database *db.Database, id string) (db.Task, error) {
				return database.ToggleComplete(cmd.Context(), id)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTaskReorder(topLevel *cobra.Command, a *app) {
	viewName := string(view.Tasks)

	cmd := &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move the task at position from to position to within a view (positions start at 0).",
		Example: `
trellis task reorder 4 0
trellis task reorder 0 2 --view today
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: from must be a number", db.ErrValidation)
			}

			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: to must be a number", db.ErrValidation)
			}

			name, err := view.ParseName(viewName)
			if err != nil {
				return err
			}

			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				visible, err := view.NewEngine(database).Fetch(cmd.Context(), name, view.Filters{})
				if err != nil {
					return err
				}

				ids := make([]string, 0, len(visible))
				for _, t := range visible {
					ids = append(ids, t.ID)
				}

				tasks, err := database.ReorderTasks(cmd.Context(), ids, from, to)
				if err != nil {
					return err
				}

				a.printer(cmd).Tasks(tasks, leafTags(database))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&viewName, "view", viewName, "View whose order positions refer to.")

	topLevel.AddCommand(cmd)
}

func addTaskDelete(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "delete <task>",
		Short: "Delete a task.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				task, err := findTask(database, args[0])
				if err != nil {
					return err
				}

				if err := database.DeleteTask(cmd.Context(), task.ID); err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", task.RefID, task.Text)

				return err
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addTaskTag(topLevel *cobra.Command, a *app) {
	remove := false

	cmd := &cobra.Command{
		Use:   "tag <task> <path>",
		Short: "Tag a task with a path and its ancestors, or remove a tag and its descendants with --remove.",
		Example: `
trellis task tag T-91C2D0 work/reports
trellis task tag T-91C2D0 work --remove
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				task, err := findTask(database, args[0])
				if err != nil {
					return err
				}

				if remove {
					tag, err := findTag(database, args[1])
					if err != nil {
						return err
					}

					if err := database.UntagTask(cmd.Context(), task.ID, tag.ID); err != nil {
						return err
					}
				} else if _, err := database.TagTask(cmd.Context(), task.ID, args[1]); err != nil {
					return err
				}

				return a.showTask(cmd, database, task)
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the tag instead.")

	topLevel.AddCommand(cmd)
}
