// Package commands is the trellis command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matt-steen/trellis/pkg/config"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/matt-steen/trellis/pkg/printers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds what every subcommand shares: flags, the loaded config and the log file.
type app struct {
	configFile string
	dbPath     string
	logLevel   string
	showID     bool

	cfg       config.Config
	logCloser io.Closer
}

// New creates the root command.
func New() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "trellis",
		Short: "Linked notes and a scheduled task list, in the terminal.",
		Long: `trellis keeps notes linked up, down, left and right of each other and a task list
with statuses, scheduled dates and hierarchical tags. Run "trellis ui" for the terminal
interface or "trellis serve" for the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default searches .trellis.yaml).")
	flags.StringVar(&a.dbPath, "db", "", "Database file, overriding db_path.")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level, overriding log.level.")
	flags.BoolVar(&a.showID, "show-id", false, "Print internal ids as well as ref-ids.")

	addCommands(cmd, a)

	return cmd
}

func addCommands(topLevel *cobra.Command, a *app) {
	addUI(topLevel, a)
	addServe(topLevel, a)
	addView(topLevel, a)
	addNote(topLevel, a)
	addTask(topLevel, a)
	addTag(topLevel, a)
	addSweep(topLevel, a)
	addActivity(topLevel, a)
	addVersion(topLevel)
}

// termUI reports whether cmd draws on the terminal, so the log must not.
func termUI(cmd *cobra.Command) bool {
	return cmd.Annotations["tui"] == "true"
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(viper.New(), a.configFile)
	if err != nil {
		return err
	}

	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	if cfg.Log.File == "" && termUI(cmd) {
		cfg.Log.File = filepath.Join(filepath.Dir(cfg.DBPath), "trellis.log")
	}

	a.cfg = cfg

	a.logCloser, err = config.SetupLogging(cfg.Log, cmd.ErrOrStderr())

	return err
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}

	return a.logCloser.Close()
}

// withDatabase opens the configured database for the length of fn.
func (a *app) withDatabase(ctx context.Context, fn func(*db.Database) error) error {
	dirPerms := 0o755
	if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), fs.FileMode(dirPerms)); err != nil {
		return fmt.Errorf("error creating database directory: %w", err)
	}

	database, err := db.NewDatabase(ctx, a.cfg.DBPath)
	if err != nil {
		return err
	}

	defer database.Close()

	return fn(database)
}

func (a *app) printer(cmd *cobra.Command) *printers.Pretty {
	p := printers.New(cmd.OutOrStdout())
	p.ShowID = a.showID

	return p
}

// findNote resolves a ref-id, id or special name such as "home" to a note.
func findNote(database *db.Database, ref string) (db.Note, error) {
	target, err := nav.NewNavigator(database).Resolve(ref)
	if err != nil {
		return db.Note{}, err
	}

	if target.Kind != nav.KindNote {
		return db.Note{}, fmt.Errorf("%w: %q is not a note", db.ErrValidation, ref)
	}

	return database.Note(target.NoteID)
}

// findTask resolves a ref-id or id to a task.
func findTask(database *db.Database, ref string) (db.Task, error) {
	target, err := nav.NewNavigator(database).Resolve(ref)
	if err != nil {
		return db.Task{}, err
	}

	if target.Kind != nav.KindTask {
		return db.Task{}, fmt.Errorf("%w: %q is not a task", db.ErrValidation, ref)
	}

	return database.Task(target.TaskID)
}

func findTag(database *db.Database, path string) (db.Tag, error) {
	tag, ok := database.TagByPath(path)
	if !ok {
		return db.Tag{}, fmt.Errorf("%w: tag %q", db.ErrNotFound, path)
	}

	return tag, nil
}

func leafTags(database *db.Database) func(string) []db.Tag {
	return func(id string) []db.Tag {
		tags, err := database.GetTaskLeafTags(id)
		if err != nil {
			return nil
		}

		return tags
	}
}
