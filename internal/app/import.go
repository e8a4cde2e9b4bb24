package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/squadpulse/internal/output"
	"github.com/blackwell-systems/squadpulse/internal/squad"
	"github.com/blackwell-systems/squadpulse/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset.json>",
	Short: "Load a JSON dataset into the store",
	Long: `Import squads, members, sessions with their RSVPs, availability slots and
chat message timestamps from a JSON dataset into the SQLite database.
Squads, members and sessions are replaced by id; slots and messages are
appended. Malformed records are skipped and counted.

With --dry-run the dataset is imported into a throwaway in-memory database,
which reports what would be imported without touching the store.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and count records without writing to the database")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ds, err := squad.LoadDataset(args[0])
	if err != nil {
		return err
	}

	var db *store.DB
	if importDryRun {
		db, err = store.OpenInMemory()
	} else {
		db, err = store.Open(cfg.DBPath)
	}
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	stats, err := db.ImportDataset(cmd.Context(), ds)
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}
	logger.Info().
		Str("dataset", args[0]).
		Int("sessions", stats.Sessions).
		Int("skipped", stats.Skipped).
		Bool("dry_run", importDryRun).
		Msg("dataset imported")

	if flagJSON {
		return printJSON(stats)
	}

	fmt.Println(output.Section("Import · " + args[0]))
	tbl := output.NewTable("Records", "Imported")
	tbl.AddRow("Squads", fmt.Sprintf("%d", stats.Squads))
	tbl.AddRow("Members", fmt.Sprintf("%d", stats.Members))
	tbl.AddRow("Sessions", fmt.Sprintf("%d", stats.Sessions))
	tbl.AddRow("RSVPs", fmt.Sprintf("%d", stats.RSVPs))
	tbl.AddRow("Availability slots", fmt.Sprintf("%d", stats.Slots))
	tbl.AddRow("Messages", fmt.Sprintf("%d", stats.Messages))
	printIndented(tbl.Render())
	if stats.Skipped > 0 {
		fmt.Println(output.StyleWarning.Render(fmt.Sprintf(" %d malformed records skipped", stats.Skipped)))
	}
	target := cfg.DBPath
	if importDryRun {
		target = "dry run, nothing written"
	}
	fmt.Printf(" %s %s\n\n", output.StyleMuted.Render("database:"), target)
	return nil
}
