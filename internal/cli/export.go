package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/o9nn/opencoq-sub001/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stored snapshot in the textual interchange grammar",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := snapshot.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot db: %w", err)
	}
	defer db.Close()

	space, err := buildSpace(cfg)
	if err != nil {
		return fmt.Errorf("build space: %w", err)
	}
	if _, err := db.Load(space.Store()); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	os.Stdout.WriteString(space.Export())
	return nil
}
