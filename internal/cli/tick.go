package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o9nn/opencoq-sub001/internal/snapshot"
)

var tickCount int

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run attention cycles against the stored snapshot",
	RunE:  runTick,
}

func init() {
	tickCmd.Flags().IntVarP(&tickCount, "count", "n", 1, "number of cycles to run")
}

func runTick(cmd *cobra.Command, args []string) error {
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
	space.SetHooks(snapshot.NewRecorder(db).Hooks())

	for i := 0; i < tickCount; i++ {
		stats := space.Tick()
		space.OptimizeTensor()
		fmt.Printf("tick %d: rent=%.3f spread=%d focus=%d forgot=%d/%d\n",
			i+1, stats.RentCollected, stats.SpreadSources, stats.FocusSize,
			stats.ForgottenNodes, stats.ForgottenLinks)
	}

	if err := db.Save(space.Store()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
