package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/api"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and optionally import or export a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				log.Warn("close store", zap.Error(cerr))
			}
		}()
		log.Info("migrations applied", zap.String("driver", cfg.Store.Driver))

		if from, _ := cmd.Flags().GetString("from-snapshot"); from != "" {
			if _, err := importSnapshot(ctx, from, st, log); err != nil {
				return err
			}
		}
		if to, _ := cmd.Flags().GetString("to-snapshot"); to != "" {
			if err := api.WriteSnapshot(ctx, st, to); err != nil {
				return err
			}
			log.Info("snapshot written", zap.String("path", to))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("from-snapshot", "", "Import surveys and responses from a JSON snapshot")
	migrateCmd.Flags().String("to-snapshot", "", "Write all surveys and responses to a JSON snapshot")
}
