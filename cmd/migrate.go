package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/addrkey"
	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/model"
)

var migrateOut string

// keyMigration maps one retired 10-hex address id to its canonical
// replacement so downstream consumers can rewrite stored references.
type keyMigration struct {
	LegacyID      string `json:"legacyId"`
	AddressID     string `json:"addressId"`
	NormalizedKey string `json:"normalizedKey"`
	EntityID      string `json:"entityId"`
}

var migrateKeysCmd = &cobra.Command{
	Use:   "migrate-keys",
	Short: "Emit a legacy-to-canonical address id mapping from the tech index",
	Long:  "Reads the latest tech artifact and writes one mapping row per entity: the retired 10-hex SHA-1 address id alongside the canonical 16-hex id. One-time backfill for consumers that stored legacy ids.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := initDir()
		if err != nil {
			return err
		}

		var art model.TechArtifact
		if err := dir.Load(artifact.StageTech, &art); err != nil {
			return err
		}

		mappings, skipped := buildKeyMigrations(art.Tech)

		out := migrateOut
		if out == "" {
			out = filepath.Join(cfg.Data.Dir, "keymap.json")
		}
		data, err := json.MarshalIndent(mappings, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal key mapping")
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return eris.Wrapf(err, "write key mapping %s", out)
		}

		zap.L().Info("key mapping written",
			zap.String("path", out),
			zap.Int("mappings", len(mappings)),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

func buildKeyMigrations(entities []model.TechEntity) ([]keyMigration, int) {
	mappings := make([]keyMigration, 0, len(entities))
	skipped := 0
	for _, e := range entities {
		parts := addrkey.Parts{
			Address1: e.Address1,
			City:     e.City,
			State:    e.State,
			Zip:      e.Zip,
		}
		legacy := addrkey.LegacyID(parts)
		id := addrkey.ComputeAddressID(parts)
		if legacy == "" || id.ID == "" {
			skipped++
			continue
		}
		mappings = append(mappings, keyMigration{
			LegacyID:      legacy,
			AddressID:     id.ID,
			NormalizedKey: id.NormalizedKey,
			EntityID:      e.ID,
		})
	}
	return mappings, skipped
}

func init() {
	migrateKeysCmd.Flags().StringVar(&migrateOut, "out", "", "output path (default <data.dir>/keymap.json)")
	rootCmd.AddCommand(migrateKeysCmd)
}
