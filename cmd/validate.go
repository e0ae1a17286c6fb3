package cmd

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/mvexel/osm-fourmore/internal/category"
	"github.com/mvexel/osm-fourmore/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the category mapping file",
	Long: `Load and validate the category mapping without touching the database
or an extract. Reports each category and its rule count, and fails if
the mapping breaks any structural rule (duplicate classes, missing
labels or icons, malformed match expressions, or a fallback count
other than one).`,
	Args: cobra.NoArgs,
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	log := logger.Get()

	rules, err := category.Load(cfg.MappingFile)
	if err != nil {
		exitWithError("invalid category mapping", err)
	}

	for _, c := range rules.Categories() {
		log.Info("Category",
			zap.String("class", c.Class),
			zap.String("label", c.Label),
			zap.Int("rules", len(c.Matches)),
		)
	}

	log.Info("Mapping is valid",
		zap.String("mapping", cfg.MappingFile),
		zap.Int("categories", rules.Len()),
		zap.String("fallback", rules.Fallback().Class),
	)
}
