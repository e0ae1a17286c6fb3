package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/mvexel/osm-fourmore/internal/logger"
)

const defaultExtractURL = "https://download.geofabrik.de/north-america/us/utah-latest.osm.pbf"

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download an OSM extract",
	Long: `Download a PBF extract over HTTP. With no argument the URL comes from
the OSM_DATA_URL environment variable, falling back to the Geofabrik
Utah extract. The file lands in the work directory unless --output is
given.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output path (default: work dir + URL basename)")
}

func runDownload(cmd *cobra.Command, args []string) {
	log := logger.Get()

	url := defaultExtractURL
	if env := os.Getenv("OSM_DATA_URL"); env != "" {
		url = env
	}
	if len(args) > 0 {
		url = args[0]
	}

	out := downloadOutput
	if out == "" {
		if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
			exitWithError("failed to create work directory", err)
		}
		out = filepath.Join(cfg.WorkDir, filepath.Base(url))
	}

	log.Info("Downloading extract", zap.String("url", url), zap.String("output", out))
	start := time.Now()

	resp, err := http.Get(url)
	if err != nil {
		exitWithError("download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		exitWithError("download failed", fmt.Errorf("unexpected status %s", resp.Status))
	}

	// Write to a temp name so a partial download never looks complete
	tmp := out + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		exitWithError("failed to create output file", err)
	}

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		exitWithError("download interrupted", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		exitWithError("failed to finalize download", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		exitWithError("failed to move download into place", err)
	}

	elapsed := time.Since(start)
	log.Info("Download complete",
		zap.String("output", out),
		zap.Int64("bytes", written),
		zap.Duration("duration", elapsed.Round(time.Second)),
		zap.Float64("throughput_mb_s", float64(written)/(1024*1024)/elapsed.Seconds()),
	)
}
