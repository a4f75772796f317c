// ABOUTME: Version command to display build information
// ABOUTME: Reports the build plus the model and endpoint the planner is configured to call
package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

type versionReport struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Go       string `json:"go"`
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// ConfigError explains a missing model line
	ConfigError string `json:"config_error,omitempty"`
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, commit hash, and build date for the migration planner,
along with the model and endpoint taken from MODEL_NAME and OPENROUTER_BASE_URL.
No API key is needed.`,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	report := buildVersionReport()
	out := cmd.OutOrStdout()

	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Migration Planner %s\n", report.Version)
	fmt.Fprintf(out, "Commit: %s\n", report.Commit)
	fmt.Fprintf(out, "Built:  %s\n", report.Built)
	fmt.Fprintf(out, "Go:     %s\n", report.Go)
	if report.ConfigError != "" {
		fmt.Fprintf(out, "Model:  unknown (%s)\n", report.ConfigError)
		return nil
	}
	fmt.Fprintf(out, "Model:  %s via %s\n", report.Model, report.Endpoint)
	return nil
}

func buildVersionReport() versionReport {
	report := versionReport{
		Version: versionInfo.Version,
		Commit:  versionInfo.Commit,
		Built:   versionInfo.Date,
		Go:      runtime.Version(),
	}

	// go install builds carry the module version even without ldflags
	if report.Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			report.Version = info.Main.Version
		}
	}

	cfg, err := loadOfflineConfig()
	if err != nil {
		report.ConfigError = err.Error()
		return report
	}
	report.Model = cfg.Model
	report.Endpoint = cfg.BaseURL
	return report
}
