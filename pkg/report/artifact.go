package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/autologin/pkg/login"
)

// ArtifactConfig defines run artifact generation
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// RunSummary is the machine-readable record of a run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Site       string         `json:"site"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Results    []login.Result `json:"results"`
	ReportText string         `json:"report_text"`
}

// NewRunSummary assembles the summary of a finished run under a fresh run id.
func NewRunSummary(rep Report, results []login.Result) *RunSummary {
	return &RunSummary{
		RunID:      uuid.New().String(),
		Site:       rep.Target.Label,
		StartTime:  rep.StartedAt,
		EndTime:    rep.FinishedAt,
		Duration:   rep.FinishedAt.Sub(rep.StartedAt),
		Succeeded:  len(rep.Succeeded),
		Failed:     len(rep.Failed),
		Results:    results,
		ReportText: PlainText(rep.String()),
	}
}

// WriteAll writes all artifact formats
func (w *ArtifactWriter) WriteAll(summary *RunSummary) error {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteRunJSON(summary); err != nil {
		return err
	}

	return w.WriteSummaryMarkdown(summary)
}

// WriteRunJSON writes the full run summary as JSON
func (w *ArtifactWriter) WriteRunJSON(summary *RunSummary) error {
	path := filepath.Join(w.outputDir, "run.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *RunSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString(fmt.Sprintf("# %s Login Run\n\n", summary.Site))
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Second)))
	md.WriteString(fmt.Sprintf("**Result:** %d succeeded, %d failed\n\n", summary.Succeeded, summary.Failed))

	// Accounts
	md.WriteString("## Accounts\n\n")
	for _, result := range summary.Results {
		if result.Success {
			md.WriteString(fmt.Sprintf("- ✅ `%s` (%d attempt(s))\n", result.Email, result.Attempts))
			continue
		}
		md.WriteString(fmt.Sprintf("- ❌ `%s` (%d attempt(s)): %s\n", result.Email, result.Attempts, result.Error))
	}

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}
