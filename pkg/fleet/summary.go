package fleet

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"repofleet/pkg/github"
)

// Summary holds aggregate statistics of a run.
type Summary struct {
	TotalRepositories int `json:"total_repositories"`
	SuccessCount      int `json:"success_count"`
	FailureCount      int `json:"failure_count"`
	SkippedCount      int `json:"skipped_count"`
	ChangeCount       int `json:"change_count"`
	PullRequestCount  int `json:"pull_request_count"`
}

// RenderSummary writes one table row per processed repository.
func RenderSummary(out io.Writer, result *Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"REPOSITORY", "LABELS", "SETTINGS", "PROTECTION", "FILES", "STATUS"})
	for _, r := range result.Reports {
		t.AppendRow(table.Row{
			r.Repository,
			r.Count(github.KindLabels),
			r.Count(github.KindSettings),
			r.Count(github.KindBranchProtection),
			r.Count(KindFiles),
			status(r),
		})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d repositories", len(result.Reports)),
		"", "", "", "",
		fmt.Sprintf("%d ok, %d failed, %d skipped", result.Summary.SuccessCount, result.Summary.FailureCount, result.Summary.SkippedCount),
	})
	t.Render()
}

func status(r *Report) string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.PullRequest != "":
		return r.PullRequest
	case r.Total() == 0:
		return "up to date"
	default:
		return "changed"
	}
}
