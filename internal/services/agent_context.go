package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/platform/mlflow"
)

const defaultMaxDiffBytes = 60000

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// truncateDiff cuts diff to at most max bytes on a rune boundary.
func truncateDiff(diff string, max int) string {
	if max <= 0 || len(diff) <= max {
		return diff
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(diff[cut]) {
		cut--
	}
	return diff[:cut] + fmt.Sprintf("\n... (diff truncated, %d of %d bytes shown)", cut, len(diff))
}

func renderDiffSection(sha, diff string) string {
	return fmt.Sprintf("## Commit Diff (%s)\n```diff\n%s\n```", shortSHA(sha), diff)
}

func renderRunSections(run *mlflow.Run) string {
	var b strings.Builder
	b.WriteString("## Experiment Metrics")
	for _, m := range run.Data.Metrics {
		fmt.Fprintf(&b, "\n- %s: %s", m.Key, strconv.FormatFloat(m.Value, 'g', -1, 64))
	}
	b.WriteString("\n\n## Hyperparameters")
	for _, p := range run.Data.Params {
		fmt.Fprintf(&b, "\n- %s: %s", p.Key, p.Value)
	}
	return b.String()
}

// BuildContext assembles the grounding text for a chat turn. Both sources are
// fetched concurrently; a failing source is replaced by a placeholder and never
// blocks the other. Sections keep a fixed order: diff, then run.
func (s *agentService) BuildContext(ctx context.Context, project *types.Project, commitSHA, runID string) string {
	if commitSHA == "" && runID == "" {
		return ""
	}
	var diffPart, runPart string
	var g errgroup.Group

	if commitSHA != "" {
		g.Go(func() error {
			diff, err := s.fetchDiff(ctx, project, commitSHA)
			if err != nil {
				s.log.Warn("context diff unavailable", "project_id", project.ID, "commit_sha", commitSHA, "error", err)
				diffPart = fmt.Sprintf("(Could not fetch diff for %s)", commitSHA)
				return nil
			}
			diffPart = renderDiffSection(commitSHA, truncateDiff(diff, s.cfg.MaxDiffBytes))
			return nil
		})
	}
	if runID != "" {
		g.Go(func() error {
			run, err := s.tracker.GetRun(ctx, runID)
			if err != nil || run == nil {
				s.log.Warn("context run unavailable", "run_id", runID, "error", err)
				runPart = fmt.Sprintf("(Could not fetch MLflow run %s)", runID)
				return nil
			}
			runPart = renderRunSections(run)
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]string, 0, 2)
	for _, p := range []string{diffPart, runPart} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (s *agentService) fetchDiff(ctx context.Context, project *types.Project, sha string) (string, error) {
	owner, repo, ok := project.RepoParts()
	if !ok {
		return "", fmt.Errorf("malformed repository name %q", project.GitHubRepoFullName)
	}
	return s.github.CommitDiff(ctx, project.GitHubInstallationID, owner, repo, sha)
}
