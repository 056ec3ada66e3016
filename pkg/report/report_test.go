package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autologin/pkg/login"
)

var (
	target   = Target{Label: "Wispbyte", DashboardURL: "https://wispbyte.com/client"}
	started  = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	finished = time.Date(2026, 3, 1, 8, 1, 30, 0, time.UTC)
)

func TestBuildAllSucceeded(t *testing.T) {
	results := []login.Result{
		{Email: "a@x.com", Success: true},
		{Email: "b@x.com", Success: true},
	}

	rep := Build(target, results, started, finished)

	want := strings.Join([]string{
		"Wispbyte 自动登录报告",
		"目标: <a href='https://wispbyte.com/client'>控制面板</a>",
		"时间: 2026-03-01 08:00:00 → 2026-03-01 08:01:30",
		"结果: <b>2 成功</b> | <b>0 失败</b>",
		"",
		"Success 成功：",
		"   • <code>a@x.com</code>",
		"   • <code>b@x.com</code>",
	}, "\n")
	assert.Equal(t, want, rep.String())
	assert.Equal(t, 2, rep.Total())
	assert.Empty(t, rep.Failed)
}

func TestBuildPartitionsPreservingOrder(t *testing.T) {
	results := []login.Result{
		{Email: "c@x.com", Success: false, Error: "timeout"},
		{Email: "a@x.com", Success: true},
		{Email: "d@x.com", Success: false},
		{Email: "b@x.com", Success: true},
	}

	rep := Build(target, results, started, finished)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, rep.Succeeded)
	assert.Equal(t, []string{"c@x.com", "d@x.com"}, rep.Failed)
	assert.Equal(t, len(results), rep.Total())

	text := rep.String()
	assert.Contains(t, text, "结果: <b>2 成功</b> | <b>2 失败</b>")
	assert.Contains(t, text, "\n\nFailed 失败：\n   • <code>c@x.com</code>\n   • <code>d@x.com</code>")
	assert.Less(t, strings.Index(text, "Success 成功："), strings.Index(text, "Failed 失败："))
	assert.NotContains(t, text, "timeout", "error details belong to the image captions")
}

func TestBuildIsDeterministic(t *testing.T) {
	results := []login.Result{{Email: "a@x.com"}}
	first := Build(target, results, started, finished).String()
	second := Build(target, results, started, finished).String()
	assert.Equal(t, first, second)
}

func TestReportEscapesMarkup(t *testing.T) {
	rep := Build(Target{Label: "A&B"}, []login.Result{{Email: "<x>@y.com"}}, started, finished)

	text := rep.String()
	assert.Contains(t, text, "A&amp;B 自动登录报告")
	assert.Contains(t, text, "<code>&lt;x&gt;@y.com</code>")
	assert.NotContains(t, text, "目标:", "no dashboard link without a URL")
}

func TestPlainText(t *testing.T) {
	rep := Build(target, []login.Result{{Email: "a@x.com", Success: true}, {Email: "b&c@x.com"}}, started, finished)

	plain := PlainText(rep.String())

	assert.NotContains(t, plain, "<b>")
	assert.NotContains(t, plain, "<code>")
	assert.Contains(t, plain, "目标: 控制面板 (https://wispbyte.com/client)")
	assert.Contains(t, plain, "结果: 1 成功 | 1 失败")
	assert.Contains(t, plain, "   • b&c@x.com")
}

func TestArtifactWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	results := []login.Result{
		{Email: "a@x.com", Success: true, Attempts: 1},
		{Email: "b@x.com", Success: false, Attempts: 3, Error: "attempt 3: verify_outcome timed out"},
	}
	rep := Build(target, results, started, finished)
	summary := NewRunSummary(rep, results)

	require.NoError(t, NewArtifactWriter(dir).WriteAll(summary))

	raw, err := os.ReadFile(filepath.Join(dir, "run.json"))
	require.NoError(t, err)

	var decoded RunSummary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, summary.RunID, decoded.RunID)
	assert.NotEmpty(t, decoded.RunID)
	assert.Equal(t, "Wispbyte", decoded.Site)
	assert.Equal(t, 1, decoded.Succeeded)
	assert.Equal(t, 1, decoded.Failed)
	assert.Equal(t, 90*time.Second, decoded.Duration)
	assert.Len(t, decoded.Results, 2)
	assert.NotContains(t, string(raw), "<b>")

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Wispbyte Login Run")
	assert.Contains(t, string(md), "**Result:** 1 succeeded, 1 failed")
	assert.Contains(t, string(md), "- ❌ `b@x.com` (3 attempt(s)): attempt 3: verify_outcome timed out")
}

func TestRunSummaryIDsAreUnique(t *testing.T) {
	rep := Build(target, nil, started, finished)
	assert.NotEqual(t, NewRunSummary(rep, nil).RunID, NewRunSummary(rep, nil).RunID)
}
