package formatter_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/internal/testutil"
	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/pep8"
)

// stripTrailing removes trailing spaces and reports a line it will not fix.
var stripTrailing = formatter.EngineFunc(func(_ context.Context, source string, _ *formatter.FormatOptions, diag io.Writer) (string, error) {
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	_, _ = io.WriteString(diag, "--->  1 issue(s) to fix {'W291': {1}}\n")
	if strings.Contains(source, "long") {
		_, _ = io.WriteString(diag, "--->  Not fixing E501 on line 1\n")
	}
	return strings.Join(lines, "\n"), nil
})

func runFormat(t *testing.T, opts formatter.Options, jobs []*formatter.Job) formatter.Report {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutil.DiscardLogger()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report, err := formatter.Format(ctx, opts, jobs)
	require.NoError(t, err)
	return report
}

func fileJobs(t *testing.T, sink *testutil.MemFileSink, fopts *formatter.FormatOptions, files map[string]string) []*formatter.Job {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	loaded, err := formatter.LoadFileJobs(context.Background(), paths, formatter.LoadOptions{FormatOptions: fopts, FileSink: sink})
	require.NoError(t, err)
	require.Empty(t, loaded.Errors)
	return loaded.Jobs
}

func TestFormat_AllClean(t *testing.T) {
	files := map[string]string{"a.py": "a = 1\n", "b.py": "b = 2\n", "c.py": "c = 3\n"}
	sink := testutil.NewMemFileSink(files)
	reporter := &testutil.RecordingReporter{}
	jobs := fileJobs(t, sink, testutil.MustFormatOptions(t, nil), files)

	report := runFormat(t, formatter.Options{Engine: stripTrailing, Reporter: reporter, FileSink: sink}, jobs)

	assert.False(t, report.Summary.HasChanges)
	assert.Equal(t, formatter.MessageNoIssues, report.Summary.StatusMessage)
	assert.Equal(t, 3, report.Summary.UnchangedCount)
	assert.Empty(t, report.Diff)
	assert.Zero(t, sink.WriteCount())

	statuses, panels, scratch, _ := reporter.Snapshot()
	assert.Empty(t, scratch, "no diff view")
	assert.Contains(t, statuses, formatter.MessageNoIssues)
	require.Len(t, panels, 1)
	assert.Equal(t, formatter.PanelNoErrors, panels[0].Text)
	assert.False(t, panels[0].Reveal)
}

func TestFormat_WritesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, path, "x = 1   \ny = 2\n")
	loaded, err := formatter.LoadFileJobs(context.Background(), []string{path}, formatter.LoadOptions{FormatOptions: testutil.MustFormatOptions(t, nil)})
	require.NoError(t, err)
	require.Len(t, loaded.Jobs, 1)

	var applied []string
	report := runFormat(t, formatter.Options{
		Engine:    stripTrailing,
		OnApplied: func(o formatter.Origin, _ string) { applied = append(applied, o.Label()) },
	}, loaded.Jobs)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\ny = 2\n", string(data))
	assert.Equal(t, formatter.MessageIssuesFixed, report.Summary.StatusMessage)
	assert.True(t, report.Summary.HasChanges)
	assert.Equal(t, []string{path}, applied)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, formatter.StatusChanged, report.Jobs[0].Status)
}

func TestFormat_FaultIsolated(t *testing.T) {
	engine := formatter.EngineFunc(func(ctx context.Context, source string, opts *formatter.FormatOptions, diag io.Writer) (string, error) {
		if strings.Contains(source, "bad") {
			_, _ = io.WriteString(diag, "--->  Not fixing E999 on line 1\n")
			return "", errors.New("cannot parse")
		}
		return stripTrailing(ctx, source, opts, diag)
	})
	files := map[string]string{"a.py": "a = 1  \n", "b.py": "bad(\n", "c.py": "long = 1  \n"}
	sink := testutil.NewMemFileSink(files)
	jobs := fileJobs(t, sink, testutil.MustFormatOptions(t, nil), files)

	report := runFormat(t, formatter.Options{Engine: engine, FileSink: sink, ShowOutputPanel: true}, jobs)

	require.Len(t, report.Jobs, 3)
	bad := report.Jobs[1]
	assert.Equal(t, "b.py", bad.Origin)
	assert.Equal(t, formatter.StatusFailed, bad.Status)
	assert.Contains(t, bad.Error, "cannot parse")
	assert.Empty(t, bad.NotFixed)
	assert.NotContains(t, report.Diagnostics, "b.py")
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "b.py", report.Errors[0].Path)

	assert.Equal(t, formatter.StatusChanged, report.Jobs[0].Status)
	assert.Equal(t, formatter.StatusChanged, report.Jobs[2].Status)
	assert.Equal(t, "a = 1\n", sink.Content("a.py"))
	assert.Equal(t, "bad(\n", sink.Content("b.py"))
	assert.Equal(t, "File \"c.py\", line 1: not fixed E501", report.Diagnostics["c.py"])
	assert.True(t, strings.HasPrefix(report.Panel, formatter.PanelNotFixedHeading))
}

func TestFormat_NoLostOrDuplicatedWork(t *testing.T) {
	jobs := previewJobs(t, 20)
	engine := formatter.EngineFunc(func(_ context.Context, source string, _ *formatter.FormatOptions, _ io.Writer) (string, error) {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
		return source, nil
	})
	report := runFormat(t, formatter.Options{Engine: engine, MaxWorkers: 4, PollInterval: time.Millisecond}, jobs)

	want := make(map[string]int, len(jobs))
	for _, j := range jobs {
		want[j.Origin.Label()] = 1
	}
	got := make(map[string]int, len(report.Jobs))
	for _, info := range report.Jobs {
		got[info.Origin]++
	}
	assert.Equal(t, want, got)
	for i, info := range report.Jobs {
		assert.Equal(t, i, info.Seq, "jobs are reported in input order")
	}
}

func TestFormat_AlreadyFormattedIsIdempotent(t *testing.T) {
	files := map[string]string{"clean.py": "def f():\n    return 1\n"}
	sink := testutil.NewMemFileSink(files)
	fopts := testutil.MustFormatOptions(t, nil)

	for _, preview := range []bool{false, true} {
		t.Run(fmt.Sprintf("preview=%v", preview), func(t *testing.T) {
			opts := fopts
			if preview {
				opts = testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })
			}
			reporter := &testutil.RecordingReporter{}
			report := runFormat(t, formatter.Options{Engine: pep8.New(), FileSink: sink, Reporter: reporter}, fileJobs(t, sink, opts, files))

			assert.False(t, report.Summary.HasChanges)
			assert.Empty(t, report.Diff)
			assert.Equal(t, formatter.StatusUnchanged, report.Jobs[0].Status)
			_, _, scratch, _ := reporter.Snapshot()
			assert.Empty(t, scratch)
		})
	}
	assert.Zero(t, sink.WriteCount())
	assert.Equal(t, files["clean.py"], sink.Content("clean.py"))
}

func TestFormat_SmallDiffSuppressed(t *testing.T) {
	jobs := []*formatter.Job{}
	fopts := testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })
	job, err := formatter.NewJob(0, "x = 1  \n", formatter.FileOrigin{Path: "a.py"}, fopts)
	require.NoError(t, err)
	jobs = append(jobs, job)

	diff := formatter.CreateDiff("x = 1  \n", "x = 1\n", "a.py", 0)
	reporter := &testutil.RecordingReporter{}
	report := runFormat(t, formatter.Options{Engine: stripTrailing, Reporter: reporter, MinDiffLines: formatter.DiffLineCount(diff) + 1}, jobs)

	assert.False(t, report.Summary.HasChanges)
	assert.Equal(t, formatter.StatusUnchanged, report.Jobs[0].Status)
	assert.Empty(t, report.Diff)
	_, _, scratch, _ := reporter.Snapshot()
	assert.Empty(t, scratch)
}

func TestFormat_PreviewCollectsDiffsInOrder(t *testing.T) {
	fopts := testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })
	var jobs []*formatter.Job
	for i, src := range []string{"a = 1  \n", "b = 2\n", "c = 3  \n"} {
		job, err := formatter.NewJob(i, src, formatter.FileOrigin{Path: fmt.Sprintf("%c.py", 'a'+i)}, fopts)
		require.NoError(t, err)
		jobs = append(jobs, job)
	}
	reporter := &testutil.RecordingReporter{}
	report := runFormat(t, formatter.Options{Engine: stripTrailing, Reporter: reporter, MaxWorkers: 3}, jobs)

	assert.Equal(t, formatter.MessageIssuesFound, report.Summary.StatusMessage)
	assert.True(t, report.Summary.Preview)
	assert.Less(t, strings.Index(report.Diff, "original: a.py"), strings.Index(report.Diff, "original: c.py"))
	assert.NotContains(t, report.Diff, "b.py")
	_, _, scratch, _ := reporter.Snapshot()
	require.Len(t, scratch, 1)
	assert.Equal(t, report.Diff, scratch[0])
}

// Completion order varies with the random delays; the aggregate does not.
func TestFormat_OrderIndependent(t *testing.T) {
	sources := []string{"long a  \n", "b  \n", "long c\n", "d\n", "long e  \n", "f  \n"}
	engine := formatter.EngineFunc(func(ctx context.Context, source string, opts *formatter.FormatOptions, diag io.Writer) (string, error) {
		time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
		return stripTrailing(ctx, source, opts, diag)
	})
	fopts := testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })

	var first formatter.Report
	for run := 0; run < 5; run++ {
		var jobs []*formatter.Job
		for i, src := range sources {
			job, err := formatter.NewJob(i, src, formatter.FileOrigin{Path: fmt.Sprintf("f%d.py", i)}, fopts)
			require.NoError(t, err)
			jobs = append(jobs, job)
		}
		report := runFormat(t, formatter.Options{Engine: engine, MaxWorkers: 3, PollInterval: time.Millisecond}, jobs)
		if run == 0 {
			first = report
			require.Len(t, first.Diagnostics, 3)
			continue
		}
		assert.Equal(t, first.Diagnostics, report.Diagnostics)
		assert.Equal(t, first.Summary.HasChanges, report.Summary.HasChanges)
		assert.Equal(t, first.Diff, report.Diff)
	}
}
