package formatter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/internal/testutil"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

func TestNewJob(t *testing.T) {
	opts := testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })
	job, err := formatter.NewJob(3, "x\n", formatter.FileOrigin{Path: "a/../b.py"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, job.Seq)
	assert.True(t, job.Preview)
	assert.NotNil(t, job.Diagnostics)
	assert.Equal(t, "file:b.py", job.Origin.Key())

	_, err = formatter.NewJob(0, "x", nil, opts)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
	_, err = formatter.NewJob(0, "x", formatter.FileOrigin{Path: "a"}, nil)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
	_, err = formatter.NewJob(0, "x", formatter.BufferOrigin{Name: "a"}, opts)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
}

func TestOrigin_Keys(t *testing.T) {
	buf := testutil.NewFakeBuffer("abc")
	a := formatter.BufferOrigin{Buffer: buf, Name: "main.py", Region: formatter.Region{Start: 0, End: 1}}
	b := formatter.BufferOrigin{Buffer: buf, Name: "main.py", Region: formatter.Region{Start: 1, End: 3}}
	assert.Equal(t, "buffer:main.py@0-1", a.Key())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "main.py", a.Label())
}

func TestNewRegionJobs(t *testing.T) {
	opts := testutil.MustFormatOptions(t, nil)
	buf := testutil.NewFakeBuffer("x = 1 \ny = 2 \n")

	jobs, err := formatter.NewRegionJobs(buf, "m.py", nil, opts, false)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "x = 1 \ny = 2 \n", jobs[0].Source)

	jobs, err = formatter.NewRegionJobs(buf, "m.py", []formatter.Region{{Start: 7, End: 14}, {Start: 0, End: 7}}, opts, true)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "y = 2 \n", jobs[0].Source)
	assert.Equal(t, 1, jobs[1].Seq)
	assert.True(t, jobs[1].Origin.(formatter.BufferOrigin).AutoSave)

	_, err = formatter.NewRegionJobs(buf, "m.py", []formatter.Region{{Start: 0, End: 5}, {Start: 4, End: 8}}, opts, false)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
	_, err = formatter.NewRegionJobs(buf, "m.py", []formatter.Region{{Start: 0, End: 99}}, opts, false)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
	_, err = formatter.NewRegionJobs(nil, "m.py", nil, opts, false)
	assert.ErrorIs(t, err, formatter.ErrConfigValidation)
}
