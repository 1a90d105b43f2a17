package instrument

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSampler_AveragesPerSecond(t *testing.T) {
	var out bytes.Buffer
	s := NewFrameSampler(&out, 2, nil)

	for i := 0; i < 4; i++ {
		assert.True(t, s.Update(0.25))
	}
	require.Len(t, s.Current(), 1)
	assert.InDelta(t, 4, s.Current()[0], 1e-4)

	assert.True(t, s.Update(0.5))
	assert.True(t, s.Update(0.5))
	require.Len(t, s.Current(), 2)
	assert.InDelta(t, 2, s.Current()[1], 1e-4)

	assert.Equal(t, "4.00 2.00", out.String())
}

func TestFrameSampler_StopsAfterSamples(t *testing.T) {
	var out bytes.Buffer
	s := NewFrameSampler(&out, 2, nil)

	s.Update(1)
	s.BeginSample(500)
	assert.False(t, s.Done())
	s.Update(0.5)
	s.Update(0.5)
	s.BeginSample(1000)

	assert.True(t, s.Done())
	assert.False(t, s.Update(1))
	assert.Equal(t, [][]float32{{1}, {2}}, s.Buckets())
	assert.Equal(t, []string{"1.00", "2.00", ""}, strings.Split(out.String(), "\n"))
}

func TestFrameSampler_ZeroDelta(t *testing.T) {
	s := NewFrameSampler(nil, 0, nil)
	assert.True(t, s.Update(0))
	assert.Empty(t, s.Current())
	assert.False(t, s.Done())
}

func TestFrameSampler_RunID(t *testing.T) {
	a := NewFrameSampler(nil, 1, nil)
	b := NewFrameSampler(nil, 1, nil)
	_, err := uuid.Parse(a.RunID())
	assert.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestCreateLog_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	w, err := CreateLog(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("1.00"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.00", string(data))

	w, err = CreateLog("")
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
