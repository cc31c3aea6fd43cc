package pprlio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroradata-ai/pprl-core/internal/pprl"
)

func TestWriteReadDatasetRoundTrip(t *testing.T) {
	cfg, err := pprl.NewEmbedderConfig(256, 4, []byte("salt"), nil)
	require.NoError(t, err)

	ds := &pprl.EmbeddedDataset{Config: cfg, Records: []*pprl.EmbeddedRecord{
		{Config: cfg, Indices: []uint32{1, 5, 9}, Norm: 1.7320508, Threshold: 0.4},
		{Config: cfg, Indices: nil, Norm: 0, Threshold: 0},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds))

	restored, err := ReadDataset(&buf, cfg)
	require.NoError(t, err)
	require.Equal(t, len(ds.Records), len(restored.Records))
	for i := range ds.Records {
		assert.Equal(t, ds.Records[i].Indices, restored.Records[i].Indices)
		assert.InDelta(t, ds.Records[i].Norm, restored.Records[i].Norm, 1e-9)
		assert.InDelta(t, ds.Records[i].Threshold, restored.Records[i].Threshold, 1e-9)
		assert.Same(t, cfg, restored.Records[i].Config)
	}
}

func TestWriteReadDatasetFileRoundTrip(t *testing.T) {
	cfg, err := pprl.NewEmbedderConfig(128, 4, nil, nil)
	require.NoError(t, err)
	ds := &pprl.EmbeddedDataset{Config: cfg, Records: []*pprl.EmbeddedRecord{
		{Config: cfg, Indices: []uint32{2, 4}, Norm: 1.41, Threshold: 0.1},
	}}

	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	require.NoError(t, WriteDatasetFile(path, ds))

	restored, err := ReadDatasetFile(path, cfg)
	require.NoError(t, err)
	require.Len(t, restored.Records, 1)
	assert.Equal(t, ds.Records[0].Indices, restored.Records[0].Indices)
}

func TestWriteReadEmbedderConfigFileRoundTrip(t *testing.T) {
	s := pprl.NewTokenSimilarity(8)
	require.NoError(t, s.Set(1, 2, 0.5))
	cfg, err := pprl.NewEmbedderConfig(8, 3, []byte("x"), s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "embedder.blob")
	require.NoError(t, WriteEmbedderConfigFile(path, cfg))

	restored, err := ReadEmbedderConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.M, restored.M)
	assert.Equal(t, cfg.K, restored.K)
	assert.Equal(t, cfg.Salt, restored.Salt)
	require.NotNil(t, restored.S)
	assert.InDelta(t, 0.5, restored.S.Get(1, 2), 1e-9)
}
