// Package pprlio persists the pprl package's in-memory types to disk: a
// JSON-lines dataset format for EmbeddedDataset, and a file-level wrapper
// around EmbedderConfig's binary blob. Grounded on // internal/pprl/storage.go, which wrote one JSON record per line via
// bufio with a trailing flush, and read them back with bufio.Scanner; the
// same shape is kept here, generalized from fixed
// Bloom/MinHash record to the new EmbeddedRecord.
package pprlio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/auroradata-ai/pprl-core/internal/pprl"
)

// datasetRecord is the on-disk JSON shape of one EmbeddedRecord. Features
// are intentionally not persisted: retained feature bags are a debugging
// aid over a live EmbeddedDataset, not part of the interchange format two
// linkage parties exchange.
type datasetRecord struct {
	Indices   []uint32 `json:"indices"`
	Norm      float64  `json:"norm"`
	Threshold float64  `json:"threshold"`
}

// WriteDataset writes ds as JSON-lines, one EmbeddedRecord per line, in
// row order. The EmbedderConfig itself is not written here — callers
// persist it once per project via WriteEmbedderConfigFile and supply it back
// to ReadDataset, since every record in a dataset shares it.
func WriteDataset(w io.Writer, ds *pprl.EmbeddedDataset) error {
	bw := bufio.NewWriter(w)
	for _, rec := range ds.Records {
		line, err := json.Marshal(datasetRecord{
			Indices:   rec.Indices,
			Norm:      rec.Norm,
			Threshold: rec.Threshold,
		})
		if err != nil {
			return fmt.Errorf("pprlio: marshal record: %w", err)
		}
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("pprlio: write record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("pprlio: write record: %w", err)
		}
	}
	return bw.Flush()
}

// ReadDataset reads a dataset previously written by WriteDataset, binding
// every record to cfg (the caller is responsible for ensuring cfg is the
// same EmbedderConfig the dataset was embedded under).
func ReadDataset(r io.Reader, cfg *pprl.EmbedderConfig) (*pprl.EmbeddedDataset, error) {
	scanner := bufio.NewScanner(r)
	// Bit-index lines can be long for large m; grow past bufio's default
	// 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []*pprl.EmbeddedRecord
	for scanner.Scan() {
		var dr datasetRecord
		if err := json.Unmarshal(scanner.Bytes(), &dr); err != nil {
			return nil, fmt.Errorf("pprlio: unmarshal record: %w", err)
		}
		records = append(records, &pprl.EmbeddedRecord{
			Config:    cfg,
			Indices:   dr.Indices,
			Norm:      dr.Norm,
			Threshold: dr.Threshold,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pprlio: read dataset: %w", err)
	}
	return &pprl.EmbeddedDataset{Config: cfg, Records: records}, nil
}

// WriteDatasetFile truncates (or creates) path and writes ds to it.
func WriteDatasetFile(path string, ds *pprl.EmbeddedDataset) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("pprlio: open %s: %w", path, err)
	}
	defer f.Close()
	return WriteDataset(f, ds)
}

// ReadDatasetFile reads a dataset file written by WriteDatasetFile.
func ReadDatasetFile(path string, cfg *pprl.EmbedderConfig) (*pprl.EmbeddedDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pprlio: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f, cfg)
}

// WriteEmbedderConfigFile serializes cfg's versioned binary blob to path,
// for the two parties to a linkage project to exchange out of band (spec
// §6: both sides must embed under the identical config).
func WriteEmbedderConfigFile(path string, cfg *pprl.EmbedderConfig) error {
	data, err := cfg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("pprlio: marshal embedder config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("pprlio: write %s: %w", path, err)
	}
	return nil
}

// ReadEmbedderConfigFile deserializes an EmbedderConfig blob from path.
func ReadEmbedderConfigFile(path string) (*pprl.EmbedderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pprlio: read %s: %w", path, err)
	}
	cfg := &pprl.EmbedderConfig{}
	if err := cfg.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("pprlio: unmarshal embedder config: %w", err)
	}
	return cfg, nil
}
