package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/sitescore/internal/domain/model"
)

// metricsFile is the document read by the score command. A bare list of
// metrics is accepted too.
type metricsFile struct {
	SiteID  string            `json:"siteId" yaml:"siteId"`
	Metrics []model.RawMetric `json:"metrics" yaml:"metrics"`
}

// readMetricsFile decodes path as YAML when its extension says so and as
// JSON otherwise.
func readMetricsFile(path string) (metricsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return metricsFile{}, err
	}
	var doc metricsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &doc)
	default:
		err = decodeJSON(data, &doc)
	}
	if err != nil {
		return metricsFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func decodeJSON(data []byte, doc *metricsFile) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &doc.Metrics)
	}
	return json.Unmarshal(data, doc)
}

func decodeYAML(data []byte, doc *metricsFile) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		return node.Decode(&doc.Metrics)
	}
	return node.Decode(doc)
}
