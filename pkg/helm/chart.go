package helm

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

type chartMetadata struct {
	Name string `yaml:"name"`
}

// ChartName extracts the chart name from the metadata of a chart archive
func (h *Helm) ChartName(ctx context.Context, archive string) (string, error) {
	output, err := h.runner.Run(ctx, "helm", "show", "chart", archive)
	if err != nil {
		return "", err
	}

	var metadata chartMetadata
	if err := yaml.Unmarshal([]byte(output), &metadata); err != nil {
		return "", fmt.Errorf("failed to parse metadata of chart archive '%s' - %v", archive, err)
	}
	if metadata.Name == "" {
		return "", fmt.Errorf("chart archive '%s' has no name in its metadata", archive)
	}

	return metadata.Name, nil
}
