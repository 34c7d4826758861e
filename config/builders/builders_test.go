package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cinerec/cinerec/config"
	"github.com/cinerec/cinerec/pipeline"
)

const pipelineYAML = `
pipeline:
  name: popular-shelf
  nodes:
    - type: recall.popular
      config:
        ids: [155, 27205, 620, 19404]
    - type: filter
      config:
        filters:
          - type: rule
            expr: 'item.id != 620'
    - type: rerank.topn
      config:
        n: 2
`

func TestBuildPipelineFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatal(err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatal(err)
	}

	items, err := p.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{155, 27205}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].ID != w {
			t.Errorf("position %d = %d, want %d", i, items[i].ID, w)
		}
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "recall.nonexistent"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("want error for unknown node type")
	}
}

func TestBuildDiversityNode(t *testing.T) {
	node, err := BuildDiversityNode(map[string]any{"max_per_genre": 3})
	if err != nil {
		t.Fatal(err)
	}
	if node.Name() != "rerank.diversity" {
		t.Errorf("name = %q", node.Name())
	}
}

func TestBuildFilterNodeBadRule(t *testing.T) {
	_, err := BuildFilterNode(map[string]any{
		"filters": []any{map[string]any{"type": "rule", "expr": "((("}},
	})
	if err == nil {
		t.Error("want compile error for malformed expression")
	}
}
