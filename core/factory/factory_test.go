package factory

import (
	"strings"
	"testing"
)

type fileSink struct{ Path string }

type fileSinkConf struct {
	Path string `json:"path"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*fileSink]()
	err := reg.Register("file", func(conf map[string]any) (*fileSink, error) {
		var c fileSinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &fileSink{Path: c.Path}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	sink, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{"path": "/tmp/runs.csv"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sink.Path != "/tmp/runs.csv" {
		t.Fatalf("decoded path: got %q", sink.Path)
	}
}

func TestRegistryRejectsDuplicatesAndUnknowns(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatalf("nil factory accepted")
	}
	if _, err := reg.Create(ModuleConfig{Type: "ghost"}); err == nil || !strings.Contains(err.Error(), "unknown module type") {
		t.Fatalf("unexpected error for unknown type: %v", err)
	}
}
