package main

import (
	"testing"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/config"
	"github.com/ivlev/stereorig/internal/scene"
)

func TestLabelScene(t *testing.T) {
	g, err := builder.Build(config.Default().Rig, builder.DefaultOptions())
	if err != nil {
		t.Fatalf("build scene: %v", err)
	}
	if err := labelScene(g); err != nil {
		t.Fatalf("label scene: %v", err)
	}

	want := map[string]string{
		builder.PantographPath: "pantograph",
		builder.GroundPath:     "ground",
		builder.WirePath:       "catenary",
	}
	for path, label := range want {
		node, err := g.Require(path)
		if err != nil {
			t.Fatal(err)
		}
		if got, ok := node.SemanticClass(); !ok || got != label {
			t.Errorf("%s labeled %q, want %q", path, got, label)
		}
	}
}

func TestLabelSceneRequiresPantograph(t *testing.T) {
	g := scene.New()
	if _, err := g.Define("/World/Ground", scene.KindMesh); err != nil {
		t.Fatal(err)
	}
	err := labelScene(g)
	if err == nil {
		t.Fatal("expected error when the pantograph prim is missing")
	}
	if !scene.IsMissing(err) {
		t.Fatal("expected a missing-resource error")
	}
}
