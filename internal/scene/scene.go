// Package scene implements the scene graph collaborator: a hierarchy of
// typed prims addressed by path, each carrying ordered transform ops and
// typed attributes, persisted as a YAML artifact. It stands in for the
// external stage service the capture tooling talks to.
package scene

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Kind identifies the prim type of a node.
type Kind string

const (
	KindXform       Kind = "Xform"
	KindCamera      Kind = "Camera"
	KindMesh        Kind = "Mesh"
	KindBasisCurves Kind = "BasisCurves"
	KindDomeLight   Kind = "DomeLight"
)

// OpType identifies a transform op.
type OpType string

const (
	OpTranslate OpType = "translate"
	// OpRotateXYZ rotates about X, then Y, then Z, in degrees.
	OpRotateXYZ OpType = "rotateXYZ"
	OpScale     OpType = "scale"
)

// Op is a single transform op on a node. Ops apply to the prim in the order
// they are listed: a node with [rotateXYZ, translate] is rotated in place and
// then moved.
type Op struct {
	Type  OpType    `yaml:"type"`
	Value r3.Vector `yaml:"value"`
}

// SemanticClassAttr is the attribute name carrying a node's semantic label.
const SemanticClassAttr = "semantics:class"

// Node is one prim in the graph.
type Node struct {
	Path      string          `yaml:"path"`
	Kind      Kind            `yaml:"kind"`
	Ops       []Op            `yaml:"ops,omitempty"`
	Attrs     map[string]Attr `yaml:"attrs,omitempty"`
	Reference string          `yaml:"reference,omitempty"`
}

// Graph is a scene: stage metadata plus prims in definition order.
type Graph struct {
	upAxis        string
	metersPerUnit float64
	nodes         []*Node
	index         map[string]*Node
}

// New returns an empty Z-up graph with units of meters.
func New() *Graph {
	return &Graph{
		upAxis:        "Z",
		metersPerUnit: 1.0,
		index:         map[string]*Node{},
	}
}

// UpAxis returns the stage up axis token.
func (g *Graph) UpAxis() string { return g.upAxis }

// MetersPerUnit returns the stage unit scale.
func (g *Graph) MetersPerUnit() float64 { return g.metersPerUnit }

// Nodes returns the prims in definition order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Define creates the node at path with the given kind, implicitly defining
// any missing ancestors as Xforms. Defining an existing node with the same
// kind returns it unchanged; a kind conflict is an error.
func (g *Graph) Define(path string, kind Kind) (*Node, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if parent := parentPath(path); parent != "" {
		if _, ok := g.index[parent]; !ok {
			if _, err := g.Define(parent, KindXform); err != nil {
				return nil, err
			}
		}
	}
	if existing, ok := g.index[path]; ok {
		if existing.Kind != kind {
			return nil, errors.Errorf("prim %s already defined as %s, not %s", path, existing.Kind, kind)
		}
		return existing, nil
	}
	n := &Node{Path: path, Kind: kind, Attrs: map[string]Attr{}}
	g.nodes = append(g.nodes, n)
	g.index[path] = n
	return n, nil
}

// Node looks up a prim by path.
func (g *Graph) Node(path string) (*Node, bool) {
	n, ok := g.index[path]
	return n, ok
}

// Require looks up a prim that must exist, failing with a
// MissingResourceError otherwise.
func (g *Graph) Require(path string) (*Node, error) {
	n, ok := g.index[path]
	if !ok {
		return nil, &MissingResourceError{Path: path}
	}
	return n, nil
}

// SetTranslate sets the node's translate op, creating it if absent. The op
// is never duplicated: set-or-create is a total operation.
func (n *Node) SetTranslate(v r3.Vector) {
	n.setOp(OpTranslate, v)
}

// SetRotateXYZ sets the node's rotateXYZ op in degrees, creating it if
// absent.
func (n *Node) SetRotateXYZ(v r3.Vector) {
	n.setOp(OpRotateXYZ, v)
}

func (n *Node) setOp(t OpType, v r3.Vector) {
	for i := range n.Ops {
		if n.Ops[i].Type == t {
			n.Ops[i].Value = v
			return
		}
	}
	n.Ops = append(n.Ops, Op{Type: t, Value: v})
}

// SetScale sets the node's scale op, creating it if absent.
func (n *Node) SetScale(v r3.Vector) {
	n.setOp(OpScale, v)
}

// Translate returns the node's translate op value, if present.
func (n *Node) Translate() (r3.Vector, bool) {
	return n.op(OpTranslate)
}

// RotateXYZ returns the node's rotateXYZ op value in degrees, if present.
func (n *Node) RotateXYZ() (r3.Vector, bool) {
	return n.op(OpRotateXYZ)
}

func (n *Node) op(t OpType) (r3.Vector, bool) {
	for i := range n.Ops {
		if n.Ops[i].Type == t {
			return n.Ops[i].Value, true
		}
	}
	return r3.Vector{}, false
}

// SetSemanticClass labels the prim for semantic segmentation.
func (n *Node) SetSemanticClass(label string) {
	n.SetToken(SemanticClassAttr, label)
}

// SemanticClass returns the prim's semantic label, if any.
func (n *Node) SemanticClass() (string, bool) {
	return n.Token(SemanticClassAttr)
}

func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") || path == "/" {
		return errors.Errorf("prim path %q must be absolute and non-root", path)
	}
	for _, seg := range strings.Split(path[1:], "/") {
		if seg == "" {
			return errors.Errorf("prim path %q has an empty segment", path)
		}
	}
	return nil
}

func parentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return ""
	}
	return path[:i]
}
