package scene

import "github.com/golang/geo/r3"

// Attr is a typed attribute value. Exactly one of the value fields is set;
// scalar floats are stored as a one-element slice so float, float2 and float
// arrays share a representation in the artifact.
type Attr struct {
	Token  string      `yaml:"token,omitempty"`
	Floats []float64   `yaml:"floats,omitempty"`
	Points []r3.Vector `yaml:"points,omitempty"`
}

func (n *Node) setAttr(name string, a Attr) {
	if n.Attrs == nil {
		n.Attrs = map[string]Attr{}
	}
	n.Attrs[name] = a
}

// SetToken creates or overwrites a token attribute.
func (n *Node) SetToken(name, value string) {
	n.setAttr(name, Attr{Token: value})
}

// Token returns a token attribute value, if present.
func (n *Node) Token(name string) (string, bool) {
	a, ok := n.Attrs[name]
	if !ok || a.Token == "" {
		return "", false
	}
	return a.Token, true
}

// SetFloat creates or overwrites a scalar float attribute.
func (n *Node) SetFloat(name string, value float64) {
	n.setAttr(name, Attr{Floats: []float64{value}})
}

// Float returns a scalar float attribute value, if present.
func (n *Node) Float(name string) (float64, bool) {
	a, ok := n.Attrs[name]
	if !ok || len(a.Floats) != 1 {
		return 0, false
	}
	return a.Floats[0], true
}

// SetFloat2 creates or overwrites a two-component float attribute.
func (n *Node) SetFloat2(name string, a, b float64) {
	n.setAttr(name, Attr{Floats: []float64{a, b}})
}

// Float2 returns a two-component float attribute, if present.
func (n *Node) Float2(name string) (a, b float64, ok bool) {
	at, found := n.Attrs[name]
	if !found || len(at.Floats) != 2 {
		return 0, 0, false
	}
	return at.Floats[0], at.Floats[1], true
}

// SetFloatArray creates or overwrites a float array attribute.
func (n *Node) SetFloatArray(name string, values []float64) {
	n.setAttr(name, Attr{Floats: values})
}

// FloatArray returns a float array attribute, if present.
func (n *Node) FloatArray(name string) ([]float64, bool) {
	a, ok := n.Attrs[name]
	if !ok || a.Floats == nil {
		return nil, false
	}
	return a.Floats, true
}

// SetPoints creates or overwrites a point array attribute.
func (n *Node) SetPoints(name string, points []r3.Vector) {
	n.setAttr(name, Attr{Points: points})
}

// PointsAttr returns a point array attribute, if present.
func (n *Node) PointsAttr(name string) ([]r3.Vector, bool) {
	a, ok := n.Attrs[name]
	if !ok || a.Points == nil {
		return nil, false
	}
	return a.Points, true
}
