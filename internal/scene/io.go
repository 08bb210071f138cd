package scene

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// document is the YAML shape of an exported scene artifact.
type document struct {
	UpAxis        string  `yaml:"up_axis"`
	MetersPerUnit float64 `yaml:"meters_per_unit"`
	Nodes         []*Node `yaml:"nodes"`
}

// Export writes the graph to a scene artifact at path.
func (g *Graph) Export(path string) error {
	doc := document{
		UpAxis:        g.upAxis,
		MetersPerUnit: g.metersPerUnit,
		Nodes:         g.nodes,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "marshal scene")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write scene artifact %s", path)
	}
	return nil
}

// Open reads a scene artifact and returns the graph. A missing file is a
// MissingResourceError; a file that does not parse as a scene is a plain
// error.
func Open(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingResourceError{Path: path}
		}
		return nil, errors.Wrapf(err, "read scene artifact %s", path)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse scene artifact %s", path)
	}
	if doc.UpAxis == "" || len(doc.Nodes) == 0 {
		return nil, errors.Errorf("%s is not a valid scene artifact", path)
	}

	g := &Graph{
		upAxis:        doc.UpAxis,
		metersPerUnit: doc.MetersPerUnit,
		nodes:         doc.Nodes,
		index:         make(map[string]*Node, len(doc.Nodes)),
	}
	for _, n := range doc.Nodes {
		if err := validatePath(n.Path); err != nil {
			return nil, errors.Wrapf(err, "parse scene artifact %s", path)
		}
		g.index[n.Path] = n
	}
	return g, nil
}
