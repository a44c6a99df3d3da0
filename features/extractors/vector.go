package extractors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
)

// Feature is one named scalar descriptor
type Feature struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// FeatureVector is an immutable, insertion-ordered mapping from feature name
// to value. Build one with a FeatureBuilder or Merge.
type FeatureVector struct {
	features []Feature
	index    map[string]int
}

// FeatureBuilder accumulates features for a single FeatureVector
type FeatureBuilder struct {
	features []Feature
	index    map[string]int
	err      error
}

// NewFeatureBuilder creates a builder with room for sizeHint features
func NewFeatureBuilder(sizeHint int) *FeatureBuilder {
	return &FeatureBuilder{
		features: make([]Feature, 0, sizeHint),
		index:    make(map[string]int, sizeHint),
	}
}

// Add appends a feature. A duplicate name poisons the builder and Build
// reports it.
func (b *FeatureBuilder) Add(name string, value float64) *FeatureBuilder {
	if b.err != nil {
		return b
	}
	if _, exists := b.index[name]; exists {
		b.err = common.NewConfigurationError("FeatureBuilder", fmt.Sprintf("duplicate feature %q", name))
		return b
	}
	b.index[name] = len(b.features)
	b.features = append(b.features, Feature{Name: name, Value: value})
	return b
}

// AddIndexed appends prefix_1..prefix_N for values
func (b *FeatureBuilder) AddIndexed(prefix string, values []float64) *FeatureBuilder {
	for i, v := range values {
		b.Add(prefix+"_"+strconv.Itoa(i+1), v)
	}
	return b
}

// Build returns the finished vector. The builder must not be reused.
func (b *FeatureBuilder) Build() (*FeatureVector, error) {
	if b.err != nil {
		return nil, b.err
	}
	fv := &FeatureVector{features: b.features, index: b.index}
	b.features, b.index = nil, nil
	return fv, nil
}

// Merge concatenates vectors in argument order. Any name present in more than
// one vector is a configuration error; nothing is returned in that case.
func Merge(vectors ...*FeatureVector) (*FeatureVector, error) {
	size := 0
	for _, v := range vectors {
		size += v.Len()
	}

	b := NewFeatureBuilder(size)
	for _, v := range vectors {
		if v == nil {
			continue
		}
		for _, f := range v.features {
			if _, exists := b.index[f.Name]; exists {
				return nil, common.NewConfigurationError("Merge", fmt.Sprintf("feature %q produced by more than one analyzer", f.Name))
			}
			b.Add(f.Name, f.Value)
		}
	}
	return b.Build()
}

// Len returns the number of features
func (fv *FeatureVector) Len() int {
	if fv == nil {
		return 0
	}
	return len(fv.features)
}

// Get looks a feature up by name
func (fv *FeatureVector) Get(name string) (float64, bool) {
	if fv == nil {
		return 0, false
	}
	i, ok := fv.index[name]
	if !ok {
		return 0, false
	}
	return fv.features[i].Value, true
}

// Names returns feature names in canonical order
func (fv *FeatureVector) Names() []string {
	names := make([]string, fv.Len())
	for i := range names {
		names[i] = fv.features[i].Name
	}
	return names
}

// Features returns a copy of the ordered features
func (fv *FeatureVector) Features() []Feature {
	out := make([]Feature, fv.Len())
	if fv != nil {
		copy(out, fv.features)
	}
	return out
}

// Values returns feature values in canonical order
func (fv *FeatureVector) Values() []float64 {
	values := make([]float64, fv.Len())
	for i := range values {
		values[i] = fv.features[i].Value
	}
	return values
}

// MarshalJSON encodes the vector as a JSON object in canonical key order
func (fv *FeatureVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fv.Features() {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return nil, fmt.Errorf("feature %q has non-finite value %v", f.Name, f.Value)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(f.Value, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the vector as a YAML mapping in canonical key order
func (fv *FeatureVector) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fv.Features() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: formatYAMLFloat(f.Value)},
		)
	}
	return node, nil
}

func formatYAMLFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
