package models

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Definition is a sparse record as found in the input document.
type Definition = map[string]any

type Definitions = orderedmap.OrderedMap[string, Definition]

// Document is the desired-state input. Mappings keep the order of the file.
type Document struct {
	Networks *Definitions `yaml:"networks"`
	Hosts    *Definitions `yaml:"hosts"`
}

func NewDefinitions() *Definitions {
	return orderedmap.New[string, Definition]()
}
