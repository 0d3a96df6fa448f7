package parser

import (
	"fmt"
	"strings"
)

// Registry holds the available parsing strategies.
type Registry struct {
	parsers []ShapeParser
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		parsers: []ShapeParser{
			NewStrictParser(),
			NewLegacyParser(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p ShapeParser) {
	r.parsers = append(r.parsers, p)
}

// Names lists the registered strategy names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		names = append(names, p.Name())
	}
	return names
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (ShapeParser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}
