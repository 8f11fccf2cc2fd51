package factory

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"
	"fmt"
	"log"
	"sort"
	"sync"
)

// SinkFactory defines a function that creates a sink from its config definition.
type SinkFactory func(def config.SinkDef) (model.Sink, error)

var (
	mu sync.RWMutex
	// registry holds the mapping of sink types to their factory functions.
	registry = make(map[string]SinkFactory)
)

// RegisterSink registers a new sink type with its factory function.
func RegisterSink(name string, factory SinkFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("sink type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered returns the registered sink types in sorted order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds a sink for every enabled definition, in config order.
// An unknown type is a configuration error; a sink whose factory fails is skipped with a warning
// so that an unreachable optional destination does not prevent the report from being produced.
func Create(defs []config.SinkDef) ([]model.Sink, error) {
	var sinks []model.Sink

	for _, def := range defs {
		if !def.Enabled {
			continue
		}

		mu.RLock()
		factory, ok := registry[def.Type]
		mu.RUnlock()
		if !ok {
			closeAll(sinks)
			return nil, fmt.Errorf("unknown sink type: '%s'", def.Type)
		}

		sink, err := factory(def)
		if err != nil {
			log.Printf("Warning: failed to create sink type '%s': %v, skipping.", def.Type, err)
			continue
		}
		log.Printf("Created sink '%s'.", sink.Name())
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

func closeAll(sinks []model.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Printf("Error closing sink '%s': %v", s.Name(), err)
		}
	}
}
