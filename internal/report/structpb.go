package report

import (
	"FlowTagger/internal/model"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a result into a protobuf Struct, the payload shared by the NATS sink and the HTTP API.
// Lists keep the counters' first-seen order.
func ToStruct(result *model.Result, runID string) (*structpb.Struct, error) {
	tags := make([]interface{}, 0, result.Tags.Len())
	for tag, count := range result.Tags.All() {
		tags = append(tags, map[string]interface{}{
			"tag":   tag,
			"count": count,
		})
	}

	combos := make([]interface{}, 0, result.PortProtocols.Len())
	for key, count := range result.PortProtocols.All() {
		combos = append(combos, map[string]interface{}{
			"port":     uint32(key.Port),
			"protocol": key.Protocol,
			"count":    count,
		})
	}

	s := result.Stats
	return structpb.NewStruct(map[string]interface{}{
		"run_id":               runID,
		"tag_counts":           tags,
		"port_protocol_counts": combos,
		"stats": map[string]interface{}{
			"lines":       s.Lines,
			"counted":     s.Counted,
			"blank":       s.Blank,
			"short_lines": s.ShortLines,
			"bad_ports":   s.BadPorts,
			"long_lines":  s.LongLines,
		},
	})
}
