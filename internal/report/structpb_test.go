package report

import (
	"testing"
)

func TestToStruct(t *testing.T) {
	s, err := ToStruct(sampleResult(), "run-1")
	if err != nil {
		t.Fatalf("ToStruct failed: %v", err)
	}

	fields := s.GetFields()
	if got := fields["run_id"].GetStringValue(); got != "run-1" {
		t.Errorf("run_id = %q, want run-1", got)
	}

	tags := fields["tag_counts"].GetListValue().GetValues()
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tag entries, got %d", len(tags))
	}
	first := tags[0].GetStructValue().GetFields()
	if first["tag"].GetStringValue() != "sv_p2" || first["count"].GetNumberValue() != 2 {
		t.Errorf("Unexpected first tag entry: %v", first)
	}

	combos := fields["port_protocol_counts"].GetListValue().GetValues()
	if len(combos) != 2 {
		t.Fatalf("Expected 2 port/protocol entries, got %d", len(combos))
	}
	second := combos[1].GetStructValue().GetFields()
	if second["port"].GetNumberValue() != 23 || second["protocol"].GetStringValue() != "tcp" || second["count"].GetNumberValue() != 1 {
		t.Errorf("Unexpected second port/protocol entry: %v", second)
	}

	stats := fields["stats"].GetStructValue().GetFields()
	if stats["counted"].GetNumberValue() != 3 {
		t.Errorf("stats.counted = %v, want 3", stats["counted"].GetNumberValue())
	}
}
