package graph

import "testing"

func TestBestName(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "name property wins",
			node: Node{Properties: map[string]any{"name": "DB-Server", "alias": "database"}},
			want: "DB-Server",
		},
		{
			name: "empty name falls back to lexically first key",
			node: Node{Properties: map[string]any{"name": "", "city": "Virginia"}},
			want: "Virginia",
		},
		{
			name: "lexically first property",
			node: Node{Properties: map[string]any{"region": "US-East", "city": "Virginia"}},
			want: "Virginia",
		},
		{
			name: "non-string first value",
			node: Node{Properties: map[string]any{"count": 3}},
			want: "unknown",
		},
		{
			name: "no properties",
			node: Node{Properties: map[string]any{}},
			want: "unknown",
		},
		{
			name: "nil properties",
			node: Node{},
			want: "unknown",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := tc.node.BestName()
			if got != tc.want {
				t.Fatalf("BestName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrimaryLabel(t *testing.T) {
	if got := (Node{Labels: []string{"Asset", "Hardware"}}).PrimaryLabel(); got != "Asset" {
		t.Fatalf("PrimaryLabel() = %q, want Asset", got)
	}
	if got := (Node{}).PrimaryLabel(); got != "" {
		t.Fatalf("PrimaryLabel() = %q, want empty", got)
	}
}
