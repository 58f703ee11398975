package queue

import (
	"testing"

	"github.com/atlas-cmdb/backend/pkg/store"
)

func TestNodeDescription(t *testing.T) {
	tests := []struct {
		name string
		node store.NodeRecord
		want string
	}{
		{
			name: "properties sorted by key",
			node: store.NodeRecord{
				Label: "Asset",
				Properties: map[string]any{
					"name":   "DB-Server",
					"type":   "Database",
					"os":     "Linux",
					"status": "Running",
				},
			},
			want: "Asset - name: DB-Server, os: Linux, status: Running, type: Database",
		},
		{
			name: "embedding and description excluded",
			node: store.NodeRecord{
				Label: "Asset",
				Properties: map[string]any{
					"name":        "Redis-Cache",
					"embedding":   []float32{0.1, 0.2},
					"description": "stale text",
				},
			},
			want: "Asset - name: Redis-Cache",
		},
		{
			name: "no properties",
			node: store.NodeRecord{Label: "Location", Properties: map[string]any{}},
			want: "Location",
		},
		{
			name: "non-string values rendered",
			node: store.NodeRecord{
				Label: "Service",
				Properties: map[string]any{
					"name":     "Payroll-Service",
					"replicas": 3,
				},
			},
			want: "Service - name: Payroll-Service, replicas: 3",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NodeDescription(tc.node)
			if got != tc.want {
				t.Fatalf("NodeDescription() = %q, want %q", got, tc.want)
			}
		})
	}
}
