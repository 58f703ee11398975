// Package seed holds the sample CMDB dataset and loads it into the graph
// store: locations, assets, services, users and the relationships between
// them. Loading replaces whatever the store currently holds.
package seed

import (
	"context"
	"fmt"

	"github.com/atlas-cmdb/backend/pkg/logger"
	"github.com/atlas-cmdb/backend/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type sampleNode struct {
	Label string
	Props map[string]any
}

type sampleEdge struct {
	Source string
	Target string
	Type   string
	Props  map[string]any
}

var sampleNodes = []sampleNode{
	// Locations
	{Label: "Location", Props: map[string]any{"name": "Data-Center-1", "region": "US-East", "city": "Virginia"}},
	{Label: "Location", Props: map[string]any{"name": "Data-Center-2", "region": "US-West", "city": "Oregon"}},
	{Label: "Location", Props: map[string]any{"name": "HQ-Office", "region": "US-East", "city": "New York"}},

	// Assets
	{Label: "Asset", Props: map[string]any{"name": "DB-Server", "type": "Database", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Web-Server-1", "type": "Web Server", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Web-Server-2", "type": "Web Server", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Load-Balancer", "type": "Network", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Redis-Cache", "type": "Cache", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Web-API", "type": "API Server", "os": "Linux", "status": "Running"}},
	{Label: "Asset", Props: map[string]any{"name": "Backup-Server", "type": "Storage", "os": "Linux", "status": "Running"}},

	// Services
	{Label: "Service", Props: map[string]any{"name": "Payroll-Service", "criticality": "High", "sla": "99.9%"}},
	{Label: "Service", Props: map[string]any{"name": "Email-Service", "criticality": "Medium", "sla": "99.5%"}},
	{Label: "Service", Props: map[string]any{"name": "Employee-Portal", "criticality": "High", "sla": "99.9%"}},

	// Users
	{Label: "User", Props: map[string]any{"name": "John Smith", "role": "DevOps Engineer", "email": "john@company.com"}},
	{Label: "User", Props: map[string]any{"name": "Sarah Johnson", "role": "Product Owner", "email": "sarah@company.com"}},
	{Label: "User", Props: map[string]any{"name": "Mike Davis", "role": "System Admin", "email": "mike@company.com"}},
}

var sampleEdges = []sampleEdge{
	// Asset locations
	{Source: "DB-Server", Target: "Data-Center-1", Type: "LOCATED_IN"},
	{Source: "Web-Server-1", Target: "Data-Center-1", Type: "LOCATED_IN"},
	{Source: "Web-Server-2", Target: "Data-Center-2", Type: "LOCATED_IN"},
	{Source: "Load-Balancer", Target: "Data-Center-1", Type: "LOCATED_IN"},
	{Source: "Redis-Cache", Target: "Data-Center-1", Type: "LOCATED_IN"},
	{Source: "Web-API", Target: "Data-Center-1", Type: "LOCATED_IN"},
	{Source: "Backup-Server", Target: "Data-Center-2", Type: "LOCATED_IN"},

	// Asset dependencies
	{Source: "Load-Balancer", Target: "Web-Server-1", Type: "DEPENDS_ON", Props: map[string]any{"type": "traffic-routing"}},
	{Source: "Load-Balancer", Target: "Web-Server-2", Type: "DEPENDS_ON", Props: map[string]any{"type": "traffic-routing"}},
	{Source: "Web-Server-1", Target: "Web-API", Type: "DEPENDS_ON", Props: map[string]any{"type": "api-calls"}},
	{Source: "Web-Server-2", Target: "Web-API", Type: "DEPENDS_ON", Props: map[string]any{"type": "api-calls"}},
	{Source: "Web-API", Target: "DB-Server", Type: "DEPENDS_ON", Props: map[string]any{"type": "data-storage"}},
	{Source: "Web-API", Target: "Redis-Cache", Type: "DEPENDS_ON", Props: map[string]any{"type": "caching"}},
	{Source: "DB-Server", Target: "Backup-Server", Type: "DEPENDS_ON", Props: map[string]any{"type": "backup"}},

	// Services on assets
	{Source: "Employee-Portal", Target: "Load-Balancer", Type: "RUNS_ON"},
	{Source: "Payroll-Service", Target: "Web-API", Type: "RUNS_ON"},
	{Source: "Email-Service", Target: "Web-Server-1", Type: "RUNS_ON"},

	// Ownership and management
	{Source: "Sarah Johnson", Target: "Payroll-Service", Type: "OWNS"},
	{Source: "John Smith", Target: "Employee-Portal", Type: "OWNS"},
	{Source: "Mike Davis", Target: "Email-Service", Type: "OWNS"},
	{Source: "John Smith", Target: "DB-Server", Type: "MANAGES"},
	{Source: "Mike Davis", Target: "Load-Balancer", Type: "MANAGES"},
}

// Load replaces the graph contents with the sample CMDB dataset. Node
// public ids are freshly generated nanoids; names stay unique within the
// sample so edges can reference endpoints by name.
func Load(ctx context.Context, storeClient store.GraphStore) error {
	if err := storeClient.ClearGraph(ctx); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}

	idsByName := make(map[string]string, len(sampleNodes))
	nodes := make([]store.NodeRecord, 0, len(sampleNodes))
	for _, sample := range sampleNodes {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate node id: %w", err)
		}
		name, _ := sample.Props["name"].(string)
		idsByName[name] = id
		nodes = append(nodes, store.NodeRecord{
			PublicID:   id,
			Label:      sample.Label,
			Properties: sample.Props,
		})
	}

	if err := storeClient.SaveNodes(ctx, nodes); err != nil {
		return fmt.Errorf("failed to save sample nodes: %w", err)
	}
	logger.Info("[Seed] Nodes created", "count", len(nodes))

	edges := make([]store.EdgeRecord, 0, len(sampleEdges))
	for _, sample := range sampleEdges {
		sourceID, ok := idsByName[sample.Source]
		if !ok {
			return fmt.Errorf("sample edge references unknown node %q", sample.Source)
		}
		targetID, ok := idsByName[sample.Target]
		if !ok {
			return fmt.Errorf("sample edge references unknown node %q", sample.Target)
		}
		props := sample.Props
		if props == nil {
			props = map[string]any{}
		}
		edges = append(edges, store.EdgeRecord{
			SourcePublicID: sourceID,
			TargetPublicID: targetID,
			Type:           sample.Type,
			Properties:     props,
		})
	}

	if err := storeClient.SaveEdges(ctx, edges); err != nil {
		return fmt.Errorf("failed to save sample relationships: %w", err)
	}
	logger.Info("[Seed] Relationships created", "count", len(edges))

	return nil
}
