package retriever

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atlas-cmdb/backend/pkg/graph"
)

// FormatContext renders a retrieval result as the text context handed to a
// generator. It is the only channel through which the generator sees graph
// facts: a "Nodes" section with one line per node plus its properties, and
// a "Relationships" section rendering each edge as
// "<source> -[TYPE]-> <target>".
//
// A relationship whose endpoint cannot be resolved in the node list is
// dropped from the text only; it stays in the structured result.
func FormatContext(result *graph.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("# Graph Context\n\n")

	b.WriteString("## Nodes:")
	for _, node := range result.Nodes {
		labels := strings.Join(node.Labels, ":")
		fmt.Fprintf(&b, "\n- [%s] %s", labels, node.BestName())

		keys := make([]string, 0, len(node.Properties))
		for key := range node.Properties {
			if key == "name" || key == "embedding" || key == "description" {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "\n  - %s: %v", key, node.Properties[key])
		}
	}

	if len(result.Relationships) > 0 {
		names := make(map[string]string, len(result.Nodes))
		for _, node := range result.Nodes {
			names[node.ID] = relationshipName(node)
		}

		b.WriteString("\n\n## Relationships:")
		for _, rel := range result.Relationships {
			sourceName, sourceOK := names[rel.SourceID]
			targetName, targetOK := names[rel.TargetID]
			if !sourceOK || !targetOK {
				continue
			}
			fmt.Fprintf(&b, "\n- %s -[%s]-> %s", sourceName, rel.Type, targetName)
		}
	}

	return b.String()
}

func relationshipName(node graph.Node) string {
	if name, ok := node.Properties["name"].(string); ok && name != "" {
		return name
	}
	return "Node"
}
