// Package fallback provides a deterministic, rule-based answer generator.
// It pattern-matches over the formatted graph context and never calls a
// network. Generation cannot fail, which the signature guarantees: there
// is no error return.
package fallback

import "strings"

const maxGenericLines = 10

// RuleBasedGenerator produces answers from the graph context text alone.
// The zero value is ready to use and safe for concurrent use.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator returns a new RuleBasedGenerator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// Generate builds an answer for the question from the formatted context.
// It is a total function: for any input it returns a non-empty answer.
func (g *RuleBasedGenerator) Generate(question string, contextText string) string {
	questionLower := strings.ToLower(question)
	lines := strings.Split(contextText, "\n")

	switch {
	case strings.Contains(questionLower, "located") || strings.Contains(questionLower, "location"):
		for _, line := range lines {
			if strings.Contains(line, "LOCATED_IN") || strings.Contains(line, "Location") {
				return "Based on the graph data: " + strings.TrimSpace(line)
			}
		}

	case strings.Contains(questionLower, "break") ||
		strings.Contains(questionLower, "depend") ||
		strings.Contains(questionLower, "down"):
		deps := collectLines(lines, func(line string) bool {
			return strings.Contains(line, "DEPENDS_ON")
		}, 0)
		if len(deps) > 0 {
			return "Based on the dependency graph:\n" + strings.Join(deps, "\n")
		}

	case strings.Contains(questionLower, "own"):
		for _, line := range lines {
			if strings.Contains(line, "OWNS") || strings.Contains(line, "User") {
				return "Based on the ownership data: " + strings.TrimSpace(line)
			}
		}

	case strings.Contains(questionLower, "service") && strings.Contains(questionLower, "running"):
		services := collectLines(lines, func(line string) bool {
			return strings.Contains(line, "Service") || strings.Contains(line, "RUNS_ON")
		}, 5)
		if len(services) > 0 {
			return "Based on the graph:\n" + strings.Join(services, "\n")
		}
	}

	// Generic response from whatever the context holds.
	relevant := collectLines(lines, func(line string) bool {
		trimmed := strings.TrimSpace(line)
		return trimmed != "" && !strings.HasPrefix(trimmed, "#")
	}, maxGenericLines)
	if len(relevant) > 0 {
		return "Based on the CMDB graph data:\n\n" + strings.Join(relevant, "\n")
	}

	return "I found some information in the graph. Please check the visualization on the right for details."
}

func collectLines(lines []string, match func(string) bool, limit int) []string {
	out := make([]string, 0)
	for _, line := range lines {
		if !match(line) {
			continue
		}
		out = append(out, strings.TrimSpace(line))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
