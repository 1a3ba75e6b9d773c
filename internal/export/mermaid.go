package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/curate/internal/graph"
)

// MaxDiagramDisputes caps the disputed positions drawn in one diagram.
const MaxDiagramDisputes = 20

// GenerateMermaid produces a Mermaid graph LR diagram from an agreement
// graph. Annotators are nodes and shared votes label the edges between
// them; each disputed position becomes a subgraph of its configurations
// with arrows from the annotators who voted for them. An empty document
// selects all documents.
func GenerateMermaid(ctx context.Context, store graph.Store, document string) (string, error) {
	agreements, err := store.Agreements(ctx, document)
	if err != nil {
		return "", fmt.Errorf("get agreements: %w", err)
	}
	disputed, err := store.Disputed(ctx, document, MaxDiagramDisputes)
	if err != nil {
		return "", fmt.Errorf("get disputed positions: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}
	annotator := func(sb *strings.Builder, name string) string {
		key := "annotator:" + name
		if _, ok := nodeIDs[key]; !ok {
			fmt.Fprintf(sb, "  %s([\"%s\"])\n", getID(key), label(name))
		}
		return nodeIDs[key]
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, a := range agreements {
		from := annotator(&sb, a.A)
		to := annotator(&sb, a.B)
		fmt.Fprintf(&sb, "  %s ---|%d| %s\n", from, a.Shared, to)
	}

	for _, p := range disputed {
		configs, err := store.GetConfigurations(ctx, p.ID)
		if err != nil {
			return "", fmt.Errorf("get configurations: %w", err)
		}
		title := fmt.Sprintf("%s %d-%d", p.Type, p.Begin, p.End)
		if p.Text != "" {
			title += " " + p.Text
		}
		if p.Feature != "" {
			title += " " + p.Feature
		}
		fmt.Fprintf(&sb, "  subgraph %s[\"%.60s\"]\n", getID("position:"+p.ID), label(title))
		for _, c := range configs {
			fmt.Fprintf(&sb, "    %s[\"%s (%d)\"]\n", getID("config:"+c.ID), label(c.Value), c.Votes)
		}
		sb.WriteString("  end\n")

		for _, c := range configs {
			voters, err := store.GetVoters(ctx, c.ID)
			if err != nil {
				return "", fmt.Errorf("get voters: %w", err)
			}
			for _, v := range voters {
				fmt.Fprintf(&sb, "  %s --> %s\n", annotator(&sb, v), getID("config:"+c.ID))
			}
		}
	}

	return sb.String(), nil
}

// label escapes characters Mermaid treats as syntax inside quoted labels.
func label(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "\n", " ").Replace(s)
}
