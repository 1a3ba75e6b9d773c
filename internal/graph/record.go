package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/curate/internal/diff"
)

// AcceptFunc reports which configurations of a set a merge strategy accepted.
type AcceptFunc func(set *diff.ConfigurationSet) []*diff.Configuration

// Record replaces the graph content of document with the configuration sets
// of result. accept may be nil, in which case no position is resolved.
func Record(ctx context.Context, st Store, document string, result *diff.Result, accept AcceptFunc) error {
	if err := st.DeleteDocument(ctx, document); err != nil {
		return fmt.Errorf("graph: reset %s: %w", document, err)
	}
	for _, set := range result.ConfigurationSets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := recordSet(ctx, st, document, set, accept); err != nil {
			return err
		}
	}
	return nil
}

func recordSet(ctx context.Context, st Store, document string, set *diff.ConfigurationSet, accept AcceptFunc) error {
	pos := set.Position()
	accepted := make(map[*diff.Configuration]bool)
	if accept != nil {
		for _, c := range accept(set) {
			accepted[c] = true
		}
	}

	node := PositionNode{
		ID:             positionID(document, pos.ID()),
		Document:       document,
		Kind:           string(pos.Kind),
		Type:           pos.Type,
		Feature:        pos.Feature,
		Role:           pos.Role,
		Begin:          pos.Begin,
		End:            pos.End,
		Text:           pos.Text,
		Status:         StatusOf(set),
		Configurations: set.Len(),
		Resolved:       len(accepted) > 0,
	}
	if err := st.AddPosition(ctx, node); err != nil {
		return fmt.Errorf("graph: add position %s: %w", node.ID, err)
	}

	for _, cfg := range set.Configurations() {
		value := cfg.Value().String()
		cn := ConfigurationNode{
			ID:         configurationID(node.ID, value),
			PositionID: node.ID,
			Document:   document,
			Value:      value,
			Votes:      cfg.Votes(),
			Accepted:   accepted[cfg],
		}
		if err := st.AddConfiguration(ctx, cn); err != nil {
			return fmt.Errorf("graph: add configuration %s: %w", cn.ID, err)
		}
		for _, annotator := range cfg.Annotators() {
			if err := st.AddVote(ctx, Vote{Annotator: annotator, ConfigurationID: cn.ID}); err != nil {
				return fmt.Errorf("graph: add vote: %w", err)
			}
		}
	}
	return nil
}

// StatusOf classifies a configuration set.
func StatusOf(set *diff.ConfigurationSet) Status {
	switch {
	case set.Len() > 1:
		return StatusDisputed
	case set.IsComplete():
		return StatusAgreed
	default:
		return StatusIncomplete
	}
}
