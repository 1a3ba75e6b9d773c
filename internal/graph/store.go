package graph

import (
	"context"
	"io"
)

// Store is the interface for the agreement graph backend.
// Implementations: KuzuStore (production), MemStore (testing).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Adding a node whose ID exists replaces it.
	AddPosition(ctx context.Context, node PositionNode) error
	AddConfiguration(ctx context.Context, node ConfigurationNode) error
	AddVote(ctx context.Context, vote Vote) error

	// DeleteDocument removes every position and configuration of document
	// together with their edges. Annotator nodes are kept.
	DeleteDocument(ctx context.Context, document string) error

	// Read operations. An empty document selects all documents.
	GetPositions(ctx context.Context, document string) ([]PositionNode, error)
	GetConfigurations(ctx context.Context, positionID string) ([]ConfigurationNode, error)
	GetVoters(ctx context.Context, configurationID string) ([]string, error)

	// Disputed returns disputed positions of document in ID order, at most
	// limit of them when limit > 0.
	Disputed(ctx context.Context, document string, limit int) ([]PositionNode, error)

	// Agreements returns, for every annotator pair, the number of
	// configurations both voted for.
	Agreements(ctx context.Context, document string) ([]Agreement, error)

	// Stats.
	Stats(ctx context.Context) (*Stats, error)
}
