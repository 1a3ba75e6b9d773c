package mcptools

import (
	"github.com/dusk-indust/curate/internal/export"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/dusk-indust/curate/internal/status"
)

// --- diff_document ---

// DiffDocumentInput is the input for the diff_document tool.
type DiffDocumentInput struct {
	Document      string `json:"document" jsonschema:"the name of the stored document to diff"`
	IncludeAgreed bool   `json:"includeAgreed,omitempty" jsonschema:"also return positions every annotator agreed on (default: false)"`
}

// DiffDocumentOutput is the output of the diff_document tool.
type DiffDocumentOutput struct {
	Status    status.DocumentStatus   `json:"status"`
	Positions []export.PositionExport `json:"positions"`
	Skipped   []string                `json:"skipped,omitempty"`
}

// --- merge_document ---

// MergeDocumentInput is the input for the merge_document tool.
type MergeDocumentInput struct {
	Document string        `json:"document" jsonschema:"the name of the stored document to merge"`
	Strategy *merge.Traits `json:"strategy,omitempty" jsonschema:"merge strategy overriding the project default. Names: threshold, complete-agreement, incomplete, manual"`
	DryRun   bool          `json:"dryRun,omitempty" jsonschema:"compute the merge without saving the curated collection"`
}

// MergeDocumentOutput is the output of the merge_document tool.
type MergeDocumentOutput struct {
	Document    string `json:"document"`
	RunID       string `json:"runId"`
	Strategy    string `json:"strategy"`
	Accepted    int    `json:"accepted"`
	Disputed    int    `json:"disputed"`
	Rejected    int    `json:"rejected"`
	Annotations int    `json:"annotations"`
	Saved       bool   `json:"saved"`
	Cached      bool   `json:"cached"`
}

// --- agreement_status ---

// AgreementStatusInput is the input for the agreement_status tool.
type AgreementStatusInput struct {
	Document string `json:"document,omitempty" jsonschema:"the document to report on (default: all documents)"`
}

// AgreementStatusOutput is the output of the agreement_status tool.
type AgreementStatusOutput struct {
	Documents []status.DocumentStatus `json:"documents"`
}

// --- list_disputes ---

// ListDisputesInput is the input for the list_disputes tool.
type ListDisputesInput struct {
	Document string `json:"document,omitempty" jsonschema:"the document to list disputes of (default: all documents)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of disputed positions to return (default: 50)"`
}

// ListDisputesOutput is the output of the list_disputes tool.
type ListDisputesOutput struct {
	Disputes []Dispute `json:"disputes"`
}

// Dispute is a recorded position with more than one configuration.
type Dispute struct {
	Position       graph.PositionNode `json:"position"`
	Configurations []DisputedValue     `json:"configurations"`
}

// DisputedValue is one configuration of a dispute and who voted for it.
type DisputedValue struct {
	Value      string   `json:"value"`
	Votes      int      `json:"votes"`
	Annotators []string `json:"annotators"`
	Accepted   bool     `json:"accepted"`
}
