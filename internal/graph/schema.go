package graph

// --- Enums ---

// Status classifies a position by how its annotators voted.
type Status string

const (
	StatusAgreed     Status = "agreed"     // one configuration, every annotator voted
	StatusIncomplete Status = "incomplete" // one configuration, some annotators missing
	StatusDisputed   Status = "disputed"   // more than one configuration
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindAt    EdgeKind = "AT"    // Configuration -> Position
	EdgeKindVoted EdgeKind = "VOTED" // Annotator -> Configuration
)

// --- Models ---

// PositionNode is one compared position of one document.
type PositionNode struct {
	ID             string `json:"id"`
	Document       string `json:"document"`
	Kind           string `json:"kind"`
	Type           string `json:"type"`
	Feature        string `json:"feature,omitempty"`
	Role           string `json:"role,omitempty"`
	Begin          int    `json:"begin"`
	End            int    `json:"end"`
	Text           string `json:"text,omitempty"`
	Status         Status `json:"status"`
	Configurations int    `json:"configurations"`
	Resolved       bool   `json:"resolved"` // a merge strategy accepted a configuration
}

// ConfigurationNode is one distinct value observed at a position.
type ConfigurationNode struct {
	ID         string `json:"id"`
	PositionID string `json:"positionId"`
	Document   string `json:"document"`
	Value      string `json:"value"`
	Votes      int    `json:"votes"`
	Accepted   bool   `json:"accepted"`
}

// Vote connects an annotator to the configuration they produced.
type Vote struct {
	Annotator       string `json:"annotator"`
	ConfigurationID string `json:"configurationId"`
}

// Agreement counts the configurations two annotators both voted for.
type Agreement struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Shared int    `json:"shared"`
}

// Stats summarizes an agreement graph.
type Stats struct {
	PositionCount      int `json:"positionCount"`
	ConfigurationCount int `json:"configurationCount"`
	AnnotatorCount     int `json:"annotatorCount"`
	VoteCount          int `json:"voteCount"`
	DisputedCount      int `json:"disputedCount"`
}

// configurationID derives a configuration ID from its position and value.
func configurationID(positionID, value string) string {
	return positionID + "#" + value
}

// positionID scopes a position key to its document.
func positionID(document, key string) string {
	return document + "/" + key
}
