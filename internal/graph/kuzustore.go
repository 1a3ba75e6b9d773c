//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path so the agreement graph survives across runs. KuzuDB creates the
// leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Position(
		id STRING,
		document STRING,
		kind STRING,
		layer_type STRING,
		feature STRING,
		role STRING,
		begin_offset INT64,
		end_offset INT64,
		covered_text STRING,
		status STRING,
		configurations INT64,
		resolved BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Configuration(
		id STRING,
		position_id STRING,
		document STRING,
		value STRING,
		votes INT64,
		accepted BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Annotator(
		name STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS AT(FROM Configuration TO Position)`,
	`CREATE REL TABLE IF NOT EXISTS VOTED(FROM Annotator TO Configuration)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddPosition upserts a Position node.
func (s *KuzuStore) AddPosition(_ context.Context, node PositionNode) error {
	return s.exec(
		`MERGE (p:Position {id: $id})
		 SET p.document = $doc,
			p.kind = $kind,
			p.layer_type = $type,
			p.feature = $feature,
			p.role = $role,
			p.begin_offset = $begin,
			p.end_offset = $end,
			p.covered_text = $text,
			p.status = $status,
			p.configurations = $configs,
			p.resolved = $resolved`,
		map[string]any{
			"id":       node.ID,
			"doc":      node.Document,
			"kind":     node.Kind,
			"type":     node.Type,
			"feature":  node.Feature,
			"role":     node.Role,
			"begin":    int64(node.Begin),
			"end":      int64(node.End),
			"text":     node.Text,
			"status":   string(node.Status),
			"configs":  int64(node.Configurations),
			"resolved": node.Resolved,
		},
	)
}

// AddConfiguration upserts a Configuration node and its AT edge.
func (s *KuzuStore) AddConfiguration(_ context.Context, node ConfigurationNode) error {
	ok, err := s.exists("MATCH (p:Position {id: $id}) RETURN p.id", node.PositionID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("graph: configuration %q: unknown position %q", node.ID, node.PositionID)
	}
	if err := s.exec(
		`MERGE (c:Configuration {id: $id})
		 SET c.position_id = $pos,
			c.document = $doc,
			c.value = $value,
			c.votes = $votes,
			c.accepted = $accepted`,
		map[string]any{
			"id":       node.ID,
			"pos":      node.PositionID,
			"doc":      node.Document,
			"value":    node.Value,
			"votes":    int64(node.Votes),
			"accepted": node.Accepted,
		},
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (c:Configuration {id: $src}), (p:Position {id: $dst})
		 MERGE (c)-[:AT]->(p)`,
		map[string]any{"src": node.ID, "dst": node.PositionID},
	)
}

// AddVote upserts the Annotator node and its VOTED edge.
func (s *KuzuStore) AddVote(_ context.Context, vote Vote) error {
	ok, err := s.exists("MATCH (c:Configuration {id: $id}) RETURN c.id", vote.ConfigurationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("graph: vote by %q: unknown configuration %q", vote.Annotator, vote.ConfigurationID)
	}
	if err := s.exec("MERGE (a:Annotator {name: $name})", map[string]any{"name": vote.Annotator}); err != nil {
		return err
	}
	return s.exec(
		`MATCH (a:Annotator {name: $src}), (c:Configuration {id: $dst})
		 MERGE (a)-[:VOTED]->(c)`,
		map[string]any{"src": vote.Annotator, "dst": vote.ConfigurationID},
	)
}

// DeleteDocument removes the positions and configurations of document.
func (s *KuzuStore) DeleteDocument(_ context.Context, document string) error {
	params := map[string]any{"doc": document}
	if err := s.exec("MATCH (c:Configuration) WHERE c.document = $doc DETACH DELETE c", params); err != nil {
		return err
	}
	return s.exec("MATCH (p:Position) WHERE p.document = $doc DETACH DELETE p", params)
}

// ---------- Read operations ----------

const positionColumns = `p.id, p.document, p.kind, p.layer_type, p.feature, p.role,
	p.begin_offset, p.end_offset, p.covered_text, p.status, p.configurations, p.resolved`

// GetPositions returns the Position nodes of document ordered by ID.
func (s *KuzuStore) GetPositions(_ context.Context, document string) ([]PositionNode, error) {
	rows, err := s.query(
		`MATCH (p:Position) WHERE $doc = '' OR p.document = $doc
		 RETURN `+positionColumns+` ORDER BY p.id`,
		map[string]any{"doc": document},
	)
	if err != nil {
		return nil, err
	}
	return rowsToPositions(rows), nil
}

// GetConfigurations returns the Configuration nodes AT a position.
func (s *KuzuStore) GetConfigurations(_ context.Context, positionID string) ([]ConfigurationNode, error) {
	rows, err := s.query(
		`MATCH (c:Configuration)-[:AT]->(p:Position {id: $id})
		 RETURN c.id, c.position_id, c.document, c.value, c.votes, c.accepted
		 ORDER BY c.id`,
		map[string]any{"id": positionID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]ConfigurationNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConfigurationNode{
			ID:         toString(r[0]),
			PositionID: toString(r[1]),
			Document:   toString(r[2]),
			Value:      toString(r[3]),
			Votes:      toInt(r[4]),
			Accepted:   toBool(r[5]),
		})
	}
	return out, nil
}

// GetVoters returns the names of annotators with a VOTED edge to the configuration.
func (s *KuzuStore) GetVoters(_ context.Context, configurationID string) ([]string, error) {
	rows, err := s.query(
		`MATCH (a:Annotator)-[:VOTED]->(c:Configuration {id: $id})
		 RETURN a.name ORDER BY a.name`,
		map[string]any{"id": configurationID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// Disputed returns disputed Position nodes of document.
func (s *KuzuStore) Disputed(_ context.Context, document string, limit int) ([]PositionNode, error) {
	cypher := `MATCH (p:Position) WHERE p.status = $status AND ($doc = '' OR p.document = $doc)
		 RETURN ` + positionColumns + ` ORDER BY p.id`
	params := map[string]any{"doc": document, "status": string(StatusDisputed)}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	return rowsToPositions(rows), nil
}

// Agreements walks Annotator-VOTED-Configuration-VOTED-Annotator paths.
func (s *KuzuStore) Agreements(_ context.Context, document string) ([]Agreement, error) {
	rows, err := s.query(
		`MATCH (a:Annotator)-[:VOTED]->(c:Configuration)<-[:VOTED]-(b:Annotator)
		 WHERE a.name < b.name AND ($doc = '' OR c.document = $doc)
		 RETURN a.name, b.name, count(c)`,
		map[string]any{"doc": document},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Agreement, 0, len(rows))
	for _, r := range rows {
		out = append(out, Agreement{A: toString(r[0]), B: toString(r[1]), Shared: toInt(r[2])})
	}
	sortAgreements(out)
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of all node tables, votes and disputed positions.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	positions, err := s.count("MATCH (n:Position) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	configs, err := s.count("MATCH (n:Configuration) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	annotators, err := s.count("MATCH (n:Annotator) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	votes, err := s.count("MATCH ()-[r:VOTED]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	disputed, err := s.count(
		"MATCH (p:Position) WHERE p.status = $status RETURN count(p)",
		map[string]any{"status": string(StatusDisputed)},
	)
	if err != nil {
		return nil, err
	}
	return &Stats{
		PositionCount:      positions,
		ConfigurationCount: configs,
		AnnotatorCount:     annotators,
		VoteCount:          votes,
		DisputedCount:      disputed,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// exists reports whether a lookup by $id returns a row.
func (s *KuzuStore) exists(cypher, id string) (bool, error) {
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// rowsToPositions converts rows selected with positionColumns.
func rowsToPositions(rows [][]any) []PositionNode {
	out := make([]PositionNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, PositionNode{
			ID:             toString(r[0]),
			Document:       toString(r[1]),
			Kind:           toString(r[2]),
			Type:           toString(r[3]),
			Feature:        toString(r[4]),
			Role:           toString(r[5]),
			Begin:          toInt(r[6]),
			End:            toInt(r[7]),
			Text:           toString(r[8]),
			Status:         Status(toString(r[9])),
			Configurations: toInt(r[10]),
			Resolved:       toBool(r[11]),
		})
	}
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
