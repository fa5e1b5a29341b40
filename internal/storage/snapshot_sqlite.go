package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/tree"
)

// createSnapshotSchema creates the tables holding the last saved tree per model.
func createSnapshotSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshot_nodes (
			model TEXT NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			name TEXT NOT NULL,
			is_root INTEGER NOT NULL,
			is_leaf INTEGER NOT NULL,
			value REAL,
			children INTEGER NOT NULL,
			PRIMARY KEY (model, label)
		);

		CREATE TABLE IF NOT EXISTS snapshot_edges (
			model TEXT NOT NULL,
			position INTEGER NOT NULL,
			parent TEXT NOT NULL,
			child TEXT NOT NULL,
			PRIMARY KEY (model, parent, child)
		);

		CREATE INDEX IF NOT EXISTS idx_snapshot_edges_child ON snapshot_edges(model, child);

		-- Full-text search over node labels across every stored model
		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			model UNINDEXED,
			label
		);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceSnapshot stores snap as the current tree for model, replacing any
// earlier snapshot of the same model.
func (d *DB) ReplaceSnapshot(model string, snap tree.Snapshot) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_nodes", "snapshot_edges", "nodes_fts"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE model = ?", model); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare(`
		INSERT INTO snapshot_nodes (model, position, label, name, is_root, is_leaf, value, children)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO nodes_fts (model, label) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, n := range snap.Nodes {
		name := n.Name
		if name == "" {
			name = n.Label
		}
		var value any
		if n.Value != nil {
			value = *n.Value
		}
		if _, err := nodeStmt.Exec(model, i, n.Label, name, n.Root, n.Leaf, value, n.Children); err != nil {
			return fmt.Errorf("inserting node %q: %w", n.Label, err)
		}
		if _, err := ftsStmt.Exec(model, n.Label); err != nil {
			return fmt.Errorf("inserting fts for %q: %w", n.Label, err)
		}
	}

	edgeStmt, err := tx.Prepare(`
		INSERT INTO snapshot_edges (model, position, parent, child)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for i, e := range snap.Edges {
		if _, err := edgeStmt.Exec(model, i, e.Parent, e.Child); err != nil {
			return fmt.Errorf("inserting edge %s -> %s: %w", e.Parent, e.Child, err)
		}
	}

	return tx.Commit()
}

// GetSnapshotNodes returns the stored nodes of model in insertion order.
func (d *DB) GetSnapshotNodes(model string) ([]tree.NodeInfo, error) {
	rows, err := d.db.Query(`
		SELECT label, name, is_root, is_leaf, value, children
		FROM snapshot_nodes
		WHERE model = ?
		ORDER BY position
	`, model)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []tree.NodeInfo
	for rows.Next() {
		var n tree.NodeInfo
		var value sql.NullFloat64
		if err := rows.Scan(&n.Label, &n.Name, &n.Root, &n.Leaf, &value, &n.Children); err != nil {
			return nil, err
		}
		if n.Name == n.Label {
			n.Name = ""
		}
		if value.Valid {
			v := value.Float64
			n.Value = &v
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// GetEdges returns the stored edges of model in insertion order.
func (d *DB) GetEdges(model string) ([]edge.Edge, error) {
	rows, err := d.db.Query(`
		SELECT parent, child
		FROM snapshot_edges
		WHERE model = ?
		ORDER BY position
	`, model)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// GetParents returns the parents of label in model.
func (d *DB) GetParents(model, label string) ([]edge.Edge, error) {
	rows, err := d.db.Query(`
		SELECT parent, child
		FROM snapshot_edges
		WHERE model = ? AND child = ?
		ORDER BY position
	`, model, label)
	if err != nil {
		return nil, fmt.Errorf("querying parents: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// GetLeafValues returns the recorded values of model keyed by label.
func (d *DB) GetLeafValues(model string) (map[string]float64, error) {
	rows, err := d.db.Query(`
		SELECT label, value
		FROM snapshot_nodes
		WHERE model = ? AND value IS NOT NULL
	`, model)
	if err != nil {
		return nil, fmt.Errorf("querying leaf values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var label string
		var v float64
		if err := rows.Scan(&label, &v); err != nil {
			return nil, err
		}
		values[label] = v
	}
	return values, rows.Err()
}

// ListModels returns every model with a stored snapshot, sorted by name.
func (d *DB) ListModels() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT model FROM snapshot_nodes ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// NodeMatch is a label found by SearchNodes.
type NodeMatch struct {
	Model string `json:"model"`
	Label string `json:"label"`
}

// SearchNodes performs a full-text search over stored node labels.
func (d *DB) SearchNodes(query string, limit int) ([]NodeMatch, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT model, label
		FROM nodes_fts
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	defer rows.Close()

	var matches []NodeMatch
	for rows.Next() {
		var m NodeMatch
		if err := rows.Scan(&m.Model, &m.Label); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]edge.Edge, error) {
	var edges []edge.Edge
	for rows.Next() {
		var e edge.Edge
		if err := rows.Scan(&e.Parent, &e.Child); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// prepareFTSQuery quotes queries containing FTS5 syntax characters so they
// match literally.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~/%") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
