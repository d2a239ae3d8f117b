package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const nodeColumns = `node_ref, node_type, COALESCE(site_id, ''), COALESCE(container, ''), name, properties, created_at, updated_at`

// GetNode returns sql.ErrNoRows when the node does not exist.
func (s *PostgresStore) GetNode(ctx context.Context, nodeRef string) (Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE node_ref = $1`, nodeRef)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, err
		}
		return Node{}, fmt.Errorf("get node %s: %w", nodeRef, err)
	}
	return node, nil
}

// FindNodeRef translates a name inside a site container (a blog post id or a
// link id) into a node reference. It returns "" when nothing matches.
func (s *PostgresStore) FindNodeRef(ctx context.Context, siteID, container, name string) (string, error) {
	if strings.TrimSpace(siteID) == "" || strings.TrimSpace(container) == "" || strings.TrimSpace(name) == "" {
		return "", nil
	}
	var nodeRef string
	err := s.db.QueryRowContext(ctx, `
		SELECT node_ref FROM nodes
		WHERE site_id = $1 AND container = $2 AND name = $3
	`, siteID, container, name).Scan(&nodeRef)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find node ref: %w", err)
	}
	return nodeRef, nil
}

// ListContainerNodes returns every node that lives inside a site container.
func (s *PostgresStore) ListContainerNodes(ctx context.Context) ([]Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE site_id IS NOT NULL AND container IS NOT NULL
		ORDER BY site_id, container, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list container nodes: %w", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (s *PostgresStore) UpsertNode(ctx context.Context, node Node) error {
	properties := node.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (node_ref, node_type, site_id, container, name, properties)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6::jsonb)
		ON CONFLICT (node_ref) DO UPDATE SET
			node_type = EXCLUDED.node_type,
			site_id = EXCLUDED.site_id,
			container = EXCLUDED.container,
			name = EXCLUDED.name,
			properties = EXCLUDED.properties,
			updated_at = NOW()
	`, node.NodeRef, node.Type, node.SiteID, node.Container, node.Name, string(encoded))
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.NodeRef, err)
	}
	return nil
}

func (s *PostgresStore) DeleteNode(ctx context.Context, nodeRef string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE node_ref = $1`, nodeRef); err != nil {
		return fmt.Errorf("delete node %s: %w", nodeRef, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (Node, error) {
	var (
		node       Node
		properties []byte
	)
	if err := row.Scan(
		&node.NodeRef,
		&node.Type,
		&node.SiteID,
		&node.Container,
		&node.Name,
		&properties,
		&node.CreatedAt,
		&node.UpdatedAt,
	); err != nil {
		return Node{}, err
	}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &node.Properties); err != nil {
			return Node{}, fmt.Errorf("decode properties: %w", err)
		}
	}
	return node, nil
}
