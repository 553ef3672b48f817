package learnstore

import (
	"database/sql"
	"fmt"
	"strings"
)

// Namespace is a node in the pattern scoping hierarchy, e.g.
// project:backend:auth → project:backend → project → root. Hierarchy is
// explicit: a namespace's parent is registered, never inferred from the name.
type Namespace struct {
	Name            string `json:"name"`
	ParentNamespace string `json:"parent_namespace,omitempty"`
	Description     string `json:"description,omitempty"`
}

// namespaceHopLimit bounds parent-chain resolution. Ten levels is far
// beyond any sane hierarchy; hitting it means the data contains a cycle.
const namespaceHopLimit = 10

// rootNamespace is the implicit chain terminator, always appended.
const rootNamespace = "root"

// CreateNamespace registers a namespace with an optional parent. The parent
// must already exist; a duplicate name is InvalidInput.
func (s *Store) CreateNamespace(name, parent, description string) (*Namespace, error) {
	name = normalizeNamespace(name)
	if name == rootNamespace {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidInput, rootNamespace)
	}
	parent = strings.TrimSpace(strings.ToLower(parent))
	if parent == name {
		return nil, fmt.Errorf("%w: namespace cannot be its own parent", ErrInvalidInput)
	}
	if parent != "" && parent != rootNamespace {
		if _, err := s.GetNamespace(parent); err != nil {
			return nil, err
		}
	}

	var parentCol any
	if parent != "" && parent != rootNamespace {
		parentCol = parent
	}
	_, err := s.execHook(s.db,
		`INSERT INTO namespaces (name, parent_namespace, description) VALUES (?, ?, ?)`,
		name, parentCol, strings.TrimSpace(description),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: namespace %q already exists", ErrInvalidInput, name)
		}
		return nil, fmt.Errorf("learnstore: create namespace: %w", err)
	}
	return &Namespace{Name: name, ParentNamespace: parent, Description: strings.TrimSpace(description)}, nil
}

// GetNamespace retrieves a registered namespace by name.
func (s *Store) GetNamespace(name string) (*Namespace, error) {
	name = normalizeNamespace(name)
	var ns Namespace
	var parent sql.NullString
	var desc sql.NullString
	err := s.db.QueryRow(
		`SELECT name, parent_namespace, description FROM namespaces WHERE name = ?`, name,
	).Scan(&ns.Name, &parent, &desc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: namespace %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("learnstore: get namespace: %w", err)
	}
	ns.ParentNamespace = parent.String
	ns.Description = desc.String
	return &ns, nil
}

// ListNamespaces returns all registered namespaces, sorted by name.
func (s *Store) ListNamespaces() ([]Namespace, error) {
	rows, err := s.queryHook(s.db,
		`SELECT name, parent_namespace, description FROM namespaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("learnstore: list namespaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Namespace
	for rows.Next() {
		var ns Namespace
		var parent, desc sql.NullString
		if err := rows.Scan(&ns.Name, &parent, &desc); err != nil {
			return nil, err
		}
		ns.ParentNamespace = parent.String
		ns.Description = desc.String
		out = append(out, ns)
	}
	return out, rows.Err()
}

// ResolveChain expands a namespace into its inheritance chain, most specific
// first, with the "root" sentinel appended. An unregistered namespace is a
// standalone leaf ([name, "root"]), so callers need zero configuration to
// use "default". A parent chain longer than the hop limit means cyclic data
// and returns ErrCycleDetected.
func (s *Store) ResolveChain(name string) ([]string, error) {
	name = normalizeNamespace(name)
	if name == rootNamespace {
		return []string{rootNamespace}, nil
	}

	chain := []string{name}
	current := name
	for hops := 0; ; hops++ {
		if hops >= namespaceHopLimit {
			return nil, fmt.Errorf("%w: namespace chain from %q exceeds %d hops", ErrCycleDetected, name, namespaceHopLimit)
		}
		var parent sql.NullString
		err := s.db.QueryRow(
			`SELECT parent_namespace FROM namespaces WHERE name = ?`, current,
		).Scan(&parent)
		if err == sql.ErrNoRows {
			// Unregistered (or a registered ancestor missing its row):
			// the chain ends here.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("learnstore: resolve chain: %w", err)
		}
		if !parent.Valid || parent.String == "" || parent.String == rootNamespace {
			break
		}
		chain = append(chain, parent.String)
		current = parent.String
	}

	return append(chain, rootNamespace), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
