package learnstore

import (
	"fmt"
	"sort"
	"strings"
)

// CausalLink is a directed cause→effect edge with an evidence-weighted
// confidence. Nodes are free-text event descriptions, not pattern rows, so
// the graph can relate anything the agent observed.
type CausalLink struct {
	LinkID        int64   `json:"link_id"`
	Cause         string  `json:"cause"`
	Effect        string  `json:"effect"`
	LinkType      string  `json:"link_type"`
	Confidence    float64 `json:"confidence"`
	EvidenceCount int     `json:"evidence_count"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ChainPath is one causal path ending at the queried effect, ordered
// root cause first.
type ChainPath struct {
	// Steps are the node descriptions along the path, cause → ... → effect.
	Steps []string `json:"steps"`
	// Links are the edges between consecutive steps.
	Links []CausalLink `json:"links"`
	// MeanConfidence is the average edge confidence along the path.
	MeanConfidence float64 `json:"mean_confidence"`
}

// maxChainDepth is the hard recursion guard for chain traversal.
const maxChainDepth = 5

// AddOrReinforceLink records one observation of a cause→effect relationship.
// The first observation creates the edge with the blend applied to the
// neutral prior; later observations pull the confidence toward the observed
// outcome and bump the evidence count. Single statement, so concurrent
// reinforcements of the same edge serialize inside SQLite.
func (s *Store) AddOrReinforceLink(cause, effect, linkType string, observedSuccess bool) (*CausalLink, error) {
	cause = strings.TrimSpace(cause)
	effect = strings.TrimSpace(effect)
	if cause == "" || effect == "" {
		return nil, fmt.Errorf("%w: cause and effect are required", ErrInvalidInput)
	}
	linkType = strings.TrimSpace(strings.ToLower(linkType))
	if linkType == "" {
		linkType = "causal"
	}

	// The ON CONFLICT branch applies the same blend in SQL:
	// new = clamp(old*0.9 + 0.1*target).
	target := 0.0
	if observedSuccess {
		target = 1.0
	}

	row := s.db.QueryRow(
		`INSERT INTO causal_links (cause, effect, link_type, confidence)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cause, effect, link_type) DO UPDATE SET
			confidence     = max(0.0, min(1.0, confidence * ? + ? * ?)),
			evidence_count = evidence_count + 1,
			updated_at     = datetime('now')
		 RETURNING link_id, cause, effect, link_type, confidence, evidence_count, created_at, updated_at`,
		cause, effect, linkType, BlendCausal(neutralPrior, observedSuccess),
		causalKeep, causalGain, target,
	)

	var l CausalLink
	if err := row.Scan(
		&l.LinkID, &l.Cause, &l.Effect, &l.LinkType, &l.Confidence,
		&l.EvidenceCount, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("learnstore: add causal link: %w", err)
	}
	return &l, nil
}

// LinksTo returns the edges whose effect matches the given description,
// strongest first.
func (s *Store) LinksTo(effect string) ([]CausalLink, error) {
	effect = strings.TrimSpace(effect)
	if effect == "" {
		return nil, fmt.Errorf("%w: effect is required", ErrInvalidInput)
	}
	rows, err := s.queryHook(s.db, `
		SELECT link_id, cause, effect, link_type, confidence, evidence_count, created_at, updated_at
		FROM causal_links
		WHERE effect = ?
		ORDER BY confidence DESC, evidence_count DESC`, effect,
	)
	if err != nil {
		return nil, fmt.Errorf("learnstore: links to: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []CausalLink
	for rows.Next() {
		var l CausalLink
		if err := rows.Scan(
			&l.LinkID, &l.Cause, &l.Effect, &l.LinkType, &l.Confidence,
			&l.EvidenceCount, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Chain walks the graph backward from targetEffect and returns the maximal
// causal paths leading to it, ordered by mean edge confidence descending.
// Depth is clamped to [1, 5]; each path carries its own visited set, so
// cyclic data terminates without error. An effect with no incoming edges
// yields no paths.
func (s *Store) Chain(targetEffect string, maxDepth int) ([]ChainPath, error) {
	targetEffect = strings.TrimSpace(targetEffect)
	if targetEffect == "" {
		return nil, fmt.Errorf("%w: effect is required", ErrInvalidInput)
	}
	if maxDepth <= 0 || maxDepth > maxChainDepth {
		maxDepth = maxChainDepth
	}

	// Load the incoming-edge index once; the graph is small and local.
	rows, err := s.queryHook(s.db, `
		SELECT link_id, cause, effect, link_type, confidence, evidence_count, created_at, updated_at
		FROM causal_links
		ORDER BY confidence DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("learnstore: chain: %w", err)
	}
	defer func() { _ = rows.Close() }()

	incoming := make(map[string][]CausalLink)
	for rows.Next() {
		var l CausalLink
		if err := rows.Scan(
			&l.LinkID, &l.Cause, &l.Effect, &l.LinkType, &l.Confidence,
			&l.EvidenceCount, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		incoming[l.Effect] = append(incoming[l.Effect], l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var paths []ChainPath
	visited := map[string]bool{targetEffect: true}
	s.walkCauses(incoming, targetEffect, nil, visited, maxDepth, &paths)

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].MeanConfidence > paths[j].MeanConfidence
	})
	return paths, nil
}

// walkCauses extends the current path (edges effect-side first) backward
// from node. A path is emitted when it cannot be extended further, so only
// maximal paths are reported.
func (s *Store) walkCauses(incoming map[string][]CausalLink, node string, path []CausalLink, visited map[string]bool, depth int, out *[]ChainPath) {
	extended := false
	if depth > 0 {
		for _, edge := range incoming[node] {
			if visited[edge.Cause] {
				continue
			}
			extended = true
			visited[edge.Cause] = true
			s.walkCauses(incoming, edge.Cause, append(path, edge), visited, depth-1, out)
			delete(visited, edge.Cause)
		}
	}
	if extended || len(path) == 0 {
		return
	}

	// path is ordered effect-side first; reverse into cause → effect order.
	links := make([]CausalLink, len(path))
	sum := 0.0
	for i, edge := range path {
		links[len(path)-1-i] = edge
		sum += edge.Confidence
	}
	steps := make([]string, 0, len(links)+1)
	steps = append(steps, links[0].Cause)
	for _, l := range links {
		steps = append(steps, l.Effect)
	}
	*out = append(*out, ChainPath{
		Steps:          steps,
		Links:          links,
		MeanConfidence: sum / float64(len(links)),
	})
}
