// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-resolver/internal/evidence"
	"github.com/pdiddy/paper-resolver/internal/outcome"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

// Export is a stored session in full.
type Export struct {
	SessionInfo `yaml:",inline"`
	Metadata    types.Metadata   `json:"metadata" yaml:"metadata"`
	Summary     *outcome.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Events      []types.Event         `json:"events" yaml:"events"`
	Evidence    []Evidence            `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Retractions []evidence.Retraction `json:"retractions,omitempty" yaml:"retractions,omitempty"`
}

// Evidence is one stored evidence entry. Hidden marks an entry that a
// later retraction of its key removed from selection.
type Evidence struct {
	types.Evidence `yaml:",inline"`
	Hidden         bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Load reads a stored session by ID.
func (s *Store) Load(ctx context.Context, id string) (*Export, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`, s.metadata, s.summary FROM sessions s WHERE s.id = ?`, id)

	var (
		exp          Export
		metadataJSON string
		summaryJSON  sql.NullString
	)
	info, err := scanSession(row, &metadataJSON, &summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	exp.SessionInfo = info

	if err := json.Unmarshal([]byte(metadataJSON), &exp.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	if summaryJSON.Valid {
		exp.Summary = &outcome.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), exp.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}
	}

	if exp.Events, err = s.events(ctx, id); err != nil {
		return nil, err
	}
	if exp.Retractions, err = s.retractions(ctx, id); err != nil {
		return nil, err
	}
	if exp.Evidence, err = s.evidence(ctx, id, exp.Retractions); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (s *Store) events(ctx context.Context, id string) ([]types.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT component, method, category, message FROM events WHERE session_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var (
			e        types.Event
			category string
			message  sql.NullString
		)
		if err := rows.Scan(&e.Component, &e.Method, &category, &message); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Category = types.Category(category)
		e.Message = message.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) retractions(ctx context.Context, id string) ([]evidence.Retraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, field, whence, recorded FROM retractions WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying retractions: %w", err)
	}
	defer rows.Close()

	var out []evidence.Retraction
	for rows.Next() {
		var (
			r        evidence.Retraction
			recorded string
		)
		if err := rows.Scan(&r.Seq, &r.Key, &r.Whence, &recorded); err != nil {
			return nil, fmt.Errorf("scanning retraction: %w", err)
		}
		r.When, _ = time.Parse(types.WhenLayout, recorded)
		out = append(out, r)
	}
	return out, rows.Err()
}

// evidence reads the stored entries, marking those a retraction hides.
func (s *Store) evidence(ctx context.Context, id string, retractions []evidence.Retraction) ([]Evidence, error) {
	hiddenBelow := make(map[string]int, len(retractions))
	for _, r := range retractions {
		if r.Seq > hiddenBelow[r.Key] {
			hiddenBelow[r.Key] = r.Seq
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, field, value, list, link, whence, weight, recorded
		FROM evidence WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying evidence: %w", err)
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		var (
			e                 types.Evidence
			value, list, link sql.NullString
			recorded          string
		)
		if err := rows.Scan(&e.Seq, &e.Key, &value, &list, &link, &e.Whence, &e.Weight, &recorded); err != nil {
			return nil, fmt.Errorf("scanning evidence: %w", err)
		}
		e.Value = value.String
		if list.Valid {
			_ = json.Unmarshal([]byte(list.String), &e.List)
		}
		if link.Valid {
			e.Link = &types.Link{}
			_ = json.Unmarshal([]byte(link.String), e.Link)
		}
		e.When, _ = time.Parse(types.WhenLayout, recorded)
		out = append(out, Evidence{Evidence: e, Hidden: e.Seq < hiddenBelow[e.Key]})
	}
	return out, rows.Err()
}

// ExportYAML writes a stored session as YAML. Raw registry blobs are
// included only when withEvidence is set.
func (s *Store) ExportYAML(ctx context.Context, id string, withEvidence bool, w io.Writer) error {
	exp, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if !withEvidence {
		exp.Evidence, exp.Retractions = nil, nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exp); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
