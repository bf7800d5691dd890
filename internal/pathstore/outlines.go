package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
)

const source = "docoutline"

// OutlineStore keeps outlines under outlines/<doc_id>/outline with a
// content-hash index at outlines/by_hash/<sha256>.
type OutlineStore struct {
	c *Client
}

func NewOutlineStore(c *Client) *OutlineStore {
	return &OutlineStore{c: c}
}

type storedOutline struct {
	Filename    string           `json:"filename"`
	ContentHash string           `json:"content_hash"`
	StoredAt    string           `json:"stored_at"`
	Outline     *doctree.Outline `json:"outline"`
}

type hashEntry struct {
	DocID string `json:"doc_id"`
}

func outlineKey(docID string) string { return "outlines/" + docID + "/outline" }
func hashKey(hash string) string     { return "outlines/by_hash/" + hash }

// FindByHash returns the doc id stored for hash, or "" when there is none.
func (s *OutlineStore) FindByHash(ctx context.Context, hash string) (string, error) {
	node, err := s.c.GetNode(ctx, hashKey(hash))
	if err != nil || node == nil {
		return "", err
	}
	var e hashEntry
	if err := json.Unmarshal(node.Value, &e); err != nil {
		return "", fmt.Errorf("decode hash entry: %w", err)
	}
	return e.DocID, nil
}

// SaveOutline writes the outline, then the hash index pointing at it.
func (s *OutlineStore) SaveOutline(ctx context.Context, docID, hash, filename string, o *doctree.Outline) error {
	err := s.c.PutNode(ctx, outlineKey(docID), NodeRequest{
		Value: storedOutline{
			Filename:    filename,
			ContentHash: hash,
			StoredAt:    time.Now().UTC().Format(time.RFC3339),
			Outline:     o,
		},
		MemoryType: "metacognitive",
		Salience:   0.5,
		Source:     source + ":" + docID,
	})
	if err != nil {
		return err
	}
	return s.c.PutNode(ctx, hashKey(hash), NodeRequest{
		Value:      hashEntry{DocID: docID},
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     source + ":" + docID,
	})
}

// LoadOutline returns the stored outline, or nil when docID is unknown.
func (s *OutlineStore) LoadOutline(ctx context.Context, docID string) (*doctree.Outline, error) {
	rec, err := s.load(ctx, docID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Outline, nil
}

// DeleteOutline removes the outline and its hash index entry.
func (s *OutlineStore) DeleteOutline(ctx context.Context, docID string) error {
	rec, err := s.load(ctx, docID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if err := s.c.DeleteNode(ctx, outlineKey(docID)); err != nil {
		return err
	}
	if rec.ContentHash == "" {
		return nil
	}
	return s.c.DeleteNode(ctx, hashKey(rec.ContentHash))
}

func (s *OutlineStore) load(ctx context.Context, docID string) (*storedOutline, error) {
	node, err := s.c.GetNode(ctx, outlineKey(docID))
	if err != nil || node == nil {
		return nil, err
	}
	var rec storedOutline
	if err := json.Unmarshal(node.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode outline %s: %w", docID, err)
	}
	return &rec, nil
}
