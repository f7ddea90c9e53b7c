// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/mpcchat/internal/api"
)

// Draft is one document row in the indexing form.
type Draft struct {
	ID      string
	Content string

	// MetadataText is the raw JSON as typed.
	MetadataText string

	// Metadata is the last successful parse of MetadataText.
	Metadata map[string]interface{}

	// MetadataErr is set while MetadataText does not parse as a JSON object.
	MetadataErr error
}

// IsBlank reports whether the draft has no content and is skipped on submit.
func (d Draft) IsBlank() bool {
	return strings.TrimSpace(d.Content) == ""
}

// SetMetadataText updates the raw metadata. A failed parse keeps the previous
// Metadata and records the error.
func (d *Draft) SetMetadataText(text string) error {
	d.MetadataText = text
	if strings.TrimSpace(text) == "" {
		d.Metadata = map[string]interface{}{}
		d.MetadataErr = nil
		return nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		d.MetadataErr = fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
		return d.MetadataErr
	}
	if parsed == nil {
		parsed = map[string]interface{}{}
	}
	d.Metadata = parsed
	d.MetadataErr = nil
	return nil
}

// Document converts the draft into the wire document for namespace.
func (d Draft) Document(namespace string) api.Document {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return api.Document{
		ID:        strings.TrimSpace(d.ID),
		Content:   d.Content,
		Metadata:  meta,
		Namespace: strings.TrimSpace(namespace),
	}
}

// clone returns a deep enough copy for callers outside the manager lock.
func (d Draft) clone() Draft {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// DraftsFromFiles builds one draft per file. The draft id is the file name
// without its extension and the content is the file text. metadata, when
// non-empty, is applied to every draft.
func DraftsFromFiles(paths []string, metadata string) ([]Draft, error) {
	drafts := make([]Draft, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		base := filepath.Base(path)
		d := Draft{
			ID:      strings.TrimSuffix(base, filepath.Ext(base)),
			Content: string(data),
		}
		if err := d.SetMetadataText(metadata); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}
