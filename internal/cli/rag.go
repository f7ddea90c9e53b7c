// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/rag"
	"github.com/jeranaias/mpcchat/internal/util"
)

// =============================================================================
// SEARCH
// =============================================================================

type searchOptions struct {
	topK      int
	namespace string
	json      bool
}

func newSearchCommand(r *runner) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the retrieval index",
		Example: `  mpcchat search "refund policy"
  mpcchat search -k 10 -n handbook "vacation days" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "number of results, 1-20 (default from config)")
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "namespace to search (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func (r *runner) runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	manager := rag.NewManager(r.client).WithLogger(r.logger)
	manager.SetNamespace(r.cfg.Defaults.RagNamespace)
	manager.SetTopK(r.cfg.Defaults.RagTopK)
	if cmd.Flags().Changed("namespace") {
		manager.SetNamespace(opts.namespace)
	}
	if cmd.Flags().Changed("top-k") {
		manager.SetTopK(opts.topK)
	}

	results, err := manager.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %s", describeError(err))
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return printJSON(out, results)
	}
	printSearchResults(out, results)
	return nil
}

func printSearchResults(out io.Writer, results []api.SearchResult) {
	fmt.Fprintln(out, successText(fmt.Sprintf("Search complete: %d results found", len(results))))
	width := terminalWidth(out)
	for i, res := range results {
		fmt.Fprintln(out)
		head := fmt.Sprintf("#%d", i+1)
		if res.ID != "" {
			head += " " + res.ID
		}
		line := titleText(head) + "  " + infoText(fmt.Sprintf("%.1f%%", res.Similarity*100))
		if res.Namespace != "" {
			line += "  " + mutedText("namespace: "+res.Namespace)
		}
		fmt.Fprintln(out, line)
		fmt.Fprintln(out, "  "+util.Preview(res.Content, width-2))
		if len(res.Metadata) > 0 {
			if meta, err := json.Marshal(res.Metadata); err == nil {
				fmt.Fprintln(out, "  "+mutedText(string(meta)))
			}
		}
	}
}

// =============================================================================
// INDEX
// =============================================================================

type indexOptions struct {
	namespace string
	contents  []string
	metadata  string
}

func newIndexCommand(r *runner) *cobra.Command {
	var opts indexOptions
	cmd := &cobra.Command{
		Use:   "index [file|glob]...",
		Short: "Add documents to the retrieval index",
		Long: `Index documents. Each file becomes one document whose id is the file
name without extension. Glob patterns are expanded, and --content adds
documents given inline. --metadata is applied to every document and must be
a JSON object.`,
		Example: `  mpcchat index docs/*.md -n handbook
  mpcchat index --content "Office hours are 9-5" --metadata '{"source":"faq"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runIndex(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "target namespace (default from config)")
	cmd.Flags().StringArrayVar(&opts.contents, "content", nil, "inline document text (repeatable)")
	cmd.Flags().StringVar(&opts.metadata, "metadata", "", "JSON object attached to every document")
	return cmd
}

func (r *runner) runIndex(cmd *cobra.Command, args []string, opts indexOptions) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	drafts, err := rag.DraftsFromFiles(paths, opts.metadata)
	if err != nil {
		return err
	}
	for _, content := range opts.contents {
		d := rag.Draft{Content: content}
		if err := d.SetMetadataText(opts.metadata); err != nil {
			return err
		}
		drafts = append(drafts, d)
	}

	manager := rag.NewManager(r.client).WithLogger(r.logger)
	manager.SetNamespace(r.cfg.Defaults.RagNamespace)
	if cmd.Flags().Changed("namespace") {
		manager.SetNamespace(opts.namespace)
	}
	manager.SetDrafts(drafts)

	indexed, err := manager.Index(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing failed: %s", describeError(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("%d documents indexed successfully", indexed)))
	return nil
}

// expandPaths expands glob patterns. A pattern that matches nothing is
// kept as a literal path so the read error names it.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		arg = util.ExpandHome(arg)
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			paths = append(paths, arg)
			continue
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
