// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the MPC chat backend.
//
// The backend exposes a small REST surface for routed chat completions,
// audio messages, per-phone conversation memory and a document retrieval
// index. Every Client method performs exactly one HTTP request and returns
// the decoded body or an error; there are no retries and no caching.
//
// # Key Types
//
//   - Client: HTTP client with builder-style configuration
//   - ChatOptions: per-send settings (phone, model, audio, RAG)
//   - ChatResponse: routed completion with optional cost and audio data
//   - Document, SearchResult: retrieval index payloads
//   - APIError: non-2xx response carrying the server detail
//
// # Usage
//
//	client := api.NewClient("http://localhost:8000/api/v1").
//	    WithTimeout(2 * time.Minute).
//	    WithLogger(logger)
//
//	resp, err := client.SendMessage(ctx, "Hello", api.ChatOptions{
//	    SenderPhone: "5511999999999",
//	    UseRag:      true,
//	})
//	if err != nil {
//	    fmt.Println(api.UserMessage(err))
//	}
package api
