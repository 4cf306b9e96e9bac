// Package testingx provides testing helpers and fakes for expressgen packages.
//
// # Overview
//
// testingx contains small utilities to speed up unit tests: a mock logger
// with capture capabilities, a scripted prompter for interactive sessions,
// and assertions over generated file trees.
//
// # Features
//
//   - MockLogger with in-memory capture and assertions
//   - Prompter that replays canned answers and records questions
//   - File assertions (existence, content, JSON subsets) for generated trees
//   - Error assertion helpers for core/errors codes
//
// # Usage
//
//	logger := testingx.NewMockLogger(t)
//	p := testingx.NewPrompter("demo", "8080", "", "n")
//	testingx.AssertFile(t, dir, "package.json")
//
// # Layer
//
// testingx is an auxiliary package for tests only and depends on core packages.
package testingx
