// Package core provides a small, stable facade over ghostpush's internal
// pipeline for external integrations. It deliberately re-exports a narrow API
// surface so monitoring jobs and third-party tools can depend on a stable
// import path without exposing internal implementation packages.
//
// Example:
//
//	cfg := core.Config{Org: "acme", EventsFile: "events.csv"}
//	rs, repos, err := core.Run(context.Background(), cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, core.Findings(repos))
//	_ = rs
package core
