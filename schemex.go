// Package schemex extracts structured records from unstructured web pages.
// It renders pages in a browser, reduces the markup to clean markdown, asks
// a language model to fill a fixed field schema, and persists one record per
// page across large batches of URLs.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, gemini/, sqlite/).
package schemex
