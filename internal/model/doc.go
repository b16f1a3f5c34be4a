// Package model defines the build result types shared by the pipeline,
// the report writers and the history database.
//
//   - BrokenLink: a reference that resolves to nothing, with its policy
//   - BuildReport: everything one build run found
//   - Comparison: the difference between two recorded builds
//
// The types live in their own package so that pipeline, report and database
// can all use them without importing each other. All of them encode to JSON;
// the history database stores reports in that form.
package model
