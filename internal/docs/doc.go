// Package docs indexes the markdown documents of a site into a tree of
// document ids and routes, and extracts the links each document contains.
//
// Ids and routes follow the docs plugin conventions:
//   - the id is the path relative to the docs root without extension
//   - a front matter id replaces the last segment of the id
//   - a front matter slug overrides the route
//   - index and README files route to their directory
//
// Markdown is parsed with goldmark only to find link and image destinations;
// rendering is left to the site generator.
package docs
