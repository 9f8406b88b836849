// Package pubindex indexes a directory of MDX/Markdown writing, orders it
// newest first, and publishes previous/next navigation and tag-related
// posts as a static JSON artifact alongside an RSS feed and sitemap.
//
// The artifact is produced once per site build and consumed at runtime by
// the client package, which fetches it over HTTP and degrades to empty
// defaults when anything goes wrong.
package pubindex

import "os"

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
