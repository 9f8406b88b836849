// Package views renders the preview server's HTML pages as templ components.
package views

// Site holds the site-wide values shown in the page header.
type Site struct {
	Name string
	URL  string
}

// Link is a rendered reference to another post.
type Link struct {
	Title string
	Href  string
	Date  string
}

// Post is one row of the preview index: a post and its relationships.
type Post struct {
	Slug    string
	Title   string
	Date    string
	Tags    []string
	Prev    *Link // newer
	Next    *Link // older
	Related []Link
	Missing bool // no artifact entry for this post
}
