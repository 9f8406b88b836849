package pubindex

// Related-post caps used by the build.
const (
	DefaultRelatedLimit     = 3
	DefaultNoteRelatedLimit = 5
)

// Navigate returns the neighbours of slug in posts, which must already be
// ordered newest first. An unknown slug has no neighbours.
func Navigate(slug string, posts []Summary) Navigation {
	index := -1
	for i := range posts {
		if posts[i].Slug == slug {
			index = i
			break
		}
	}
	if index == -1 {
		return Navigation{}
	}
	return navigationAt(index, posts)
}

// navigationAt returns the neighbours of posts[i].
func navigationAt(i int, posts []Summary) Navigation {
	var nav Navigation
	if i > 0 {
		prev := posts[i-1]
		nav.Prev = &prev
	}
	if i < len(posts)-1 {
		next := posts[i+1]
		nav.Next = &next
	}
	return nav
}

// Related returns up to limit posts other than slug that share at least one
// tag with tags, in collection order. Tags are compared after trimming
// surrounding whitespace and ignoring case, so "Go" and " go" match; the
// tags stored on the returned summaries keep their original spelling.
func Related(slug string, tags []string, posts []Summary, limit int) []Summary {
	related := []Summary{}
	if len(tags) == 0 || limit < 1 {
		return related
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	if len(tagSet) == 0 {
		return related
	}
	for _, p := range posts {
		if p.Slug == slug {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, p)
				break
			}
		}
		if len(related) == limit {
			break
		}
	}
	return related
}
