package pubindex

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func exampleCollection() []Summary {
	return []Summary{
		post("c", "2024-03-01", "ai"),
		post("b", "2024-02-01", "ai", "rag"),
		post("a", "2024-01-01", "rag"),
	}
}

func TestNavigateMiddle(t *testing.T) {
	nav := Navigate("b", exampleCollection())
	if nav.Prev == nil || nav.Prev.Slug != "c" {
		t.Fatalf("expected prev c, got %+v", nav.Prev)
	}
	if nav.Next == nil || nav.Next.Slug != "a" {
		t.Fatalf("expected next a, got %+v", nav.Next)
	}
}

func TestNavigateEnds(t *testing.T) {
	posts := exampleCollection()

	first := Navigate("c", posts)
	if first.Prev != nil {
		t.Fatalf("newest post should have no prev, got %s", first.Prev.Slug)
	}
	if first.Next == nil || first.Next.Slug != "b" {
		t.Fatalf("expected next b, got %+v", first.Next)
	}

	last := Navigate("a", posts)
	if last.Next != nil {
		t.Fatalf("oldest post should have no next, got %s", last.Next.Slug)
	}
	if last.Prev == nil || last.Prev.Slug != "b" {
		t.Fatalf("expected prev b, got %+v", last.Prev)
	}
}

func TestNavigateUnknownSlug(t *testing.T) {
	nav := Navigate("zzz", exampleCollection())
	if nav.Prev != nil || nav.Next != nil {
		t.Fatalf("expected empty navigation, got %+v", nav)
	}
}

func TestNavigateSinglePost(t *testing.T) {
	nav := Navigate("only", []Summary{post("only", "2024-01-01")})
	if nav.Prev != nil || nav.Next != nil {
		t.Fatalf("single post should have no neighbours, got %+v", nav)
	}
}

func TestNavigateReturnsCopies(t *testing.T) {
	posts := exampleCollection()
	nav := Navigate("b", posts)
	nav.Prev.Title = "changed"
	if posts[0].Title != "c" {
		t.Fatalf("navigation must not alias the collection")
	}
}

func TestRelatedExample(t *testing.T) {
	got := slugs(Related("b", []string{"ai", "rag"}, exampleCollection(), 3))
	if !equalStrings(got, []string{"c", "a"}) {
		t.Fatalf("expected [c a], got %v", got)
	}
}

func TestRelatedLimit(t *testing.T) {
	posts := []Summary{
		post("e", "2024-05-01", "go"),
		post("d", "2024-04-01", "go"),
		post("c", "2024-03-01", "go"),
		post("b", "2024-02-01", "go"),
		post("a", "2024-01-01", "go"),
	}
	got := slugs(Related("c", []string{"go"}, posts, 3))
	if !equalStrings(got, []string{"e", "d", "b"}) {
		t.Fatalf("expected first three others in collection order, got %v", got)
	}
}

func TestRelatedNoTags(t *testing.T) {
	got := Related("b", nil, exampleCollection(), 3)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	got = Related("b", []string{"  "}, exampleCollection(), 3)
	if len(got) != 0 {
		t.Fatalf("blank tags should match nothing, got %v", slugs(got))
	}
}

func TestRelatedNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		if got := Related("b", []string{"ai"}, exampleCollection(), limit); len(got) != 0 {
			t.Fatalf("limit %d: expected no results, got %v", limit, slugs(got))
		}
	}
}

func TestRelatedCaseInsensitive(t *testing.T) {
	posts := []Summary{post("x", "2024-02-01", "Go"), post("y", "2024-01-01", "go ")}
	related := Related("y", []string{"GO"}, posts, 3)
	if got := slugs(related); !equalStrings(got, []string{"x"}) {
		t.Fatalf("expected [x], got %v", got)
	}
	if related[0].Tags[0] != "Go" {
		t.Fatalf("related summaries should keep their tag spelling, got %v", related[0].Tags)
	}
}

var tagPool = []string{"go", "ai", "rag", "web", "ops"}

var datePool = []string{"", "2024-01-01", "2024-01-01", "2024-02-15", "2023-12-31", "not a date"}

// collectionGen draws a collection with unique slugs and frequent date ties.
func collectionGen() *rapid.Generator[[]Summary] {
	return rapid.Custom(func(t *rapid.T) []Summary {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		posts := make([]Summary, n)
		for i := range posts {
			date := rapid.SampledFrom(datePool).Draw(t, fmt.Sprintf("date%d", i))
			tags := rapid.SliceOfNDistinct(rapid.SampledFrom(tagPool), 0, 3, rapid.ID[string]).Draw(t, fmt.Sprintf("tags%d", i))
			posts[i] = post(fmt.Sprintf("p%02d", i), date, tags...)
		}
		return posts
	})
}

func TestNavigationProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		posts := collectionGen().Draw(t, "posts")
		SortByDate(posts)

		if nav := Navigate("missing", posts); nav.Prev != nil || nav.Next != nil {
			t.Fatalf("unknown slug produced neighbours: %+v", nav)
		}
		if len(posts) == 0 {
			return
		}
		if nav := Navigate(posts[0].Slug, posts); nav.Prev != nil {
			t.Fatalf("first post has prev %s", nav.Prev.Slug)
		}
		if nav := Navigate(posts[len(posts)-1].Slug, posts); nav.Next != nil {
			t.Fatalf("last post has next %s", nav.Next.Slug)
		}
		for i := 1; i < len(posts); i++ {
			nav := Navigate(posts[i].Slug, posts)
			if nav.Prev == nil || nav.Prev.Slug != posts[i-1].Slug {
				t.Fatalf("post %d: prev should be %s", i, posts[i-1].Slug)
			}
		}
	})
}

func TestRelatedProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		posts := collectionGen().Draw(t, "posts")
		SortByDate(posts)
		if len(posts) == 0 {
			return
		}
		limit := rapid.IntRange(-1, 5).Draw(t, "limit")
		target := posts[rapid.IntRange(0, len(posts)-1).Draw(t, "target")]

		if got := Related(target.Slug, nil, posts, limit); got == nil || len(got) != 0 {
			t.Fatalf("empty tags must give an empty result, got %v", got)
		}

		got := Related(target.Slug, target.Tags, posts, limit)
		if got == nil {
			t.Fatalf("result must never be nil")
		}
		if limit >= 0 && len(got) > limit {
			t.Fatalf("got %d results for limit %d", len(got), limit)
		}
		position := make(map[string]int, len(posts))
		for i, p := range posts {
			position[p.Slug] = i
		}
		last := -1
		for _, r := range got {
			if r.Slug == target.Slug {
				t.Fatalf("post related to itself")
			}
			if !sharesTag(r.Tags, target.Tags) {
				t.Fatalf("%s shares no tag with %v", r.Slug, target.Tags)
			}
			if position[r.Slug] <= last {
				t.Fatalf("results out of collection order: %v", slugs(got))
			}
			last = position[r.Slug]
		}
	})
}

func TestSortByDateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		posts := collectionGen().Draw(t, "posts")
		input := make(map[string]int, len(posts))
		for i, p := range posts {
			input[p.Slug] = i
		}
		SortByDate(posts)
		for i := 1; i < len(posts); i++ {
			a, b := sortKey(posts[i-1]), sortKey(posts[i])
			if a.Before(b) {
				t.Fatalf("not newest first at %d: %v", i, slugs(posts))
			}
			if a.Equal(b) && input[posts[i-1].Slug] > input[posts[i].Slug] {
				t.Fatalf("equal dates reordered at %d: %v", i, slugs(posts))
			}
		}
	})
}

func sharesTag(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if normalizeTag(x) == normalizeTag(y) {
				return true
			}
		}
	}
	return false
}

func TestBuildArtifactNavigationMatchesNavigate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		posts := collectionGen().Draw(t, "posts")
		SortByDate(posts)
		artifact := BuildArtifact(posts, DefaultRelatedLimit, nil)
		for _, p := range posts {
			want := Navigate(p.Slug, posts)
			got := artifact[p.Slug].Navigation
			if slugOrEmpty(got.Prev) != slugOrEmpty(want.Prev) || slugOrEmpty(got.Next) != slugOrEmpty(want.Next) {
				t.Fatalf("%s: artifact navigation %+v, Navigate %+v", p.Slug, got, want)
			}
		}
	})
}

func slugOrEmpty(s *Summary) string {
	if s == nil {
		return ""
	}
	return s.Slug
}
