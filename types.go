package pubindex

// Summary is the per-document record derived from a content file's
// frontmatter. It is built once per indexing run and never mutated.
type Summary struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Date      *string  `json:"date"` // nil when the frontmatter has no date
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary,omitempty"`
	Dek       string   `json:"dek,omitempty"`
	Series    string   `json:"series,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// DateString returns the publication date or "" when absent.
func (s Summary) DateString() string {
	if s.Date == nil {
		return ""
	}
	return *s.Date
}

// Navigation holds the chronological neighbours of a document.
// Prev is the newer neighbour, Next the older one.
type Navigation struct {
	Prev *Summary `json:"prev"`
	Next *Summary `json:"next"`
}

// Entry is the artifact value stored for one slug.
type Entry struct {
	Navigation Navigation `json:"navigation"`
	Related    []Summary  `json:"related"`
}

// EmptyEntry returns the safe default: no neighbours and no related posts.
func EmptyEntry() Entry {
	return Entry{Related: []Summary{}}
}

// Artifact maps every indexed slug to its relationships.
type Artifact map[string]Entry

// NoteEntry is the notes artifact value for one slug.
type NoteEntry struct {
	Meta    Summary   `json:"meta"`
	Related []Summary `json:"related"`
}

// NotesArtifact maps every indexed note slug to its metadata and related notes.
type NotesArtifact map[string]NoteEntry
