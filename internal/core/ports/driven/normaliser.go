package driven

// Normaliser turns the raw bytes of one file format into the plain text
// the chunker works on.
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Normalise converts raw file content. path is used only for hints
	// such as a fallback title.
	Normalise(raw []byte, path string) (*NormaliseResult, error)
}

// NormaliseResult is the output of a Normaliser.
type NormaliseResult struct {
	// Title is the document title found in the content, or empty.
	Title string

	// Content is the cleaned text.
	Content string

	// Format names the source format, stored as document metadata.
	Format string
}
