package domain

import "time"

// SourceFile is a plain-text file handed over for ingestion.
type SourceFile struct {
	// Path is the absolute path of the file.
	Path string

	// Title is derived from the file name.
	Title string

	// Content is the normalised text.
	Content string

	// Format names the normaliser that produced Content.
	Format string

	// ModTime is the file modification time.
	ModTime time.Time
}

// ChangeType indicates what happened to a watched file.
type ChangeType int

// Change types.
const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return unknownDescription
	}
}

// FileChange is a change observed while watching a source directory.
type FileChange struct {
	Type ChangeType

	// Path is the absolute path of the changed file.
	Path string

	// File is nil for deletions.
	File *SourceFile
}
