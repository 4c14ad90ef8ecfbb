// Package normalisers converts supported file formats into plain text
// before chunking. Each subpackage handles one format; a Registry picks
// the normaliser by file extension.
package normalisers
