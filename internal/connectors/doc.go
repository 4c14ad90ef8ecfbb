// Package connectors holds the sources study material is read from.
// Each connector implements driven.FileSource for one kind of source.
package connectors
