package parser

import "fmt"

// ParseError reports a parser failure for a specific file.
type ParseError struct {
	Message string
	File    string
	Line    uint32
	Column  uint32
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// UnsupportedLanguageError is returned for languages the registry does not
// know about.
type UnsupportedLanguageError struct {
	Language string
}

// Error implements the error interface.
func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %s", e.Language)
}

// GrammarLoadError is recorded when a native grammar fails to initialize on
// the host. The language degrades to unavailable; this is a warning, never a
// fatal error.
type GrammarLoadError struct {
	Language string
	Detail   any
}

// Error implements the error interface.
func (e *GrammarLoadError) Error() string {
	return fmt.Sprintf("grammar for %s failed to load: %v", e.Language, e.Detail)
}

// FileError reports a filesystem problem and the path it occurred on.
type FileError struct {
	Path string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}
