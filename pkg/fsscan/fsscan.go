// Package fsscan collects workspace files to ground a completion request.
// It walks a directory honoring .gitignore rules, keeps text files under a
// size ceiling, and returns (name, content) pairs in walk order.
package fsscan

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/denormal/go-gitignore"

	"github.com/thamam/ai-cli/pkg/ai"
)

// maxFileSize is the per-file content ceiling in bytes.
const maxFileSize = 100_000

// Scanner walks directories for context files. The zero value is ready to
// use; it satisfies brain.FileScanner.
type Scanner struct{}

// Scan returns up to maxFiles text files under dir, honoring the
// repository's ignore rules when dir is inside one.
func (Scanner) Scan(dir string, maxFiles int) ([]ai.ContextFile, error) {
	return ScanDirectory(dir, maxFiles)
}

// ScanDirectory walks dir and returns up to maxFiles context files.
// Unreadable entries and binary files are skipped rather than failing the
// scan — missing context degrades the answer, it should not block it.
func ScanDirectory(dir string, maxFiles int) ([]ai.ContextFile, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	// No repository ignore file is fine; everything is then eligible.
	ignore, _ := gitignore.NewRepository(root)

	var files []ai.ContextFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if len(files) >= maxFiles {
			return fs.SkipAll
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			if path != root && ignore != nil && ignore.Ignore(path) {
				return fs.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.Ignore(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil || !isText(content) {
			return nil
		}

		files = append(files, ai.ContextFile{
			Name:    d.Name(),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isText filters out binary blobs: anything with a NUL byte or invalid
// UTF-8 is not worth sending as context.
func isText(content []byte) bool {
	if bytes.IndexByte(content, 0) >= 0 {
		return false
	}
	return utf8.Valid(content)
}
