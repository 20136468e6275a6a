package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chequera-dev/chequera/internal/model"
)

// SkippedLine reports a statement row that could not be parsed. Skipped
// rows are collected and reported alongside the parsed lines; a malformed
// row never aborts the batch.
type SkippedLine struct {
	Row    int
	Reason string
}

// Parser converts a bank statement file into statement lines.
type Parser interface {
	Parse(r io.Reader) ([]model.BankStatementLine, []SkippedLine, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&GenericParser{})
	return r
}

// ParseFile parses a statement file with the named format.
func (r *Registry) ParseFile(path, format string) ([]model.BankStatementLine, []SkippedLine, error) {
	p := r.Get(format)
	if p == nil {
		return nil, nil, fmt.Errorf("unknown statement format %q: %w", format, model.ErrInvalidInput)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening statement %s: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// importDir is the subdirectory for incoming statement files.
const importDir = "import"

// processedDir is the subdirectory for processed statement files.
const processedDir = "import/processed"

// Scan returns statement files in <bookRoot>/import/.
func Scan(bookRoot string) ([]FileInfo, error) {
	dir := filepath.Join(bookRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(bookRoot, fileName string) error {
	src := filepath.Join(bookRoot, importDir, fileName)
	dstDir := filepath.Join(bookRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
