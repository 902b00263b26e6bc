package ingest

import (
	"fmt"
	"sort"
	"time"
)

// ParserConstructor builds a parser bound to one source. now is injected so
// date resolution is deterministic under test.
type ParserConstructor func(src SourceConfig, now func() time.Time) Parser

// ParserFactory maps parser IDs (from sources.yaml) to implementations.
type ParserFactory struct {
	parsers map[string]ParserConstructor
}

func NewParserFactory() *ParserFactory {
	return &ParserFactory{
		parsers: make(map[string]ParserConstructor),
	}
}

func (f *ParserFactory) Register(id string, ctor ParserConstructor) {
	f.parsers[id] = ctor
}

func (f *ParserFactory) Build(src SourceConfig, now func() time.Time) (Parser, error) {
	ctor, ok := f.parsers[src.Parser]
	if !ok {
		return nil, fmt.Errorf("parser not found: %s", src.Parser)
	}
	if now == nil {
		now = time.Now
	}
	return ctor(src, now), nil
}

func (f *ParserFactory) IDs() []string {
	ids := make([]string, 0, len(f.parsers))
	for id := range f.parsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultParsers knows every site parser shipped with the service.
var DefaultParsers = NewParserFactory()

func init() {
	DefaultParsers.Register("knowafest", func(src SourceConfig, now func() time.Time) Parser {
		return NewKnowafestParser(src, now)
	})
	DefaultParsers.Register("unstop", func(src SourceConfig, now func() time.Time) Parser {
		return NewUnstopParser(src, now)
	})
}
