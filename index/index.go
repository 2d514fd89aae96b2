// Package index stores source files with positional postings so phrase
// queries can be narrowed to candidate documents before they are scanned.
//
// An index is built with a Writer, persisted with Save and loaded with
// Open. The analyzer that produced the postings is recorded in the Schema;
// Open refuses an index whose analyzer is unknown or has changed.
package index

import (
	"iter"

	"golang.org/x/exp/slices"
)

// Document is a stored file.
type Document struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

// Posting lists the term positions within one document, in increasing
// order. Positions count terms, not bytes.
type Posting struct {
	Doc       int   `json:"doc"`
	Positions []int `json:"positions"`
}

// Index is an immutable set of documents and their postings. It is safe for
// concurrent use.
type Index struct {
	schema   *Schema
	analyzer Analyzer
	docs     []Document
	postings map[string][]Posting
}

// Schema returns the schema of the index.
func (ix *Index) Schema() *Schema { return ix.schema }

// Analyzer returns the analyzer of the contents field.
func (ix *Index) Analyzer() Analyzer { return ix.analyzer }

// Len returns the number of documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Vocabulary returns the number of distinct terms.
func (ix *Index) Vocabulary() int { return len(ix.postings) }

// Document returns the document with the given id.
func (ix *Index) Document(id int) (Document, bool) {
	if id < 0 || id >= len(ix.docs) {
		return Document{}, false
	}
	return ix.docs[id], true
}

// Documents yields every document in id order.
func (ix *Index) Documents() iter.Seq[Document] {
	return func(yield func(Document) bool) {
		for _, d := range ix.docs {
			if !yield(d) {
				return
			}
		}
	}
}

// Query returns the ids of the documents containing terms at consecutive
// positions, in increasing order. A single term is a plain term query. No
// terms match nothing.
func (ix *Index) Query(terms []string) []int {
	if len(terms) == 0 {
		return nil
	}

	lists := make([][]Posting, len(terms))
	for i, term := range terms {
		list, ok := ix.postings[term]
		if !ok {
			return nil
		}
		lists[i] = list
	}

	var ids []int
	for _, first := range lists[0] {
		positions := make([][]int, len(terms))
		positions[0] = first.Positions

		found := true
		for i := 1; i < len(lists); i++ {
			j, ok := slices.BinarySearchFunc(lists[i], first.Doc, func(p Posting, doc int) int {
				return p.Doc - doc
			})
			if !ok {
				found = false
				break
			}
			positions[i] = lists[i][j].Positions
		}

		if found && hasPhrase(positions) {
			ids = append(ids, first.Doc)
		}
	}

	return ids
}

// hasPhrase reports whether some p in positions[0] has p+i in positions[i]
// for every i.
func hasPhrase(positions [][]int) bool {
	for _, p := range positions[0] {
		ok := true
		for i := 1; i < len(positions); i++ {
			if _, found := slices.BinarySearch(positions[i], p+i); !found {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Writer accumulates documents for a new index. It is not safe for
// concurrent use.
type Writer struct {
	schema   *Schema
	analyzer Analyzer
	docs     []Document
	postings map[string][]Posting
}

// NewWriter returns a writer indexing contents with the analyzer a,
// registered under name.
func NewWriter(name string, a Analyzer) *Writer {
	return &Writer{
		schema:   NewSchema(name, a),
		analyzer: a,
		postings: make(map[string][]Posting),
	}
}

// Add indexes a document and returns its id.
func (w *Writer) Add(name, contents string) int {
	id := len(w.docs)
	w.docs = append(w.docs, Document{ID: id, Name: name, Contents: contents})

	local := make(map[string][]int)
	position := 0
	for start, end := range w.analyzer.Offsets(contents) {
		term := contents[start:end]
		local[term] = append(local[term], position)
		position++
	}

	for term, positions := range local {
		w.postings[term] = append(w.postings[term], Posting{Doc: id, Positions: positions})
	}

	return id
}

// Len returns the number of documents added so far.
func (w *Writer) Len() int { return len(w.docs) }

// Commit returns the index built so far and resets the writer.
func (w *Writer) Commit() *Index {
	ix := &Index{
		schema:   w.schema,
		analyzer: w.analyzer,
		docs:     w.docs,
		postings: w.postings,
	}
	w.docs = nil
	w.postings = make(map[string][]Posting)
	return ix
}
