package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultTopK is the number of hits returned when a query asks for none.
const DefaultTopK = 2

// Hit is one ranked passage.
type Hit struct {
	Passage
	Score float64 `json:"score"`
}

// entry is a passage together with its term frequencies.
type entry struct {
	Passage
	Terms map[string]int `json:"terms"`
}

// Index ranks passages against a question by TF-IDF cosine similarity.
type Index struct {
	entries []entry
	df      map[string]int
	norms   []float64
}

// NewIndex tokenizes passages and builds an in-memory index.
func NewIndex(passages []Passage) *Index {
	entries := make([]entry, len(passages))
	for i, p := range passages {
		entries[i] = entry{Passage: p, Terms: termFrequencies(p.Text)}
	}
	return fromEntries(entries)
}

func fromEntries(entries []entry) *Index {
	ix := &Index{
		entries: entries,
		df:      make(map[string]int),
		norms:   make([]float64, len(entries)),
	}
	for _, e := range entries {
		for term := range e.Terms {
			ix.df[term]++
		}
	}
	for i, e := range entries {
		var sum float64
		for term, tf := range e.Terms {
			w := weight(tf) * ix.idf(term)
			sum += w * w
		}
		ix.norms[i] = math.Sqrt(sum)
	}
	return ix
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Query returns up to topK passages with a positive score, best first.
// Equal scores are ordered by passage ID.
func (ix *Index) Query(question string, topK int) []Hit {
	if topK <= 0 {
		topK = DefaultTopK
	}

	qTerms := termFrequencies(question)
	qWeights := make(map[string]float64, len(qTerms))
	var qNorm float64
	for term, tf := range qTerms {
		w := weight(tf) * ix.idf(term)
		if w == 0 {
			continue
		}
		qWeights[term] = w
		qNorm += w * w
	}
	if qNorm == 0 {
		return nil
	}
	qNorm = math.Sqrt(qNorm)

	var hits []Hit
	for i, e := range ix.entries {
		if ix.norms[i] == 0 {
			continue
		}
		var dot float64
		for term, qw := range qWeights {
			if tf, ok := e.Terms[term]; ok {
				dot += qw * weight(tf) * ix.idf(term)
			}
		}
		if dot == 0 {
			continue
		}
		hits = append(hits, Hit{Passage: e.Passage, Score: dot / (qNorm * ix.norms[i])})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func (ix *Index) idf(term string) float64 {
	df := ix.df[term]
	if df == 0 {
		return 0
	}
	return math.Log(1 + float64(len(ix.entries))/float64(df))
}

func weight(tf int) float64 {
	if tf <= 0 {
		return 0
	}
	return 1 + math.Log(float64(tf))
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "what": true, "which": true,
	"with": true, "who": true, "how": true,
}

// Tokenize lowercases text and splits it into letter/digit runs, dropping
// stopwords and single characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func termFrequencies(text string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range Tokenize(text) {
		tf[tok]++
	}
	return tf
}
