// CLAUDE:SUMMARY TF-IDF n-gram vectorizer with cosine similarity, backend for cross-document boilerplate detection.
// Package similarity provides TF-IDF vectorization and cosine similarity over
// short text segments, plus offset-aware sentence and paragraph segmentation.
//
// It backs the cross-document phase of boilerplate detection: all segments of
// all documents are vectorized together and compared pairwise. The vectorizer
// follows the usual document-frequency filtering: terms must appear in at
// least MinDocFreq segments and in at most MaxDocFreqRatio of them.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Config tunes the vectorizer.
type Config struct {
	// NgramMin and NgramMax bound the word n-gram sizes (defaults: 1 and 3).
	NgramMin int `json:"ngram_min" yaml:"ngram_min"`
	NgramMax int `json:"ngram_max" yaml:"ngram_max"`
	// MinDocFreq drops terms appearing in fewer segments (default: 2).
	MinDocFreq int `json:"min_doc_freq" yaml:"min_doc_freq"`
	// MaxDocFreqRatio drops terms appearing in more than this fraction of
	// segments (default: 0.8).
	MaxDocFreqRatio float64 `json:"max_doc_freq_ratio" yaml:"max_doc_freq_ratio"`
	// Stopwords substitutes the default English stopword list.
	Stopwords []string `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.NgramMin <= 0 {
		c.NgramMin = 1
	}
	if c.NgramMax < c.NgramMin {
		c.NgramMax = 3
	}
	if c.MinDocFreq <= 0 {
		c.MinDocFreq = 2
	}
	if c.MaxDocFreqRatio <= 0 || c.MaxDocFreqRatio > 1 {
		c.MaxDocFreqRatio = 0.8
	}
	if c.Stopwords == nil {
		c.Stopwords = englishStopwords
	}
}

// TFIDF vectorizes segments and computes pairwise cosine similarity.
// Safe for concurrent use; all state is read-only after construction.
type TFIDF struct {
	cfg       Config
	stopwords map[string]struct{}
}

// NewTFIDF creates a vectorizer.
func NewTFIDF(cfg Config) *TFIDF {
	cfg.defaults()
	stop := make(map[string]struct{}, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[w] = struct{}{}
	}
	return &TFIDF{cfg: cfg, stopwords: stop}
}

// Similarities vectorizes all texts together and returns the full pairwise
// cosine similarity matrix. The matrix is symmetric with ones on the
// diagonal. Texts that vectorize to nothing (all stopwords, too short) get
// zero similarity against everything.
func (t *TFIDF) Similarities(texts []string) [][]float64 {
	n := len(texts)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
		sims[i][i] = 1.0
	}
	if n < 2 {
		return sims
	}

	vectors := t.vectorize(texts)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := dot(vectors[i], vectors[j])
			sims[i][j] = s
			sims[j][i] = s
		}
	}
	return sims
}

// vectorize builds L2-normalized tf-idf vectors over the shared vocabulary.
func (t *TFIDF) vectorize(texts []string) []map[string]float64 {
	n := len(texts)

	termCounts := make([]map[string]int, n)
	docFreq := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range t.ngrams(text) {
			counts[term]++
		}
		termCounts[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	// Document-frequency filtering. If it would empty the vocabulary
	// (tiny corpora), relax the minimum so the phase still runs.
	maxDF := int(t.cfg.MaxDocFreqRatio * float64(n))
	if maxDF < 1 {
		maxDF = 1
	}
	minDF := t.cfg.MinDocFreq
	vocab := filterVocab(docFreq, minDF, maxDF)
	if len(vocab) == 0 && minDF > 1 {
		vocab = filterVocab(docFreq, 1, maxDF)
	}

	vectors := make([]map[string]float64, n)
	for i, counts := range termCounts {
		vec := make(map[string]float64)
		for term, tf := range counts {
			if _, ok := vocab[term]; !ok {
				continue
			}
			idf := math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
			vec[term] = float64(tf) * idf
		}
		normalize(vec)
		vectors[i] = vec
	}
	return vectors
}

func filterVocab(docFreq map[string]int, minDF, maxDF int) map[string]struct{} {
	vocab := make(map[string]struct{})
	for term, df := range docFreq {
		if df >= minDF && df <= maxDF {
			vocab[term] = struct{}{}
		}
	}
	return vocab
}

// ngrams tokenizes text (lowercase, alphanumeric word runs, stopwords
// removed) and emits word n-grams between NgramMin and NgramMax.
func (t *TFIDF) ngrams(text string) []string {
	tokens := tokenize(text)
	filtered := tokens[:0:len(tokens)]
	for _, tok := range tokens {
		if _, stop := t.stopwords[tok]; !stop {
			filtered = append(filtered, tok)
		}
	}

	var out []string
	for size := t.cfg.NgramMin; size <= t.cfg.NgramMax; size++ {
		for i := 0; i+size <= len(filtered); i++ {
			out = append(out, strings.Join(filtered[i:i+size], " "))
		}
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec map[string]float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for k, v := range vec {
		vec[k] = v / norm
	}
}

// dot iterates the smaller vector for efficiency. Both vectors are
// L2-normalized, so the dot product is the cosine similarity.
func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			sum += av * bv
		}
	}
	return sum
}

// TopTerms returns the k highest-weighted terms of a vectorized text,
// useful for report diagnostics.
func (t *TFIDF) TopTerms(texts []string, index, k int) []string {
	if index < 0 || index >= len(texts) {
		return nil
	}
	vec := t.vectorize(texts)[index]
	type tw struct {
		term   string
		weight float64
	}
	terms := make([]tw, 0, len(vec))
	for term, w := range vec {
		terms = append(terms, tw{term, w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight > terms[j].weight
		}
		return terms[i].term < terms[j].term
	})
	if k > len(terms) {
		k = len(terms)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = terms[i].term
	}
	return out
}
