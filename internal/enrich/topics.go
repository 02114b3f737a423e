package enrich

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// UnknownTopicLabel marks a record whose dominant topic index fell outside
// the fitted topic set.
const UnknownTopicLabel = "Unknown"

// Topic is one discovered theme, described by its ranked top terms.
type Topic struct {
	Terms []string
}

// TopicModeler discovers themes in a document set. Model fits on the
// texts and returns the topics plus the dominant topic index for each
// input text.
type TopicModeler interface {
	Model(texts []string) ([]Topic, []int, error)
}

// topicCategories maps topic terms to report labels. Checks run in order
// and the first matching keyword wins.
var topicCategories = []struct {
	keywords []string
	label    string
}{
	{[]string{"price", "cost", "budget", "pricing"}, "Pricing & Budget"},
	{[]string{"feature", "tool", "platform", "software"}, "Features & Tools"},
	{[]string{"integration", "api", "connect", "data"}, "Integration & Data"},
	{[]string{"competitor", "alternative", "vs", "comparison"}, "Competitive Analysis"},
	{[]string{"roi", "analytics", "metrics", "performance"}, "Analytics & ROI"},
}

// categoryForTerms assigns the human-readable label for a topic from its
// top terms. Keyword matching is substring-based on the joined terms.
func categoryForTerms(terms []string) string {
	joined := strings.ToLower(strings.Join(terms, " "))
	for _, cat := range topicCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(joined, kw) {
				return cat.label
			}
		}
	}
	return "General Discussion"
}

// AssignTopics fits the modeler on the record texts and writes a
// TopicLabel onto every record in place.
func AssignTopics(modeler TopicModeler, records []core.EnrichedRecord, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].FullText
	}

	topics, dominant, err := modeler.Model(texts)
	if err != nil {
		return fmt.Errorf("topic modeling: %w", err)
	}
	if len(dominant) != len(records) {
		return &ResultCountError{Expected: len(records), Got: len(dominant)}
	}

	labels := make([]string, len(topics))
	for i, topic := range topics {
		labels[i] = categoryForTerms(topic.Terms)
		logger.Info("discovered topic", "topic", i, "label", labels[i], "terms", strings.Join(topic.Terms, ", "))
	}

	for i := range records {
		idx := dominant[i]
		if idx < 0 || idx >= len(labels) {
			records[i].TopicLabel = UnknownTopicLabel
			continue
		}
		records[i].TopicLabel = labels[idx]
	}
	return nil
}

// Term-frequency modeler tuning. Mirrors the vectorizer settings the
// reports were built around: terms must appear in at least two documents,
// in at most 80% of them, and the vocabulary is capped.
const (
	defaultTopicCount  = 5
	defaultTopTerms    = 10
	minFitTextRunes    = 20
	minDocFrequency    = 2
	maxDocFraction     = 0.8
	maxVocabularyTerms = 1000
)

// wordPattern matches word tokens of at least two characters.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TermFrequencyModeler is the default local TopicModeler: it partitions
// the most frequent corpus terms into a fixed number of topics and
// assigns each document the topic its tokens overlap most. Deterministic,
// no model download, no randomness.
type TermFrequencyModeler struct {
	topicCount int
	topTerms   int
	logger     *slog.Logger
}

var _ TopicModeler = (*TermFrequencyModeler)(nil)

// NewTermFrequencyModeler creates a modeler with the standard five topics
// and ten terms per topic.
func NewTermFrequencyModeler(logger *slog.Logger) *TermFrequencyModeler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TermFrequencyModeler{
		topicCount: defaultTopicCount,
		topTerms:   defaultTopTerms,
		logger:     logger,
	}
}

// Model fits the vocabulary on texts long enough to carry signal, then
// scores every input text against the fitted topics. Short texts still
// receive a dominant topic.
func (m *TermFrequencyModeler) Model(texts []string) ([]Topic, []int, error) {
	tokenized := make([][]string, len(texts))
	for i, t := range texts {
		tokenized[i] = tokenize(t)
	}

	var fitDocs [][]string
	for i, t := range texts {
		if utf8.RuneCountInString(t) > minFitTextRunes {
			fitDocs = append(fitDocs, tokenized[i])
		}
	}

	vocab := m.buildVocabulary(fitDocs)
	if len(vocab) == 0 {
		m.logger.Warn("not enough text to fit topics", "texts", len(texts), "fit_docs", len(fitDocs))
	}

	topics := m.partition(vocab)

	termTopic := make(map[string]int)
	for idx, topic := range topics {
		for _, term := range topic.Terms {
			termTopic[term] = idx
		}
	}

	dominant := make([]int, len(texts))
	for i, tokens := range tokenized {
		dominant[i] = m.dominantTopic(tokens, termTopic)
	}

	return topics, dominant, nil
}

// buildVocabulary applies the document-frequency filters and returns the
// surviving terms ordered by corpus frequency, ties broken alphabetically.
func (m *TermFrequencyModeler) buildVocabulary(fitDocs [][]string) []string {
	totalFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, tokens := range fitDocs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			totalFreq[tok]++
			seen[tok] = struct{}{}
		}
		for tok := range seen {
			docFreq[tok]++
		}
	}

	maxDocs := int(maxDocFraction * float64(len(fitDocs)))
	vocab := make([]string, 0, len(totalFreq))
	for term, df := range docFreq {
		if df < minDocFrequency || df > maxDocs {
			continue
		}
		vocab = append(vocab, term)
	}

	sort.Slice(vocab, func(i, j int) bool {
		if totalFreq[vocab[i]] != totalFreq[vocab[j]] {
			return totalFreq[vocab[i]] > totalFreq[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})

	if len(vocab) > maxVocabularyTerms {
		vocab = vocab[:maxVocabularyTerms]
	}
	return vocab
}

// partition spreads the ranked vocabulary across topics in a stride, so
// every topic gets a share of the high-frequency terms.
func (m *TermFrequencyModeler) partition(vocab []string) []Topic {
	topics := make([]Topic, m.topicCount)
	for i := range topics {
		for rank := i; rank < len(vocab) && len(topics[i].Terms) < m.topTerms; rank += m.topicCount {
			topics[i].Terms = append(topics[i].Terms, vocab[rank])
		}
	}
	return topics
}

// dominantTopic scores the document's tokens against each topic's term
// set. Ties and zero overlap resolve to the lowest topic index.
func (m *TermFrequencyModeler) dominantTopic(tokens []string, termTopic map[string]int) int {
	scores := make([]int, m.topicCount)
	for _, tok := range tokens {
		if idx, ok := termTopic[tok]; ok {
			scores[idx]++
		}
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

func tokenize(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// stopWords is a compact English stop list.
var stopWords = func() map[string]struct{} {
	words := []string{
		"about", "above", "after", "again", "against", "all", "am", "an",
		"and", "any", "are", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "could", "did",
		"do", "does", "doing", "down", "during", "each", "few", "for",
		"from", "further", "had", "has", "have", "having", "he", "her",
		"here", "hers", "herself", "him", "himself", "his", "how", "if",
		"in", "into", "is", "it", "its", "itself", "just", "me", "more",
		"most", "my", "myself", "no", "nor", "not", "now", "of", "off",
		"on", "once", "only", "or", "other", "our", "ours", "ourselves",
		"out", "over", "own", "same", "she", "should", "so", "some",
		"such", "than", "that", "the", "their", "theirs", "them",
		"themselves", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "very", "was",
		"we", "were", "what", "when", "where", "which", "while", "who",
		"whom", "why", "will", "with", "you", "your", "yours", "yourself",
		"yourselves",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
