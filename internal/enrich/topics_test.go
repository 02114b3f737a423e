package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

func TestCategoryForTerms(t *testing.T) {
	tests := []struct {
		name     string
		terms    []string
		expected string
	}{
		{
			name:     "pricing terms",
			terms:    []string{"budget", "campaign", "spend"},
			expected: "Pricing & Budget",
		},
		{
			name:     "feature terms",
			terms:    []string{"platform", "dashboard"},
			expected: "Features & Tools",
		},
		{
			name:     "pricing wins over features when both present",
			terms:    []string{"software", "pricing"},
			expected: "Pricing & Budget",
		},
		{
			name:     "substring matching catches plural",
			terms:    []string{"apis", "webhooks"},
			expected: "Integration & Data",
		},
		{
			name:     "competitive terms",
			terms:    []string{"alternative", "switching"},
			expected: "Competitive Analysis",
		},
		{
			name:     "roi terms",
			terms:    []string{"metrics", "attribution"},
			expected: "Analytics & ROI",
		},
		{
			name:     "no match falls back",
			terms:    []string{"monitor", "keyboard"},
			expected: "General Discussion",
		},
		{
			name:     "empty terms fall back",
			terms:    nil,
			expected: "General Discussion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryForTerms(tt.terms))
		})
	}
}

func TestTermFrequencyModeler_Model(t *testing.T) {
	m := NewTermFrequencyModeler(testutil.NewTestLogger(t))

	texts := []string{
		"pricing budget pricing cost pricing budget something",
		"pricing cost budget expensive pricing cost",
		"platform tool feature platform software tool",
		"platform feature tool software feature platform",
		"tool", // too short to influence the fit, still gets a topic
	}

	topics, dominant, err := m.Model(texts)
	require.NoError(t, err)
	require.Len(t, topics, 5)
	require.Len(t, dominant, 5)

	// Ranked vocabulary spreads across topics in a stride: the two most
	// frequent terms seed topics 0 and 1.
	assert.Equal(t, []string{"pricing", "tool"}, topics[0].Terms)
	assert.Equal(t, []string{"platform", "software"}, topics[1].Terms)

	// Terms below the document-frequency floor never enter the vocabulary
	for _, topic := range topics {
		assert.NotContains(t, topic.Terms, "expensive")
		assert.NotContains(t, topic.Terms, "something")
	}

	// Pricing-heavy texts land in the pricing topic, platform-heavy in
	// the platform topic
	assert.Equal(t, 0, dominant[0])
	assert.Equal(t, 1, dominant[2])
	assert.Equal(t, 1, dominant[3])

	// Deterministic across runs
	topics2, dominant2, err := m.Model(texts)
	require.NoError(t, err)
	assert.Equal(t, topics, topics2)
	assert.Equal(t, dominant, dominant2)
}

func TestTermFrequencyModeler_TooLittleText(t *testing.T) {
	m := NewTermFrequencyModeler(testutil.NewTestLogger(t))

	topics, dominant, err := m.Model([]string{"short", "tiny"})
	require.NoError(t, err)

	require.Len(t, topics, 5)
	for _, topic := range topics {
		assert.Empty(t, topic.Terms)
	}
	assert.Equal(t, []int{0, 0}, dominant)
}

// fakeModeler returns scripted topics and assignments.
type fakeModeler struct {
	topics   []Topic
	dominant []int
	err      error
}

func (f *fakeModeler) Model(texts []string) ([]Topic, []int, error) {
	return f.topics, f.dominant, f.err
}

func TestAssignTopics(t *testing.T) {
	records := []core.EnrichedRecord{
		{NormalizedRecord: core.NormalizedRecord{FullText: "budget talk"}},
		{NormalizedRecord: core.NormalizedRecord{FullText: "platform talk"}},
		{NormalizedRecord: core.NormalizedRecord{FullText: "stray"}},
	}

	modeler := &fakeModeler{
		topics: []Topic{
			{Terms: []string{"pricing", "budget"}},
			{Terms: []string{"platform", "tool"}},
		},
		dominant: []int{0, 1, 7}, // last index out of range
	}

	err := AssignTopics(modeler, records, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "Pricing & Budget", records[0].TopicLabel)
	assert.Equal(t, "Features & Tools", records[1].TopicLabel)
	assert.Equal(t, UnknownTopicLabel, records[2].TopicLabel)
}

func TestAssignTopics_CountMismatch(t *testing.T) {
	records := []core.EnrichedRecord{
		{NormalizedRecord: core.NormalizedRecord{FullText: "one"}},
		{NormalizedRecord: core.NormalizedRecord{FullText: "two"}},
	}

	modeler := &fakeModeler{
		topics:   []Topic{{Terms: []string{"pricing"}}},
		dominant: []int{0},
	}

	err := AssignTopics(modeler, records, testutil.NewTestLogger(t))
	require.Error(t, err)

	var countErr *ResultCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 2, countErr.Expected)
	assert.Equal(t, 1, countErr.Got)
}
