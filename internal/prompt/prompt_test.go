package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_ContainsContextAndQuestion(t *testing.T) {
	p := Answer("What does Andy do?", []string{"Andy is a software engineer.", "He enjoys coding."}, "English", 0)

	assert.Contains(t, p, "Andy is a software engineer.\nHe enjoys coding.")
	assert.Contains(t, p, "Question: What does Andy do?")
	assert.Contains(t, p, "in English")
	assert.NotContains(t, p, TruncationMarker)
}

func TestAnswer_EmptyContext(t *testing.T) {
	p := Answer("Anything?", nil, "English", 1000)

	assert.Contains(t, p, "Context:\n\n")
	assert.Contains(t, p, "no supporting material")
}

func TestAnswer_BudgetTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	p := Answer("q", []string{long, long}, "English", 600)

	assert.Equal(t, 1, strings.Count(p, TruncationMarker))
	assert.Less(t, strings.Index(p, TruncationMarker), strings.Index(p, "Question:"))
}

func TestPodcast_TargetWordCount(t *testing.T) {
	p := Podcast([]string{"some text"}, PodcastOptions{Minutes: 15})
	assert.Contains(t, p, "15 minutes")
	assert.Contains(t, p, "9000 words")
}

func TestPodcast_DelimitedChunksInOrder(t *testing.T) {
	p := Podcast([]string{"alpha", "beta"}, PodcastOptions{Minutes: 10, Speaker1: "Host", Speaker2: "Guest"})

	first := strings.Index(p, "<<CHUNK c1>>\nalpha\n<<END c1>>")
	second := strings.Index(p, "<<CHUNK c2>>\nbeta\n<<END c2>>")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)

	assert.Contains(t, p, `begin with "Host:" or "Guest:"`)
}

func TestPodcast_TruncationMarkerOnceAtEnd(t *testing.T) {
	chunks := []string{
		strings.Repeat("a", 15000),
		strings.Repeat("b", 15000),
	}
	p := Podcast(chunks, PodcastOptions{Minutes: 15, MaxContextChars: 20000})

	assert.Equal(t, 1, strings.Count(p, TruncationMarker))
	assert.True(t, strings.HasSuffix(p, TruncationMarker))
}

func TestPodcast_EmptyChunks(t *testing.T) {
	p := Podcast(nil, PodcastOptions{Minutes: 5})

	assert.Contains(t, p, "The source material follows")
	assert.NotContains(t, p, "<<CHUNK")
	assert.NotContains(t, p, TruncationMarker)
}

func TestPodcast_MultiByteBudgetDoesNotSplitRunes(t *testing.T) {
	chunks := []string{strings.Repeat("界", 200)}
	p := Podcast(chunks, PodcastOptions{Minutes: 5, MaxContextChars: 50})

	require.Contains(t, p, TruncationMarker)
	for _, r := range p {
		assert.NotEqual(t, '�', r, "prompt must not contain replacement characters")
	}
}

func TestPodcast_DefaultSpeakerLabels(t *testing.T) {
	p := Podcast([]string{"text"}, PodcastOptions{})
	assert.Contains(t, p, `"Speaker 1:" or "Speaker 2:"`)
	assert.Contains(t, p, "about 9000 words")
}
