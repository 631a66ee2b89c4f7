package script

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `Speaker 1: Welcome to the show.
Speaker 2: Thanks, glad to be here.
Speaker 1: Today we talk about retrieval.
And why it matters.
Speaker 2: Let's dig in.`

func TestParse(t *testing.T) {
	lines, err := Parse(sampleTranscript, "Speaker 1", "Speaker 2")
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, Line{Speaker: "Speaker 1", Text: "Welcome to the show."}, lines[0])
	assert.Equal(t, "Speaker 2", lines[1].Speaker)
	// Continuation lines fold into the previous turn.
	assert.Equal(t, "Today we talk about retrieval. And why it matters.", lines[2].Text)
}

func TestParse_UnprefixedFirstLine(t *testing.T) {
	_, err := Parse("no speaker here", "Speaker 1", "Speaker 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no speaker prefix")
}

func TestParse_SkipsBlankLines(t *testing.T) {
	lines, err := Parse("Host: hi\n\n\nGuest: hello\n", "Host", "Guest")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestParse_NoSpeakers(t *testing.T) {
	_, err := Parse("Host: hi")
	assert.Error(t, err)
}

func TestFormat_RoundTrips(t *testing.T) {
	lines, err := Parse(sampleTranscript, "Speaker 1", "Speaker 2")
	require.NoError(t, err)

	formatted := Format(lines)
	for _, raw := range strings.Split(strings.TrimSpace(formatted), "\n") {
		ok := strings.HasPrefix(raw, "Speaker 1: ") || strings.HasPrefix(raw, "Speaker 2: ")
		assert.True(t, ok, "line %q lacks a speaker prefix", raw)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(dir, "Host: hi\nGuest: hello")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Host: hi\nGuest: hello\n", string(data))
	assert.Contains(t, path, "script-")
}
