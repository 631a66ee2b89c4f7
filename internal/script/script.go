package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"paperpod/internal/helper"
)

// Line is one speaker turn of a transcript.
type Line struct {
	Speaker string
	Text    string
}

// Parse splits a generated transcript into speaker turns. Every turn must
// begin with "<speaker>: " for one of the given labels; text without a
// prefix is folded into the previous turn, matching the instructed output
// format where a speaker change is the only reason to start a new line.
func Parse(transcript string, speakers ...string) ([]Line, error) {
	if len(speakers) == 0 {
		return nil, fmt.Errorf("at least one speaker label is required")
	}

	var lines []Line
	for i, raw := range strings.Split(transcript, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		matched := false
		for _, speaker := range speakers {
			prefix := speaker + ":"
			if strings.HasPrefix(text, prefix) {
				lines = append(lines, Line{
					Speaker: speaker,
					Text:    strings.TrimSpace(strings.TrimPrefix(text, prefix)),
				})
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if len(lines) == 0 {
			return nil, fmt.Errorf("transcript line %d has no speaker prefix: %q", i+1, text)
		}
		last := &lines[len(lines)-1]
		last.Text = strings.TrimSpace(last.Text + " " + text)
	}
	return lines, nil
}

// Format renders speaker turns back into the "<speaker>: text" line form
// the TTS consumer expects.
func Format(lines []Line) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line.Speaker + ": " + line.Text + "\n")
	}
	return b.String()
}

// Save writes the transcript into dir under a unique file name and returns
// the full path.
func Save(dir, transcript string) (string, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return "", err
	}
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "script-"+id+".txt")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(transcript)+"\n"), 0644); err != nil {
		return "", err
	}
	return path, nil
}
