package openai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/kailas-cloud/postgen/internal/domain"
)

var promptTemplate = template.Must(template.New("post").Parse(
	`Write a high-engagement LinkedIn post (under 250 words) about: "{{.Idea}}"
Tone: {{.Tone}}
Structure:
1. Hook (bold claim or question)
2. 1-sentence insight
3. CTA: "Save this if..."
Use 2 emojis. End with 3 hashtags.
`))

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(idea string, tone domain.Tone) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Idea string
		Tone domain.Tone
	}{Idea: idea, Tone: tone})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
