package review

import (
	"fmt"
	"strings"

	"scoreservice.app/review/internal/model"
)

const (
	DefaultLanguage = "Japanese"

	// maxContentRunes caps each document body in the user prompt.
	maxContentRunes = 12000
)

const systemPromptTemplate = `You are a reviewer of product design documents. Evaluate the design information you are given and propose improvements.

Respond with valid JSON only. Do not wrap it in a code block and do not add any other text. The top level must be exactly { "rootDocument": {...} }.

Fields of rootDocument:
- id: string
- documentTitle: string
- breadcrumbs: array of { label: string, href?: string }
- totalScore: { value: number, max: number }
- overallEvaluation: { ratingLabel: string, summary: string }
- sectionEvaluations: array of { id: string, title: string, score: { value: number, max: number }, summary: string, highlights: string[] }
- improvementSuggestions: array of { title: string, description: string }
- childDocuments: array of objects with exactly the same fields as rootDocument (recursive). Use [] when a document has no children.

Do not use null. Omit optional fields you do not need. Empty arrays are written as [], highlights and improvementSuggestions included. childDocuments must mirror the design document tree: one entry per child in the given order, with the document id as id. Every score value must not exceed its max.

Write ratingLabel, summary, description and each highlight in %s. summary and description are one to three sentences.`

// SystemPrompt returns the review instructions, asking for prose in language.
func SystemPrompt(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	return fmt.Sprintf(systemPromptTemplate, language)
}

// PromptInput is what the user prompt is built from. Requirements is optional.
type PromptInput struct {
	ProjectID    string
	Design       *model.DocumentTreeNode
	Requirements *model.DocumentTreeNode
}

// PromptBuilder renders document trees into the user prompt.
type PromptBuilder struct {
	converter *ContentConverter
}

func NewPromptBuilder(converter *ContentConverter) *PromptBuilder {
	if converter == nil {
		converter = NewContentConverter()
	}
	return &PromptBuilder{converter: converter}
}

// Build renders the user prompt: a one-line summary per tree followed by an
// outline of every document with its breadcrumb trail and Markdown body.
func (b *PromptBuilder) Build(in PromptInput) (string, error) {
	if in.Design == nil {
		return "", fmt.Errorf("design document tree is required")
	}

	var sb strings.Builder

	sb.WriteString(TreeSummary(in.ProjectID, in.Design))
	sb.WriteString("\n")
	if in.Requirements != nil {
		fmt.Fprintf(&sb, "Requirements tree with %d documents.\n", in.Requirements.Count())
	}

	sb.WriteString("\n# Design documents\n\n")
	if err := b.writeTree(&sb, in.Design); err != nil {
		return "", err
	}

	if in.Requirements != nil {
		sb.WriteString("\n# Requirements documents\n\n")
		if err := b.writeTree(&sb, in.Requirements); err != nil {
			return "", err
		}
		sb.WriteString("\nEvaluate how well the design documents satisfy the requirements documents.")
	} else {
		sb.WriteString("\nEvaluate the design documents.")
	}
	sb.WriteString(" Return one result per design document, nested the same way as the outline above.\n")

	return sb.String(), nil
}

// TreeSummary is the one-line description of a document tree.
func TreeSummary(projectID string, tree *model.DocumentTreeNode) string {
	return fmt.Sprintf("Project %s document tree with %d documents.", projectID, tree.Count())
}

func (b *PromptBuilder) writeTree(sb *strings.Builder, tree *model.DocumentTreeNode) error {
	var walkErr error
	tree.Walk(func(node model.DocumentTreeNode, path []string) {
		if walkErr != nil {
			return
		}

		content, err := b.converter.ToMarkdown(node.Content)
		if err != nil {
			walkErr = fmt.Errorf("document %s: %w", node.ID, err)
			return
		}

		fmt.Fprintf(sb, "%s [%s] %s\n", strings.Repeat("#", min(len(path)+1, 6)), node.ID, node.Name)
		fmt.Fprintf(sb, "Breadcrumbs: %s\n\n", strings.Join(path, " > "))
		if content == "" {
			sb.WriteString("(no content)\n\n")
			return
		}
		sb.WriteString(clip(content, maxContentRunes))
		sb.WriteString("\n\n")
	})
	return walkErr
}

func clip(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "\n(truncated)"
}
