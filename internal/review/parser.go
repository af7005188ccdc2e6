package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"scoreservice.app/review/internal/model"
)

// InvalidResultError reports a model response that does not have the shape
// of a DesignReviewResult. Path is the dotted/bracketed location of the
// offending field, empty when the whole response is at fault.
type InvalidResultError struct {
	Path   string
	Reason string
}

func (e *InvalidResultError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + " " + e.Reason
}

// IsInvalidResult reports whether err is or wraps an *InvalidResultError.
func IsInvalidResult(err error) bool {
	var invalid *InvalidResultError
	return errors.As(err, &invalid)
}

func invalid(path, reason string) error {
	return &InvalidResultError{Path: path, Reason: reason}
}

const rootPath = "rootDocument"

// ParseDesignReviewResult validates a raw model response and extracts the
// review in one pass. Fields are checked in declaration order and the first
// failure is returned, so the same input always yields the same error.
//
// Strings are trimmed only to decide emptiness; the result keeps the
// original text.
func ParseDesignReviewResult(text string) (*model.DesignReviewResult, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, invalid("", "response must be valid JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalid("", "response must be valid JSON")
	}

	envelope, ok := parsed.(map[string]any)
	if !ok {
		return nil, invalid("", "response JSON must be an object")
	}

	raw, ok := envelope[rootPath]
	if !ok || raw == nil {
		return nil, invalid(rootPath, "is required")
	}

	root, err := parseDocument(raw, rootPath)
	if err != nil {
		return nil, err
	}

	return &model.DesignReviewResult{RootDocument: root}, nil
}

func parseDocument(v any, path string) (model.DesignReviewDocumentResult, error) {
	var doc model.DesignReviewDocumentResult

	obj, err := expectObject(v, path)
	if err != nil {
		return doc, err
	}

	if doc.ID, err = expectString(obj["id"], field(path, "id")); err != nil {
		return doc, err
	}
	if doc.DocumentTitle, err = expectString(obj["documentTitle"], field(path, "documentTitle")); err != nil {
		return doc, err
	}
	if doc.Breadcrumbs, err = parseList(obj["breadcrumbs"], field(path, "breadcrumbs"), parseBreadcrumb); err != nil {
		return doc, err
	}
	if doc.TotalScore, err = parseScore(obj["totalScore"], field(path, "totalScore")); err != nil {
		return doc, err
	}
	if doc.OverallEvaluation, err = parseOverallEvaluation(obj["overallEvaluation"], field(path, "overallEvaluation")); err != nil {
		return doc, err
	}
	if doc.SectionEvaluations, err = parseList(obj["sectionEvaluations"], field(path, "sectionEvaluations"), parseSection); err != nil {
		return doc, err
	}
	if doc.ImprovementSuggestions, err = parseList(obj["improvementSuggestions"], field(path, "improvementSuggestions"), parseImprovement); err != nil {
		return doc, err
	}
	if doc.ChildDocuments, err = parseList(obj["childDocuments"], field(path, "childDocuments"), parseDocument); err != nil {
		return doc, err
	}

	return doc, nil
}

func parseBreadcrumb(v any, path string) (model.DesignReviewBreadcrumb, error) {
	var crumb model.DesignReviewBreadcrumb

	obj, err := expectObject(v, path)
	if err != nil {
		return crumb, err
	}

	if crumb.Label, err = expectString(obj["label"], field(path, "label")); err != nil {
		return crumb, err
	}

	// href is optional but, when present, any string is accepted, "" included.
	if raw, ok := obj["href"]; ok {
		href, isString := raw.(string)
		if !isString {
			return crumb, invalid(field(path, "href"), "must be a string")
		}
		crumb.Href = &href
	}

	return crumb, nil
}

func parseScore(v any, path string) (model.DesignReviewScore, error) {
	var score model.DesignReviewScore

	obj, err := expectObject(v, path)
	if err != nil {
		return score, err
	}

	if score.Value, err = expectNumber(obj["value"], field(path, "value")); err != nil {
		return score, err
	}
	if score.Max, err = expectNumber(obj["max"], field(path, "max")); err != nil {
		return score, err
	}

	return score, nil
}

func parseOverallEvaluation(v any, path string) (model.DesignReviewOverallEvaluation, error) {
	var eval model.DesignReviewOverallEvaluation

	obj, err := expectObject(v, path)
	if err != nil {
		return eval, err
	}

	if eval.RatingLabel, err = expectString(obj["ratingLabel"], field(path, "ratingLabel")); err != nil {
		return eval, err
	}
	if eval.Summary, err = expectString(obj["summary"], field(path, "summary")); err != nil {
		return eval, err
	}

	return eval, nil
}

func parseSection(v any, path string) (model.DesignReviewSection, error) {
	var section model.DesignReviewSection

	obj, err := expectObject(v, path)
	if err != nil {
		return section, err
	}

	if section.ID, err = expectString(obj["id"], field(path, "id")); err != nil {
		return section, err
	}
	if section.Title, err = expectString(obj["title"], field(path, "title")); err != nil {
		return section, err
	}
	if section.Score, err = parseScore(obj["score"], field(path, "score")); err != nil {
		return section, err
	}
	if section.Summary, err = expectString(obj["summary"], field(path, "summary")); err != nil {
		return section, err
	}
	if section.Highlights, err = parseList(obj["highlights"], field(path, "highlights"), expectString); err != nil {
		return section, err
	}

	return section, nil
}

func parseImprovement(v any, path string) (model.DesignReviewImprovement, error) {
	var improvement model.DesignReviewImprovement

	obj, err := expectObject(v, path)
	if err != nil {
		return improvement, err
	}

	if improvement.Title, err = expectString(obj["title"], field(path, "title")); err != nil {
		return improvement, err
	}
	if improvement.Description, err = expectString(obj["description"], field(path, "description")); err != nil {
		return improvement, err
	}

	return improvement, nil
}

// parseList validates an array and parses each element with parse.
// An empty array yields an empty, non-nil slice.
func parseList[T any](v any, path string, parse func(any, string) (T, error)) ([]T, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalid(path, "must be an array")
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		parsed, err := parse(item, index(path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func expectObject(v any, path string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(path, "must be an object")
	}
	return obj, nil
}

func expectString(v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", invalid(path, "must be a non-empty string")
	}
	return s, nil
}

func expectNumber(v any, path string) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, invalid(path, "must be a number")
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, invalid(path, "must be a number")
	}
	return f, nil
}

func field(path, name string) string {
	return path + "." + name
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
