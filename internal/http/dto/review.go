package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scoreservice.app/review/common/id"
	"scoreservice.app/review/internal/model"
	"scoreservice.app/review/internal/service"
)

// maxSafeInteger is the largest integer a JavaScript client can send exactly.
const maxSafeInteger = 1<<53 - 1

// NumericID is a positive integer sent either as a JSON number or as a
// string of digits, e.g. 123 or " 123 ".
type NumericID struct {
	raw json.RawMessage
}

func (n *NumericID) UnmarshalJSON(data []byte) error {
	n.raw = append(n.raw[:0], data...)
	return nil
}

// Int64 returns the parsed value. Call it only after validation.
func (n NumericID) Int64() int64 {
	v, _ := n.parse("")
	return v
}

func (n NumericID) parse(label string) (int64, error) {
	raw := bytes.TrimSpace(n.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, validation.NewError("validation_required", label+" is required")
	}

	notPositive := validation.NewError("validation_positive_integer", label+" must be a positive integer")
	outOfRange := validation.NewError("validation_safe_integer", label+" must be within the safe integer range")

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, notPositive
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, validation.NewError("validation_required", label+" is required")
		}
		for _, r := range text {
			if r < '0' || r > '9' {
				return 0, notPositive
			}
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil || v > maxSafeInteger {
			return 0, outOfRange
		}
		if v == 0 {
			return 0, notPositive
		}
		return v, nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, notPositive
	}
	f, err := num.Float64()
	if err != nil {
		return 0, outOfRange
	}
	if f <= 0 || f != math.Trunc(f) {
		return 0, notPositive
	}
	if f > maxSafeInteger {
		return 0, outOfRange
	}
	return int64(f), nil
}

func numericID(label string) validation.Rule {
	return validation.By(func(value any) error {
		n, _ := value.(NumericID)
		_, err := n.parse(label)
		return err
	})
}

func notBlank(label string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_required", label+" is required")
		}
		return nil
	})
}

func nonNegative(value any) error {
	depth, _ := value.(*int)
	if depth != nil && *depth < 0 {
		return validation.NewError("validation_max_depth", "maxDepth must be greater than or equal to 0")
	}
	return nil
}

type BacklogAnalysisRequest struct {
	ProjectID              NumericID `json:"projectId"`
	DesignDocumentID       NumericID `json:"designDocumentId"`
	RequirementsDocumentID NumericID `json:"requirementsDocumentId"`
	APIKey                 string    `json:"apiKey"`
}

func (r BacklogAnalysisRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectID, numericID("Backlog project ID")),
		validation.Field(&r.DesignDocumentID, numericID("Design document ID")),
		validation.Field(&r.RequirementsDocumentID, numericID("Requirements document ID")),
		validation.Field(&r.APIKey, notBlank("Backlog API key")),
	)
}

type OpenAIRequest struct {
	APIKey string `json:"apiKey"`
}

func (r OpenAIRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, notBlank("OpenAI API key")),
	)
}

type AnalysisRequest struct {
	Backlog  BacklogAnalysisRequest `json:"backlog"`
	OpenAI   OpenAIRequest          `json:"openAi"`
	Model    string                 `json:"model,omitempty"`
	MaxDepth *int                   `json:"maxDepth,omitempty"`
}

func (r AnalysisRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Backlog),
		validation.Field(&r.OpenAI),
		validation.Field(&r.MaxDepth, validation.By(nonNegative)),
	)
}

func (r AnalysisRequest) ToParams() service.AnalysisParams {
	return service.AnalysisParams{
		ProjectID:              r.Backlog.ProjectID.Int64(),
		DesignDocumentID:       r.Backlog.DesignDocumentID.Int64(),
		RequirementsDocumentID: r.Backlog.RequirementsDocumentID.Int64(),
		BacklogAPIKey:          strings.TrimSpace(r.Backlog.APIKey),
		LLMAPIKey:              strings.TrimSpace(r.OpenAI.APIKey),
		Model:                  strings.TrimSpace(r.Model),
		MaxDepth:               r.MaxDepth,
	}
}

type AnalysisResponse struct {
	ID        string                    `json:"id"`
	ReviewID  string                    `json:"reviewId"`
	Documents int                       `json:"documents"`
	Result    *model.DesignReviewResult `json:"result"`
}

func ToAnalysisResponse(a *service.Analysis) *AnalysisResponse {
	return &AnalysisResponse{
		ID:        a.ID,
		ReviewID:  id.Format(a.ReviewID),
		Documents: a.Documents,
		Result:    a.Result,
	}
}

type DesignReviewRequest struct {
	APIKey string `json:"apiKey"`
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

func (r DesignReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, notBlank("apiKey")),
		validation.Field(&r.Prompt, notBlank("prompt")),
	)
}

func (r DesignReviewRequest) ToParams() service.DesignReviewParams {
	return service.DesignReviewParams{
		APIKey: strings.TrimSpace(r.APIKey),
		Prompt: strings.TrimSpace(r.Prompt),
		Model:  strings.TrimSpace(r.Model),
	}
}

type DesignReviewResponse struct {
	ID     string                    `json:"id"`
	Result *model.DesignReviewResult `json:"result"`
}

// DocumentTreeRequest accepts documentId as a number (classic documents)
// or a string (Document (Beta) ids).
type DocumentTreeRequest struct {
	ProjectIDOrKey string          `json:"projectIdOrKey"`
	APIKey         string          `json:"apiKey"`
	DocumentID     json.RawMessage `json:"documentId"`
	MaxDepth       *int            `json:"maxDepth,omitempty"`
}

func (r DocumentTreeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectIDOrKey, notBlank("projectIdOrKey")),
		validation.Field(&r.APIKey, notBlank("apiKey")),
		validation.Field(&r.DocumentID, validation.By(func(value any) error {
			raw, _ := value.(json.RawMessage)
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
				return validation.NewError("validation_required", "documentId is required")
			}
			return nil
		})),
		validation.Field(&r.MaxDepth, validation.By(nonNegative)),
	)
}

// RootID decodes documentId keeping numbers as json.Number so the tree
// builder can tell 12 from 12.5.
func (r DocumentTreeRequest) RootID() any {
	dec := json.NewDecoder(bytes.NewReader(r.DocumentID))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func (r DocumentTreeRequest) ToParams() service.DocumentTreeParams {
	return service.DocumentTreeParams{
		ProjectIDOrKey: strings.TrimSpace(r.ProjectIDOrKey),
		APIKey:         strings.TrimSpace(r.APIKey),
		DocumentID:     r.RootID(),
		MaxDepth:       r.MaxDepth,
	}
}

type DocumentTreeResponse struct {
	Documents int                     `json:"documents"`
	Tree      *model.DocumentTreeNode `json:"tree"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
