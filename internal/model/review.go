package model

// DesignReviewResult is the top-level envelope a model returns for a review.
// The jsonschema_description tags end up in the schema sent with the request.
type DesignReviewResult struct {
	RootDocument DesignReviewDocumentResult `json:"rootDocument" jsonschema_description:"Review of the root design document, with its descendants under childDocuments."`
}

// DesignReviewDocumentResult mirrors one document of the reviewed tree.
type DesignReviewDocumentResult struct {
	ID                     string                        `json:"id" jsonschema_description:"Backlog document id exactly as shown in the outline, e.g. 12345."`
	DocumentTitle          string                        `json:"documentTitle" jsonschema_description:"Document name exactly as shown in the outline."`
	Breadcrumbs            []DesignReviewBreadcrumb      `json:"breadcrumbs" jsonschema_description:"Path from the root document down to and including this one."`
	TotalScore             DesignReviewScore             `json:"totalScore" jsonschema_description:"Overall score for this document alone."`
	OverallEvaluation      DesignReviewOverallEvaluation `json:"overallEvaluation"`
	SectionEvaluations     []DesignReviewSection         `json:"sectionEvaluations" jsonschema_description:"One entry per review aspect such as completeness or consistency with the requirements."`
	ImprovementSuggestions []DesignReviewImprovement     `json:"improvementSuggestions" jsonschema_description:"Concrete changes that would raise the score. Empty when none apply."`
	ChildDocuments         []DesignReviewDocumentResult  `json:"childDocuments" jsonschema_description:"Reviews of the direct child documents in outline order. Empty for leaves."`
}

type DesignReviewBreadcrumb struct {
	Label string  `json:"label" jsonschema_description:"Document name."`
	Href  *string `json:"href,omitempty" jsonschema_description:"Optional link to the document. Omit when unknown."`
}

// DesignReviewScore is a value out of max. value <= max is expected but not enforced.
type DesignReviewScore struct {
	Value float64 `json:"value" jsonschema_description:"Points awarded. Between 0 and max."`
	Max   float64 `json:"max" jsonschema_description:"Points available."`
}

type DesignReviewOverallEvaluation struct {
	RatingLabel string `json:"ratingLabel" jsonschema_description:"Short verdict such as Good or Needs work."`
	Summary     string `json:"summary" jsonschema_description:"Two or three sentences on the document as a whole."`
}

type DesignReviewSection struct {
	ID         string            `json:"id" jsonschema_description:"Stable slug for the aspect, e.g. completeness."`
	Title      string            `json:"title"`
	Score      DesignReviewScore `json:"score"`
	Summary    string            `json:"summary"`
	Highlights []string          `json:"highlights" jsonschema_description:"Specific observations backing the score."`
}

type DesignReviewImprovement struct {
	Title       string `json:"title"`
	Description string `json:"description" jsonschema_description:"What to change and where."`
}
