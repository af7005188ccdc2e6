package backlog

// contentFields are the body fields Backlog may return. content and
// shownContent come from the classic document API, body/bodyHTML/bodyHtml
// and htmlContent from Document (Beta). JSON null and a missing key both
// decode to nil.
type contentFields struct {
	Content      *string `json:"content"`
	ShownContent *string `json:"shownContent"`
	Body         *string `json:"body"`
	BodyHTML     *string `json:"bodyHTML"`
	BodyHtml     *string `json:"bodyHtml"`
	HTMLContent  *string `json:"htmlContent"`
}

type contentCandidate struct {
	field string
	get   func(contentFields) *string
}

// contentCandidates lists the body fields in priority order.
var contentCandidates = []contentCandidate{
	{field: "content", get: func(f contentFields) *string { return f.Content }},
	{field: "shownContent", get: func(f contentFields) *string { return f.ShownContent }},
	{field: "body", get: func(f contentFields) *string { return f.Body }},
	{field: "bodyHTML", get: func(f contentFields) *string { return f.BodyHTML }},
	{field: "bodyHtml", get: func(f contentFields) *string { return f.BodyHtml }},
	{field: "htmlContent", get: func(f contentFields) *string { return f.HTMLContent }},
}

// pickContent returns the first candidate that is present and non-null.
// An empty string is valid content.
func pickContent(f contentFields) (content string, field string, ok bool) {
	for _, c := range contentCandidates {
		if v := c.get(f); v != nil {
			return *v, c.field, true
		}
	}
	return "", "", false
}
