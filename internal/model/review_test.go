package model_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scoreservice.app/review/common/llm"
	"scoreservice.app/review/internal/model"
)

var _ = Describe("DesignReviewResult schema", func() {
	var defs map[string]any

	BeforeEach(func() {
		raw, err := json.Marshal(llm.GenerateSchema[model.DesignReviewResult]())
		Expect(err).NotTo(HaveOccurred())

		var schema map[string]any
		Expect(json.Unmarshal(raw, &schema)).To(Succeed())
		Expect(schema).To(HaveKey("$defs"))
		defs = schema["$defs"].(map[string]any)
	})

	property := func(def, name string) map[string]any {
		Expect(defs).To(HaveKey(def))
		props := defs[def].(map[string]any)["properties"].(map[string]any)
		Expect(props).To(HaveKey(name))
		return props[name].(map[string]any)
	}

	It("describes the fields the model tends to get wrong", func() {
		Expect(property("DesignReviewDocumentResult", "id")).To(HaveKeyWithValue("description", ContainSubstring("exactly as shown in the outline")))
		Expect(property("DesignReviewDocumentResult", "childDocuments")).To(HaveKeyWithValue("description", ContainSubstring("outline order")))
		Expect(property("DesignReviewScore", "value")).To(HaveKeyWithValue("description", ContainSubstring("Between 0 and max")))
		Expect(property("DesignReviewBreadcrumb", "href")).To(HaveKeyWithValue("description", ContainSubstring("Optional")))
	})
})
