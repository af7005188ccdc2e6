package backlog_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scoreservice.app/review/internal/backlog"
	"scoreservice.app/review/internal/model"
)

func doc(id, name string) string {
	return fmt.Sprintf(`{"id":%s,"projectId":1,"name":%q,"content":"<p>%s</p>"}`, id, name, name)
}

func names(nodes []model.DocumentTreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

var _ = Describe("FetchDocumentTree", func() {
	var (
		fake   *fakeBacklog
		client *backlog.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = newFakeBacklog()

		var err error
		client, err = backlog.NewClient(backlog.Config{
			BaseURL:        fake.server.URL,
			APIKey:         "key",
			ProjectIDOrKey: "PRJ",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		fake.close()
	})

	Context("with a three level tree", func() {
		BeforeEach(func() {
			fake.on("documents/1", doc("1", "root"))
			fake.on("documents/1/children", `[{"id":3,"name":"b","displayOrder":2},{"id":2,"name":"a","displayOrder":1}]`)
			fake.on("documents/2", doc("2", "a"))
			fake.on("documents/2/children", `[{"id":4,"name":"a1"}]`)
			fake.on("documents/3", doc("3", "b"))
			fake.on("documents/3/children", `[]`)
			fake.on("documents/4", doc("4", "a1"))
			fake.on("documents/4/children", `[]`)
		})

		It("walks every descendant when no depth is given", func() {
			tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
			Expect(err).NotTo(HaveOccurred())

			Expect(tree.Name).To(Equal("root"))
			Expect(tree.Content).To(Equal("<p>root</p>"))
			Expect(names(tree.Children)).To(Equal([]string{"a", "b"}))
			Expect(names(tree.Children[0].Children)).To(Equal([]string{"a1"}))
			Expect(tree.Children[1].Children).To(BeEmpty())
			Expect(tree.Children[0].Children[0].Children).NotTo(BeNil())
			Expect(tree.Count()).To(Equal(4))
		})

		It("returns the root alone at depth 0 without listing children", func() {
			tree, err := client.FetchDocumentTree(ctx, "1", backlog.TreeOptions{MaxDepth: backlog.Depth(0)})
			Expect(err).NotTo(HaveOccurred())

			Expect(tree.Name).To(Equal("root"))
			Expect(tree.Children).NotTo(BeNil())
			Expect(tree.Children).To(BeEmpty())
			Expect(fake.totalHits("/children")).To(Equal(0))
		})

		It("stops at the requested depth", func() {
			tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{MaxDepth: backlog.Depth(1)})
			Expect(err).NotTo(HaveOccurred())

			Expect(names(tree.Children)).To(Equal([]string{"a", "b"}))
			Expect(tree.Children[0].Children).To(BeEmpty())
			Expect(fake.hitCount("documents/2/children")).To(Equal(0))
			Expect(fake.hitCount("documents/4")).To(Equal(0))
		})

		It("keeps display order when later siblings finish first", func() {
			fake.respond("documents/2", fakeResponse{body: doc("2", "a"), delay: 150 * time.Millisecond})

			tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(tree.Children)).To(Equal([]string{"a", "b"}))
		})

		It("fails the whole tree when any document fails", func() {
			fake.respond("documents/4", fakeResponse{status: 500, body: `{"message":"boom"}`})

			tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
			Expect(tree).To(BeNil())

			var remote *backlog.RemoteAPIError
			Expect(errors.As(err, &remote)).To(BeTrue())
			Expect(remote.Detail).To(Equal("boom"))
		})
	})

	It("detects a document that lists an ancestor as its child", func() {
		fake.on("documents/1", doc("1", "root"))
		fake.on("documents/1/children", `[{"id":2,"name":"child"}]`)
		fake.on("documents/2", doc("2", "child"))
		fake.on("documents/2/children", `[{"id":1,"name":"root"}]`)

		_, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})

		var circular *backlog.CircularReferenceError
		Expect(errors.As(err, &circular)).To(BeTrue())
		Expect(circular.DocumentID).To(Equal("1"))
		Expect(err).To(MatchError("detected circular reference for document 1"))
	})

	It("detects a document listing itself", func() {
		fake.on("documents/7", doc("7", "self"))
		fake.on("documents/7/children", `[{"id":"7","name":"self"}]`)

		_, err := client.FetchDocumentTree(ctx, "7", backlog.TreeOptions{})
		Expect(err).To(MatchError("detected circular reference for document 7"))
	})

	It("allows the same document in separate subtrees", func() {
		fake.on("documents/1", doc("1", "root"))
		fake.on("documents/1/children", `[{"id":2,"name":"a","displayOrder":1},{"id":3,"name":"b","displayOrder":2}]`)
		fake.on("documents/2", doc("2", "a"))
		fake.on("documents/2/children", `[{"id":9,"name":"shared"}]`)
		fake.on("documents/3", doc("3", "b"))
		fake.on("documents/3/children", `[{"id":9,"name":"shared"}]`)
		fake.on("documents/9", doc("9", "shared"))
		fake.on("documents/9/children", `[]`)

		tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(names(tree.Children[0].Children)).To(Equal([]string{"shared"}))
		Expect(names(tree.Children[1].Children)).To(Equal([]string{"shared"}))
		Expect(fake.hitCount("documents/9")).To(Equal(2))
	})

	It("skips the children request when a summary says there are none", func() {
		fake.on("documents/1", doc("1", "root"))
		fake.on("documents/1/children", `[{"id":2,"name":"leaf","hasChildren":false}]`)
		fake.on("documents/2", doc("2", "leaf"))

		tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(names(tree.Children)).To(Equal([]string{"leaf"}))
		Expect(fake.hitCount("documents/2/children")).To(Equal(0))
	})

	It("accepts string document ids from Document (Beta) trees", func() {
		fake.on("documents/01HX", `{"id":"01HX","name":"beta","body":"text"}`)
		fake.on("documents/01HX/children", `[]`)

		tree, err := client.FetchDocumentTree(ctx, " 01HX ", backlog.TreeOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.ID).To(Equal(model.DocumentID("01HX")))
		Expect(tree.Content).To(Equal("text"))
	})

	DescribeTable("blames Backlog for child summaries that cannot address a document",
		func(children string, message string) {
			fake.on("documents/1", doc("1", "root"))
			fake.on("documents/1/children", children)

			_, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
			Expect(err).To(MatchError(ContainSubstring(message)))
			Expect(backlog.IsUpstream(err)).To(BeTrue())
			Expect(errors.Is(err, backlog.ErrInvalidIdentifier)).To(BeFalse())
			Expect(fake.totalHits("documents/0")).To(Equal(0))
		},
		Entry("negative id", `[{"id":-5,"name":"bad"}]`, "document id -5 must be a positive integer"),
		Entry("zero id", `[{"id":0,"name":"bad"}]`, "document id 0 must be a positive integer"),
		Entry("fractional id", `[{"id":2.5,"name":"bad"}]`, "document id 2.5 must be a positive integer"),
		Entry("null id", `[{"id":null,"name":"bad"}]`, `backlog document 1 listed a child with an invalid id: ""`),
		Entry("blank string id", `[{"id":"  ","name":"bad"}]`, `backlog document 1 listed a child with an invalid id: ""`),
	)

	It("caps how many siblings are fetched at once", func() {
		var summaries []string
		fake.on("documents/1", doc("1", "root"))
		for i := 2; i <= 13; i++ {
			summaries = append(summaries, fmt.Sprintf(`{"id":%d,"name":"c%d","hasChildren":false}`, i, i))
			fake.respond(fmt.Sprintf("documents/%d", i), fakeResponse{body: doc(fmt.Sprint(i), fmt.Sprintf("c%d", i)), delay: 40 * time.Millisecond})
		}
		fake.on("documents/1/children", "["+strings.Join(summaries, ",")+"]")

		tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{SiblingConcurrency: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Children).To(HaveLen(12))
		Expect(fake.peakInFlight()).To(BeNumerically("<=", 3))
		Expect(fake.peakInFlight()).To(BeNumerically(">", 1))
	})

	It("canonicalizes numeric child ids", func() {
		fake.on("documents/1", doc("1", "root"))
		fake.on("documents/1/children", `[{"id":2.0,"name":"a","hasChildren":false}]`)
		fake.on("documents/2", doc("2", "a"))

		tree, err := client.FetchDocumentTree(ctx, 1, backlog.TreeOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Children[0].ID).To(Equal(model.DocumentID("2")))
	})

	DescribeTable("rejects invalid input before any network call",
		func(rootID any, opts backlog.TreeOptions, target error) {
			_, err := client.FetchDocumentTree(ctx, rootID, opts)
			Expect(err).To(MatchError(target))
			Expect(errors.Is(err, backlog.ErrInvalidIdentifier)).To(BeTrue())
			Expect(fake.totalHits("")).To(Equal(0))
		},
		Entry("empty string", "", backlog.TreeOptions{}, backlog.ErrInvalidIdentifier),
		Entry("blank string", "   ", backlog.TreeOptions{}, backlog.ErrInvalidIdentifier),
		Entry("nil", nil, backlog.TreeOptions{}, backlog.ErrInvalidIdentifier),
		Entry("fractional number", 1.5, backlog.TreeOptions{}, backlog.ErrInvalidIdentifier),
		Entry("boolean", true, backlog.TreeOptions{}, backlog.ErrInvalidIdentifier),
		Entry("negative depth", 1, backlog.TreeOptions{MaxDepth: backlog.Depth(-1)}, backlog.ErrInvalidMaxDepth),
	)
})
