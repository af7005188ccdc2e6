package backlog_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scoreservice.app/review/internal/backlog"
	"scoreservice.app/review/internal/model"
)

var _ = Describe("Client", func() {
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
			APIKey:         "secret-key",
			ProjectIDOrKey: " PRJ ",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		fake.close()
	})

	Describe("NewClient", func() {
		DescribeTable("rejects incomplete configuration",
			func(cfg backlog.Config, message string) {
				_, err := backlog.NewClient(cfg)
				Expect(err).To(MatchError(ContainSubstring(message)))
			},
			Entry("missing base url", backlog.Config{APIKey: "k", ProjectIDOrKey: "PRJ"}, "base url is required"),
			Entry("missing api key", backlog.Config{BaseURL: "https://x.backlog.com", ProjectIDOrKey: "PRJ"}, "api key is required"),
			Entry("blank project", backlog.Config{BaseURL: "https://x.backlog.com", APIKey: "k", ProjectIDOrKey: "  "}, "project id or key is required"),
			Entry("base url without host", backlog.Config{BaseURL: "not a url", APIKey: "k", ProjectIDOrKey: "PRJ"}, "is invalid"),
		)
	})

	Describe("FetchDocument", func() {
		It("uses inline content and passes the api key", func() {
			fake.on("documents/10", `{"id":10,"projectId":1,"name":"Design","content":"<p>body</p>"}`)

			doc, err := client.FetchDocument(ctx, "10")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.ID).To(Equal(model.DocumentID("10")))
			Expect(doc.ProjectID).To(Equal(int64(1)))
			Expect(doc.Name).To(Equal("Design"))
			Expect(doc.Content).To(Equal("<p>body</p>"))
			Expect(fake.hitCount("documents/10/content")).To(Equal(0))
			Expect(fake.apiKeys).To(ConsistOf("secret-key"))
		})

		It("falls through null fields to the next candidate", func() {
			fake.on("documents/10", `{"id":10,"name":"Design","content":null,"shownContent":"x"}`)

			doc, err := client.FetchDocument(ctx, "10")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Content).To(Equal("x"))
			Expect(fake.hitCount("documents/10/content")).To(Equal(0))
		})

		DescribeTable("resolves Document (Beta) body fields",
			func(body, expected string) {
				fake.on("documents/abc", body)

				doc, err := client.FetchDocument(ctx, "abc")
				Expect(err).NotTo(HaveOccurred())
				Expect(doc.Content).To(Equal(expected))
			},
			Entry("body", `{"id":"abc","name":"n","body":"plain"}`, "plain"),
			Entry("bodyHTML", `{"id":"abc","name":"n","bodyHTML":"<b>a</b>"}`, "<b>a</b>"),
			Entry("bodyHtml", `{"id":"abc","name":"n","bodyHtml":"<i>b</i>"}`, "<i>b</i>"),
			Entry("htmlContent", `{"id":"abc","name":"n","htmlContent":"<u>c</u>"}`, "<u>c</u>"),
			Entry("priority order", `{"id":"abc","name":"n","htmlContent":"last","body":"first"}`, "first"),
		)

		It("accepts empty string content without calling the content endpoint", func() {
			fake.on("documents/10", `{"id":10,"name":"Empty","content":""}`)

			doc, err := client.FetchDocument(ctx, "10")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Content).To(BeEmpty())
			Expect(fake.hitCount("documents/10/content")).To(Equal(0))
		})

		It("falls back to the content endpoint", func() {
			fake.on("documents/10", `{"id":10,"name":"Meta only"}`)
			fake.on("documents/10/content", `{"content":"<p>y</p>"}`)

			doc, err := client.FetchDocument(ctx, "10")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Content).To(Equal("<p>y</p>"))
			Expect(doc.Name).To(Equal("Meta only"))
			Expect(fake.hitCount("documents/10/content")).To(Equal(1))
		})

		It("fails with ContentMissingError when neither endpoint has content", func() {
			fake.on("documents/10", `{"id":10,"name":"Nothing"}`)
			fake.on("documents/10/content", `{"content":null}`)

			_, err := client.FetchDocument(ctx, "10")
			var missing *backlog.ContentMissingError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.DocumentID).To(Equal("10"))
			Expect(err).To(MatchError("backlog document 10 did not contain content"))
		})

		It("propagates content endpoint failures", func() {
			fake.on("documents/10", `{"id":10,"name":"Nothing"}`)

			_, err := client.FetchDocument(ctx, "10")
			var remote *backlog.RemoteAPIError
			Expect(errors.As(err, &remote)).To(BeTrue())
			Expect(remote.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("escapes identifiers used as path segments", func() {
			fake.on("documents/a b", `{"id":"a b","name":"spaced","content":"ok"}`)

			doc, err := client.FetchDocument(ctx, "a b")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Content).To(Equal("ok"))
		})
	})

	Describe("FetchChildren", func() {
		It("sorts by display order with missing order as 0 and keeps ties stable", func() {
			fake.on("documents/1/children", `[
				{"id":5,"name":"e","displayOrder":2},
				{"id":2,"name":"b"},
				{"id":3,"name":"c","displayOrder":-1},
				{"id":4,"name":"d","displayOrder":0},
				{"id":1,"name":"a","displayOrder":2}
			]`)

			children, err := client.FetchChildren(ctx, "1")
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(children))
			for i, c := range children {
				names[i] = c.Name
			}
			Expect(names).To(Equal([]string{"c", "b", "d", "e", "a"}))
		})

		DescribeTable("treats non-array payloads as no children",
			func(body string) {
				fake.on("documents/1/children", body)

				children, err := client.FetchChildren(ctx, "1")
				Expect(err).NotTo(HaveOccurred())
				Expect(children).To(BeEmpty())
			},
			Entry("object", `{"children":[]}`),
			Entry("null", `null`),
			Entry("string", `"none"`),
		)
	})

	Describe("error handling", func() {
		It("extracts JSON error messages into the error", func() {
			fake.respond("documents/10", fakeResponse{
				status: http.StatusBadRequest,
				body:   `{"message":"bad key","errors":[{"message":"apiKey invalid"}]}`,
			})

			_, err := client.FetchDocument(ctx, "10")
			Expect(err).To(MatchError("backlog api request failed with status 400: Bad Request (bad key; apiKey invalid)"))

			var remote *backlog.RemoteAPIError
			Expect(errors.As(err, &remote)).To(BeTrue())
			Expect(remote.StatusCode).To(Equal(400))
			Expect(remote.StatusText).To(Equal("Bad Request"))
			Expect(remote.Detail).To(Equal("bad key; apiKey invalid"))
		})

		It("uses the collapsed text body when the response is not JSON", func() {
			fake.respond("documents/10", fakeResponse{
				status:      http.StatusServiceUnavailable,
				contentType: "text/plain",
				body:        "  upstream\n\n   maintenance   window  ",
			})

			_, err := client.FetchDocument(ctx, "10")
			Expect(err).To(MatchError("backlog api request failed with status 503: Service Unavailable (upstream maintenance window)"))
		})

		It("falls back to the raw body when JSON has no messages", func() {
			fake.respond("documents/10", fakeResponse{
				status: http.StatusForbidden,
				body:   `{"code": 11}`,
			})

			_, err := client.FetchDocument(ctx, "10")
			Expect(err).To(MatchError(`backlog api request failed with status 403: Forbidden ({"code": 11})`))
		})

		It("falls back to the raw body when JSON is malformed", func() {
			fake.respond("documents/10", fakeResponse{
				status: http.StatusInternalServerError,
				body:   `{"message": `,
			})

			_, err := client.FetchDocument(ctx, "10")
			Expect(err).To(MatchError(`backlog api request failed with status 500: Internal Server Error ({"message":)`))
		})

		It("omits the detail for empty bodies", func() {
			fake.respond("documents/10", fakeResponse{status: http.StatusUnauthorized, body: "  "})

			_, err := client.FetchDocument(ctx, "10")
			Expect(err).To(MatchError("backlog api request failed with status 401: Unauthorized"))
		})

		It("wraps transport failures in NetworkError without leaking the key", func() {
			url := fake.server.URL
			fake.close()

			c, err := backlog.NewClient(backlog.Config{BaseURL: url, APIKey: "secret-key", ProjectIDOrKey: "PRJ"})
			Expect(err).NotTo(HaveOccurred())

			_, err = c.FetchDocument(ctx, "10")
			var network *backlog.NetworkError
			Expect(errors.As(err, &network)).To(BeTrue())
			Expect(err.Error()).To(HavePrefix("backlog api request failed: "))
			Expect(err.Error()).NotTo(ContainSubstring("secret-key"))
			Expect(backlog.IsUpstream(err)).To(BeTrue())
		})

		It("reports an HTML page served with 200 as an upstream decode error", func() {
			fake.respond("documents/10", fakeResponse{contentType: "text/html", body: `<html>login</html>`})

			_, err := client.FetchDocument(ctx, "10")
			var decode *backlog.DecodeError
			Expect(errors.As(err, &decode)).To(BeTrue())
			Expect(decode.Path).To(Equal("projects/PRJ/documents/10"))
			Expect(err.Error()).To(HavePrefix("backlog api returned an unreadable response for projects/PRJ/documents/10: "))
			Expect(err.Error()).NotTo(ContainSubstring("key"))
			Expect(backlog.IsUpstream(err)).To(BeTrue())
		})

		It("reports malformed child ids as an upstream decode error", func() {
			fake.on("documents/10/children", `[{"id":{"nested":true},"name":"x"}]`)

			_, err := client.FetchChildren(ctx, "10")
			var decode *backlog.DecodeError
			Expect(errors.As(err, &decode)).To(BeTrue())
			Expect(decode.Path).To(Equal("projects/PRJ/documents/10/children"))
			Expect(backlog.IsUpstream(err)).To(BeTrue())
			Expect(errors.Is(err, backlog.ErrInvalidIdentifier)).To(BeFalse())
		})
	})
})
