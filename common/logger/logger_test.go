package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scoreservice.app/review/common/logger"
	"scoreservice.app/review/core/config"
)

var _ = Describe("LogFields", func() {
	It("merges newer non-empty values over older ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			ReviewID:   logger.Ptr(int64(7)),
			ProjectKey: logger.Ptr("PRJ"),
			Component:  "service.review",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			DocumentID: logger.Ptr("42"),
			Component:  "backlog.client",
		})

		fields := logger.GetLogFields(ctx)
		Expect(fields.ReviewID).To(HaveValue(Equal(int64(7))))
		Expect(fields.ProjectKey).To(HaveValue(Equal("PRJ")))
		Expect(fields.DocumentID).To(HaveValue(Equal("42")))
		Expect(fields.Component).To(Equal("backlog.client"))
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("Truncate", func() {
	It("leaves short strings alone", func() {
		Expect(logger.Truncate("abc", 3)).To(Equal("abc"))
	})

	It("cuts long strings", func() {
		Expect(logger.Truncate("abcdef", 4)).To(Equal("abcd..."))
	})

	It("never splits a multi-byte rune", func() {
		// each rune is three bytes
		Expect(logger.Truncate("設計書", 4)).To(Equal("設..."))
		Expect(logger.Truncate("設計書", 2)).To(Equal("..."))
	})
})

var _ = Describe("TraceHandler", func() {
	It("adds context log fields to every record", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			ReviewID:   logger.Ptr(int64(99)),
			DocumentID: logger.Ptr("12"),
			Model:      logger.Ptr("gpt-4o-mini"),
			Component:  "service.review",
		})
		log.InfoContext(ctx, "analysis started")

		var record map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
		Expect(record).To(HaveKeyWithValue("msg", "analysis started"))
		Expect(record).To(HaveKeyWithValue("review_id", BeNumerically("==", 99)))
		Expect(record).To(HaveKeyWithValue("document_id", "12"))
		Expect(record).To(HaveKeyWithValue("model", "gpt-4o-mini"))
		Expect(record).To(HaveKeyWithValue("component", "service.review"))
		Expect(record).NotTo(HaveKey("trace_id"))
	})

	It("keeps the wrapper across WithAttrs", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(&buf, nil))).With("request", "r1")

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{Component: "http"})
		log.InfoContext(ctx, "request")

		Expect(buf.String()).To(ContainSubstring(`"request":"r1"`))
		Expect(buf.String()).To(ContainSubstring(`"component":"http"`))
	})
})

var _ = Describe("NewHandler", func() {
	It("writes JSON in production without an OTel endpoint", func() {
		var buf bytes.Buffer
		h := logger.NewHandler(config.Config{Env: "production"}, &buf)
		slog.New(h).Info("ready")

		Expect(json.Valid(bytes.TrimSpace(buf.Bytes()))).To(BeTrue())
	})

	It("enables debug logs in development", func() {
		h := logger.NewHandler(config.Config{Env: "development"}, &bytes.Buffer{})
		Expect(h.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
	})
})
