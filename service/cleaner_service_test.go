package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mail-digest/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors in tests
	}))
}

func rawEmail(bodyText, bodyHTML string) *domain.RawEmail {
	return &domain.RawEmail{
		MessageID:  "msg-1",
		Sender:     "Alice <alice@example.com>",
		Subject:    "Project status",
		ReceivedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		BodyText:   bodyText,
		BodyHTML:   bodyHTML,
	}
}

func TestCleanerService_Clean(t *testing.T) {
	cleaner := NewCleanerService(testLogger())
	ctx := context.Background()

	t.Run("should prefer HTML body and extract its text", func(t *testing.T) {
		raw := rawEmail("plain fallback", "<html><body><p>Hello from HTML</p></body></html>")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Hello from HTML", cleaned.CleanedBody)
	})

	t.Run("should fall back to plain text when no HTML body", func(t *testing.T) {
		raw := rawEmail("Just the plain text body.", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Just the plain text body.", cleaned.CleanedBody)
	})

	t.Run("should strip script and style content", func(t *testing.T) {
		raw := rawEmail("", "<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>Visible text</p></body></html>")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Visible text", cleaned.CleanedBody)
		assert.NotContains(t, cleaned.CleanedBody, "alert")
		assert.NotContains(t, cleaned.CleanedBody, "color:red")
	})

	t.Run("should remove quoted reply after On ... wrote: header", func(t *testing.T) {
		raw := rawEmail("Thanks, I will take care of it.\n\nOn Mon, Mar 9, 2026 at 2:15 PM Bob wrote:\n> Can you handle the deployment?\n> It is due this week.", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Thanks, I will take care of it.", cleaned.CleanedBody)
	})

	t.Run("should remove angle-bracket quoted lines", func(t *testing.T) {
		raw := rawEmail("New content here.\n> old quoted line\n> another quoted line", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "New content here.", cleaned.CleanedBody)
	})

	t.Run("should resume after quote when a substantial unindented line follows", func(t *testing.T) {
		raw := rawEmail("Reply text.\n\nOn Mon, Mar 9, 2026 Bob wrote:\n> quoted\nThis is genuinely new content after the quote.", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Contains(t, cleaned.CleanedBody, "Reply text.")
		assert.Contains(t, cleaned.CleanedBody, "This is genuinely new content after the quote.")
		assert.NotContains(t, cleaned.CleanedBody, "quoted")
	})

	t.Run("should remove signature after dash delimiter", func(t *testing.T) {
		raw := rawEmail("Meeting moved to Friday.\n\n--\nAlice Smith\nSenior Engineer", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Meeting moved to Friday.", cleaned.CleanedBody)
	})

	t.Run("should remove mobile signature", func(t *testing.T) {
		raw := rawEmail("Running late.\n\nSent from my iPhone", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Running late.", cleaned.CleanedBody)
	})

	t.Run("should remove sign-off and everything after it", func(t *testing.T) {
		raw := rawEmail("Report attached.\n\nBest regards,\nAlice\nalice@example.com", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "Report attached.", cleaned.CleanedBody)
	})

	t.Run("should detect phone-number signature block near end of email", func(t *testing.T) {
		raw := rawEmail("Please review the figures before Thursday.\nThe totals look off in section two.\nLet me know what you find.\nI will be out tomorrow morning.\nAlice Smith\n555-123-4567\nalice@example.com\nwww.example.com", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Contains(t, cleaned.CleanedBody, "Please review the figures before Thursday.")
		assert.NotContains(t, cleaned.CleanedBody, "555-123-4567")
		assert.NotContains(t, cleaned.CleanedBody, "www.example.com")
	})

	t.Run("should keep phone number mentioned mid-body without contact context", func(t *testing.T) {
		raw := rawEmail("Call the vendor at 555-123-4567 about the invoice.\nThey are expecting us this week.\nMore body text follows here.\nAnd more.\nAnd more.\nAnd more.\nAnd more.\nAnd more.\nAnd more.\nAnd more.", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Contains(t, cleaned.CleanedBody, "555-123-4567")
	})

	t.Run("should collapse runs of blank lines", func(t *testing.T) {
		raw := rawEmail("First paragraph.\n\n\n\n\nSecond paragraph.", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "First paragraph.\n\nSecond paragraph.", cleaned.CleanedBody)
	})

	t.Run("should use placeholder for empty body", func(t *testing.T) {
		raw := rawEmail("", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "[Empty email body]", cleaned.CleanedBody)
	})

	t.Run("should use placeholder when cleaning removes everything", func(t *testing.T) {
		raw := rawEmail("> only a quote\n> nothing else", "")

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, "[Empty email body]", cleaned.CleanedBody)
	})

	t.Run("should carry metadata and record lengths", func(t *testing.T) {
		raw := rawEmail("Short body.", "")
		raw.Attachments = []domain.Attachment{
			{Filename: "report.pdf", Size: 1024, MIMEType: "application/pdf"},
		}

		cleaned := cleaner.Clean(ctx, raw)

		assert.Equal(t, raw.MessageID, cleaned.MessageID)
		assert.Equal(t, raw.Sender, cleaned.Sender)
		assert.Equal(t, raw.Subject, cleaned.Subject)
		assert.Equal(t, raw.ReceivedAt, cleaned.ReceivedAt)
		assert.Equal(t, []string{"report.pdf"}, cleaned.Attachments)
		assert.Equal(t, len("Short body."), cleaned.OriginalLength)
		assert.Equal(t, len("Short body."), cleaned.CleanedLength)
	})
}
