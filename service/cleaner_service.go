package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"mail-digest/domain"
	"mail-digest/utils/htmltext"
)

// placeholderBody replaces a body that cleaned down to nothing.
const placeholderBody = "[Empty email body]"

// Quote reply headers. Matching a line drops it and everything the quote
// continuation heuristic attributes to the quote.
var quotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^On .+ wrote:`),
	regexp.MustCompile(`(?i)^From:.+Sent:.+To:.+Subject:`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}.+<.+@.+>:`),
}

// Signature delimiters. The earliest matching line starts the signature.
var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`--\s*$`),
	regexp.MustCompile(`(?i)Sent from my`),
	regexp.MustCompile(`(?i)Get Outlook for`),
	regexp.MustCompile(`(?i)^Regards,?\s*$`),
	regexp.MustCompile(`(?i)^Best regards,?\s*$`),
	regexp.MustCompile(`(?i)^Thanks,?\s*$`),
	regexp.MustCompile(`(?i)^Thank you,?\s*$`),
	regexp.MustCompile(`(?i)^Sincerely,?\s*$`),
	regexp.MustCompile(`(?i)^Cheers,?\s*$`),
	regexp.MustCompile(`(?i)^Best,?\s*$`),
}

var (
	phonePattern    = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	contactPattern  = regexp.MustCompile(`(?i)@|www\.|http|phone|mobile|office`)
	blankRunPattern = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

type cleanerService struct {
	logger *slog.Logger
}

// NewCleanerService creates the email cleaner.
func NewCleanerService(logger *slog.Logger) CleanerService {
	return &cleanerService{logger: logger}
}

// Clean converts a raw email into normalized plain text. The order matters:
// quote removal runs before signature removal, because a signature inside a
// quoted block only becomes reachable once the quoting is stripped.
func (s *cleanerService) Clean(ctx context.Context, raw *domain.RawEmail) *domain.CleanedEmail {
	body := raw.BodyHTML
	if body == "" {
		body = raw.BodyText
	}
	originalLength := len(body)

	if raw.BodyHTML != "" {
		body = htmltext.Extract(raw.BodyHTML)
	}

	body = removeQuotedReplies(body)
	body = removeSignature(body)
	body = normalizeWhitespace(body)

	cleanedLength := len(body)

	if strings.TrimSpace(body) == "" {
		s.logger.WarnContext(ctx, "email body is empty after cleaning", "message_id", raw.MessageID)
		body = placeholderBody
	}

	attachments := make([]string, 0, len(raw.Attachments))
	for _, att := range raw.Attachments {
		attachments = append(attachments, att.Filename)
	}

	return &domain.CleanedEmail{
		MessageID:      raw.MessageID,
		Sender:         raw.Sender,
		Subject:        raw.Subject,
		ReceivedAt:     raw.ReceivedAt,
		CleanedBody:    body,
		Attachments:    attachments,
		OriginalLength: originalLength,
		CleanedLength:  cleanedLength,
	}
}

// removeQuotedReplies drops quote headers, ">"-prefixed lines, and quote
// continuations (short or indented lines while inside a quote).
func removeQuotedReplies(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	inQuote := false

	for _, line := range lines {
		if isQuoteHeader(line) {
			inQuote = true
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") {
			continue
		}

		if inQuote && trimmed != "" {
			if utf8.RuneCountInString(trimmed) < 5 || strings.HasPrefix(line, "    ") {
				continue
			}
			inQuote = false
		}

		if !inQuote {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

func isQuoteHeader(line string) bool {
	for _, pattern := range quotePatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// removeSignature truncates the text before the earliest detected signature
// start. Phone-number heuristics only apply within the last 40% of lines and
// only when neighbouring lines also look like contact info.
func removeSignature(text string) string {
	lines := strings.Split(text, "\n")
	signatureStart := -1

	for i, line := range lines {
		for _, pattern := range signaturePatterns {
			if pattern.MatchString(line) {
				signatureStart = i
				break
			}
		}
		if signatureStart >= 0 {
			break
		}

		if float64(i) > float64(len(lines))*0.6 && phonePattern.MatchString(line) {
			contactIndicators := 0
			for j := i; j < len(lines) && j < i+3; j++ {
				if contactPattern.MatchString(lines[j]) {
					contactIndicators++
				}
			}
			if contactIndicators >= 2 {
				signatureStart = i
				break
			}
		}
	}

	if signatureStart >= 0 {
		return strings.Join(lines[:signatureStart], "\n")
	}

	return text
}

// normalizeWhitespace collapses blank-line runs, trims every line, and drops
// leading and trailing blank lines.
func normalizeWhitespace(text string) string {
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
