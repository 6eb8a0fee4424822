package mastodon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Mastodon rejects report comments longer than this
const MaxReportCommentLength = 1000

const (
	ReportCategorySpam      = "spam"
	ReportCategoryViolation = "violation"
	ReportCategoryOther     = "other"
)

const (
	AccountActionSuspend = "suspend"
	AccountActionSilence = "silence"
	AccountActionDisable = "disable"
	AccountActionNone    = "none"
)

type CreateReportInput struct {
	AccountID string
	StatusIDs []string
	Comment   string
	Category  string
	// Forward the report to the remote instance of the account
	Forward bool
}

// POST /api/v1/reports
func (c *Client) CreateReport(ctx context.Context, input *CreateReportInput) (*Report, error) {
	params := map[string]any{
		"account_id": input.AccountID,
		"forward":    input.Forward,
	}
	if len(input.StatusIDs) > 0 {
		params["status_ids"] = input.StatusIDs
	}
	if input.Comment != "" {
		params["comment"] = TruncateComment(input.Comment)
	}
	if input.Category != "" {
		params["category"] = input.Category
	}
	var out Report
	if err := c.Do(ctx, http.MethodPost, "/api/v1/reports", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type AccountActionInput struct {
	// One of the AccountAction* constants
	Type   string
	Text   string
	Notify *bool
}

// POST /api/v1/admin/accounts/:id/action
func (c *Client) AdminAccountAction(ctx context.Context, accountID string, input *AccountActionInput) error {
	if accountID == "" {
		return fmt.Errorf("empty account id")
	}
	params := map[string]any{
		"type": input.Type,
	}
	if input.Text != "" {
		params["text"] = input.Text
	}
	if input.Notify != nil {
		params["send_email_notification"] = *input.Notify
	}
	path := fmt.Sprintf("/api/v1/admin/accounts/%s/action", url.PathEscape(accountID))
	return c.Do(ctx, http.MethodPost, path, params, nil)
}

// Truncates to MaxReportCommentLength characters (not bytes), without
// splitting a grapheme cluster (eg, a multi-codepoint emoji).
func TruncateComment(s string) string {
	if utf8.RuneCountInString(s) <= MaxReportCommentLength {
		return s
	}
	var sb strings.Builder
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		r := len(gr.Runes())
		if n+r > MaxReportCommentLength-1 {
			break
		}
		sb.WriteString(gr.Str())
		n += r
	}
	return sb.String() + "…"
}
