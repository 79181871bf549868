// Package notify posts run summaries to a Slack incoming webhook.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"kbsync/internal/syncer"
)

// PostRunReport sends the run summary to a Slack incoming webhook.
// Notification failures never affect the run outcome; the caller logs them.
func PostRunReport(ctx context.Context, webhookURL, runID string, report *syncer.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Article sync run `%s` finished: %d added, %d updated, %d skipped",
		runID, report.Added, report.Updated, report.Skipped)
	if report.Removed > 0 {
		fmt.Fprintf(&b, ", %d removed", report.Removed)
	}

	if report.Failed() > 0 {
		fmt.Fprintf(&b, "\n%d document(s) failed:", report.Failed())
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "\n• `%s` (%s): %s", f.DocumentID, f.Op, f.Reason)
		}
	}

	msg := &slack.WebhookMessage{Text: b.String()}
	if err := slack.PostWebhookContext(ctx, webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
