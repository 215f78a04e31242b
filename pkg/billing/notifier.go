package billing

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/email"
	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// EmailNotifier implements Notifier on the transactional mail sender.
type EmailNotifier struct {
	sender email.Sender
}

// NewEmailNotifier creates the plan change notifier. Panics if sender is nil
// to fail fast during initialization.
func NewEmailNotifier(sender email.Sender) *EmailNotifier {
	if sender == nil {
		panic("billing: email.Sender is required")
	}
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) SendPlanChanged(ctx context.Context, acct account.Account, def entitlement.TierDefinition) error {
	planName := cases.Title(language.English).String(string(def.Tier))

	var allotment string
	if def.MonthlyCredits >= entitlement.UnlimitedThreshold {
		allotment = "unlimited credits"
	} else {
		allotment = fmt.Sprintf("%d credits per month", def.MonthlyCredits)
	}

	return n.sender.Send(ctx, email.Message{
		To:      acct.Email,
		Subject: fmt.Sprintf("Your plan is now %s", planName),
		BodyHTML: fmt.Sprintf(
			"<p>Hi,</p><p>Your subscription has changed. You are now on the <strong>%s</strong> plan with %s.</p>",
			planName, allotment),
		Tag: "plan_changed",
	})
}
