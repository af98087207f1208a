package outreach

import (
	"fmt"
	"strings"

	"github.com/nurpe/dealflow/internal/model"
)

// Compose builds the default teaser email for an investor. Subject and body overrides win
// when non-empty.
func Compose(deal model.Deal, inv model.DealInvestor, sender, subject, body string) Message {
	if strings.TrimSpace(subject) == "" {
		subject = fmt.Sprintf("%s: investment opportunity", deal.Name)
	}
	if strings.TrimSpace(body) == "" {
		greeting := "Dear team"
		if name := inv.OrganizationName(); name != "" {
			greeting = fmt.Sprintf("Dear %s team", name)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s,\n\n", greeting)
		fmt.Fprintf(&b, "We are advising on %s, a %s process, and believe it fits your investment focus.\n", deal.Name, humanize(string(deal.Type)))
		b.WriteString("If you are interested, we will share a non-disclosure agreement and, once signed, the information memorandum.\n\n")
		b.WriteString("Kind regards,\n")
		b.WriteString(sender)
		body = b.String()
	}
	return Message{Subject: subject, Body: body}
}

func humanize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", " "))
}
