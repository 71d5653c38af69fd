// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ApprovalEmailData holds data for the membership-approved email.
type ApprovalEmailData struct {
	SiteName    string
	FullName    string
	Tier        string
	TermExpires string // e.g., "December 31, 2029"
}

// BuildApprovalEmail creates the membership-approved email with both HTML and text bodies.
func BuildApprovalEmail(data ApprovalEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Your %s membership has been approved", data.SiteName),
		TextBody: buildApprovalText(data),
		HTMLBody: renderHTML("approval", approvalHTMLTemplate, data),
	}
}

func buildApprovalText(data ApprovalEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("The board has approved your %s membership application.\n\n", data.Tier))
	buf.WriteString(fmt.Sprintf("Your membership term runs through %s.\n\n", data.TermExpires))
	buf.WriteString("Welcome aboard!\n")
	return buf.String()
}

// RejectionEmailData holds data for the membership-rejected email.
type RejectionEmailData struct {
	SiteName string
	FullName string
}

// BuildRejectionEmail creates the membership-rejected email.
func BuildRejectionEmail(data RejectionEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Update on your %s membership application", data.SiteName),
		TextBody: buildRejectionText(data),
		HTMLBody: renderHTML("rejection", rejectionHTMLTemplate, data),
	}
}

func buildRejectionText(data RejectionEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString("The board has reviewed your membership application and was unable to approve it at this time.\n\n")
	buf.WriteString("If you have questions about the decision, please reach out to the board.\n")
	return buf.String()
}

// RenewalReminderData holds data for the pre-expiry renewal reminder email.
type RenewalReminderData struct {
	SiteName    string
	FullName    string
	TermExpires string
}

// BuildRenewalReminderEmail creates the renewal reminder email.
func BuildRenewalReminderEmail(data RenewalReminderData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Your %s membership expires soon", data.SiteName),
		TextBody: buildRenewalReminderText(data),
		HTMLBody: renderHTML("renewal", renewalHTMLTemplate, data),
	}
}

func buildRenewalReminderText(data RenewalReminderData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("Your membership term ends on %s.\n\n", data.TermExpires))
	buf.WriteString("To keep your membership active, please submit a renewal application before then.\n")
	return buf.String()
}

func renderHTML(name, tmpl string, data any) string {
	t := template.Must(template.New(name).Parse(tmpl))
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

const approvalHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Membership Approved</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}},
              </p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                The board has approved your <strong>{{.Tier}}</strong> membership application.
              </p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your membership term runs through <strong>{{.TermExpires}}</strong>.
              </p>
              <p style="margin: 0; font-size: 16px; color: #374151; line-height: 1.5;">
                Welcome aboard!
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const rejectionHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Application Update</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}},
              </p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                The board has reviewed your membership application and was unable to approve it at this time.
              </p>
              <p style="margin: 0; font-size: 16px; color: #374151; line-height: 1.5;">
                If you have questions about the decision, please reach out to the board.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const renewalHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Membership Renewal</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}},
              </p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your membership term ends on <strong>{{.TermExpires}}</strong>.
              </p>
              <p style="margin: 0; font-size: 16px; color: #374151; line-height: 1.5;">
                To keep your membership active, please submit a renewal application before then.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
