// Package email sends transactional messages through a provider-agnostic EmailSender.
//
// Three senders are available and NewFromConfig picks one from EMAIL_PROVIDER:
//
//   - postmark: Postmark transactional API (github.com/mrz1836/postmark)
//   - smtp: any SMTP relay (github.com/wneessen/go-mail)
//   - dev: writes each message to EMAIL_DEV_DIR as .html and .json files
//
// Every sender validates SendEmailParams first and reports delivery problems wrapped in
// ErrFailedToSendEmail.
//
// Message bodies are templ components from the templates subpackage:
//
//	body, err := templates.Render(ctx, templates.UnlockAccount(templates.UnlockData{
//	    Link:       "https://app.example.com/account/unlock?token=" + token,
//	    ExpiresIn:  24 * time.Hour,
//	}))
//	if err != nil {
//	    return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   acc.Email,
//	    Subject:  templates.SubjectUnlockAccount,
//	    BodyHTML: body,
//	    Tag:      "account-unlock",
//	})
package email
