// Package templates holds the HTML bodies of account emails as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the shared email chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head>`+
				`<body style="font-family:Arial,sans-serif;color:#1f2937;line-height:1.5">`+
				`<div style="max-width:560px;margin:0 auto;padding:24px">`,
			templ.EscapeString(title),
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// Paragraph renders escaped text.
func Paragraph(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(text))
		return err
	})
}

// Button renders a call-to-action link. Unsafe URLs are replaced by templ.
func Button(label, href string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<p><a href="%s" style="display:inline-block;padding:10px 18px;background:#2563eb;color:#ffffff;text-decoration:none;border-radius:4px">%s</a></p>`,
			templ.EscapeString(string(templ.URL(href))),
			templ.EscapeString(label),
		)
		return err
	})
}

// Join renders components in order.
func Join(parts ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
