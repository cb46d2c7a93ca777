package templates

import (
	"bytes"
	"context"
	"errors"

	"github.com/a-h/templ"

	"github.com/securekey/authcore/pkg/email"
)

// Render produces the HTML body of a message.
// Errors are wrapped with email.ErrRenderFailed.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	if tpl == nil {
		return "", email.ErrRenderFailed
	}
	buf := new(bytes.Buffer)
	if err := tpl.Render(ctx, buf); err != nil {
		return "", errors.Join(email.ErrRenderFailed, err)
	}
	return buf.String(), nil
}
