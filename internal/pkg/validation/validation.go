package validation

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// RequireFormFields returns the named form fields. A field that is present but
// empty is accepted; a field missing from the body is a 400.
func RequireFormFields(c *fiber.Ctx, fields ...string) (map[string]string, error) {
	args := c.Request().PostArgs()

	var form *multipart.Form
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if f, err := c.MultipartForm(); err == nil {
			form = f
		}
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := lookup(args, form, f)
		if !ok {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Missing required field: %s", f))
		}
		out[f] = v
	}
	return out, nil
}

func lookup(args *fasthttp.Args, form *multipart.Form, name string) (string, bool) {
	if args.Has(name) {
		return string(args.Peek(name)), true
	}
	if form != nil && len(form.Value[name]) > 0 {
		return form.Value[name][0], true
	}
	return "", false
}
