package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"carlist/internal/domain"
	"carlist/internal/middleware"
	"carlist/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	IndexPage   = "index"
	ListingPage = "listing"
	CreatePage  = "create"
)

// IndexData backs the catalog and search results.
type IndexData struct {
	Listings []domain.Listing
	IsSearch bool
}

// ListingData backs the single-listing view.
type ListingData struct {
	Listing *domain.Listing
}

// page is what the layout sees.
type page struct {
	Flashes     []middleware.FlashMessage
	SearchQuery string
	Data        interface{}
}

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{IndexPage, ListingPage, CreatePage} {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the page as HTML. Pending flash notifications are consumed here,
// so they show on exactly one rendered page.
func (r *Renderer) Render(c *fiber.Ctx, name, searchQuery string, data interface{}) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("views: unknown page %q", name)
	}
	flashes, err := middleware.ConsumeFlashes(c)
	if err != nil {
		log.Warn().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("consume flashes")
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page{
		Flashes:     flashes,
		SearchQuery: searchQuery,
		Data:        data,
	}); err != nil {
		return err
	}
	return response.HTML(c, fiber.StatusOK, buf.Bytes())
}
