package listings

import (
	"errors"

	listsvc "carlist/internal/application/listings"
	"carlist/internal/interfaces/views"
	"carlist/internal/middleware"
	"carlist/internal/pkg/response"
	"carlist/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Route paths; redirects target these and nothing else.
const (
	IndexPath  = "/"
	CreatePath = "/listing/new"
)

var createFields = []string{"title", "make", "model", "year", "mileage", "price", "description", "contact_email"}

type Handlers struct {
	Service *listsvc.Service
	Views   *views.Renderer
}

// GET /: every listing, newest first.
func (h *Handlers) Index(c *fiber.Ctx) error {
	conn, err := middleware.GetConn(c)
	if err != nil {
		return err
	}
	listings, err := h.Service.ListAll(conn)
	if err != nil {
		return err
	}
	return h.Views.Render(c, views.IndexPage, "", views.IndexData{Listings: listings})
}

// GET /listing/new
func (h *Handlers) NewForm(c *fiber.Ctx) error {
	return h.Views.Render(c, views.CreatePage, "", nil)
}

// POST /listing/new: all eight fields must be present; storage errors become a
// flash and send the user back to the form.
func (h *Handlers) Create(c *fiber.Ctx) error {
	form, err := validation.RequireFormFields(c, createFields...)
	if err != nil {
		return err
	}
	conn, err := middleware.GetConn(c)
	if err != nil {
		return err
	}
	listing, err := h.Service.Create(conn, listsvc.CreateListingInput{
		Title:        form["title"],
		Make:         form["make"],
		Model:        form["model"],
		Year:         form["year"],
		Mileage:      form["mileage"],
		Price:        form["price"],
		Description:  form["description"],
		ContactEmail: form["contact_email"],
	})
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("create listing")
		return h.flashAndRedirect(c, middleware.FlashError, "An error occurred: "+err.Error(), CreatePath)
	}
	log.Info().Int64("listing_id", listing.ID).Str("trace_id", middleware.GetTraceID(c)).Msg("listing created")
	return h.flashAndRedirect(c, middleware.FlashSuccess, "Your listing has been created!", IndexPath)
}

// GET /listing/:id
func (h *Handlers) Show(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fiber.ErrNotFound
	}
	conn, err := middleware.GetConn(c)
	if err != nil {
		return err
	}
	listing, err := h.Service.GetByID(conn, id)
	if err != nil {
		if errors.Is(err, listsvc.ErrListingNotFound) {
			return response.Text(c, fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return h.Views.Render(c, views.ListingPage, "", views.ListingData{Listing: listing})
}

// POST /listing/:id/delete: no existence check; always back to the catalog.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return fiber.ErrNotFound
	}
	conn, err := middleware.GetConn(c)
	if err != nil {
		return err
	}
	if err := h.Service.DeleteByID(conn, id); err != nil {
		log.Error().Err(err).Int64("listing_id", id).Str("trace_id", middleware.GetTraceID(c)).Msg("delete listing")
		return h.flashAndRedirect(c, middleware.FlashError, "An error occurred: "+err.Error(), IndexPath)
	}
	return h.flashAndRedirect(c, middleware.FlashSuccess, "Listing deleted successfully", IndexPath)
}

// GET /search?q=
func (h *Handlers) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	conn, err := middleware.GetConn(c)
	if err != nil {
		return err
	}
	listings, err := h.Service.Search(conn, query)
	if err != nil {
		return err
	}
	return h.Views.Render(c, views.IndexPage, query, views.IndexData{Listings: listings, IsSearch: true})
}

func (h *Handlers) flashAndRedirect(c *fiber.Ctx, category, message, to string) error {
	if err := middleware.Flash(c, category, message); err != nil {
		log.Warn().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("flash")
	}
	return response.SeeOther(c, to)
}

// listingID accepts positive integers only, like an int route converter.
func listingID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
