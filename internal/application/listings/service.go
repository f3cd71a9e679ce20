package listings

import (
	"errors"
	"fmt"
	"time"

	"carlist/internal/domain"

	"gorm.io/gorm"
)

var ErrListingNotFound = errors.New("Listing not found")

// Conn yields the request's storage session. *database.Conn implements it and
// acquires its connection on the first call.
type Conn interface {
	DB() (*gorm.DB, error)
}

// Service runs the listing operations against a request-scoped Conn.
// It keeps no state between requests.
type Service struct {
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// CreateListingInput carries the form fields as submitted; numeric-looking
// fields are not coerced here.
type CreateListingInput struct {
	Title        string
	Make         string
	Model        string
	Year         string
	Mileage      string
	Price        string
	Description  string
	ContactEmail string
}

const newestFirst = "date_posted DESC, id DESC"

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListAll returns every listing, newest first.
func (s *Service) ListAll(conn Conn) ([]domain.Listing, error) {
	db, err := conn.DB()
	if err != nil {
		return nil, err
	}
	listings := []domain.Listing{}
	if err := db.Order(newestFirst).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return listings, nil
}

// Create inserts a listing stamped with the current UTC time.
func (s *Service) Create(conn Conn, in CreateListingInput) (*domain.Listing, error) {
	db, err := conn.DB()
	if err != nil {
		return nil, err
	}
	listing := &domain.Listing{
		Title:        in.Title,
		Make:         in.Make,
		Model:        in.Model,
		Year:         in.Year,
		Mileage:      in.Mileage,
		Price:        in.Price,
		Description:  in.Description,
		ContactEmail: in.ContactEmail,
		DatePosted:   domain.NewTimestamp(s.now()),
	}
	if err := db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) GetByID(conn Conn, id int64) (*domain.Listing, error) {
	db, err := conn.DB()
	if err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := db.Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// DeleteByID removes the listing if present. Deleting an unknown id is not an error.
func (s *Service) DeleteByID(conn Conn, id int64) error {
	db, err := conn.DB()
	if err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&domain.Listing{}).Error
}

// Search matches query as a substring of title, make, model or description.
// An empty query returns no listings and does not touch storage.
func (s *Service) Search(conn Conn, query string) ([]domain.Listing, error) {
	listings := []domain.Listing{}
	if query == "" {
		return listings, nil
	}
	db, err := conn.DB()
	if err != nil {
		return nil, err
	}
	pattern := "%" + query + "%"
	err = db.
		Where("title LIKE ? OR make LIKE ? OR model LIKE ? OR description LIKE ?", pattern, pattern, pattern, pattern).
		Order(newestFirst).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to search listings: %w", err)
	}
	return listings, nil
}
