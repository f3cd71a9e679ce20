package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

const flashKey = "_flashes"

// Flash categories rendered by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// FlashMessage is a one-shot notification shown on the next rendered page.
type FlashMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Flash queues a notification in the session; it survives one redirect.
func Flash(c *fiber.Ctx, category, message string) error {
	store, err := sessionStore(c)
	if err != nil {
		return err
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	flashes := append(decodeFlashes(sess.Get(flashKey)), FlashMessage{Category: category, Message: message})
	b, err := json.Marshal(flashes)
	if err != nil {
		return err
	}
	sess.Set(flashKey, string(b))
	return sess.Save()
}

// ConsumeFlashes returns the queued notifications and removes them from the
// session, so a refresh does not show them again.
func ConsumeFlashes(c *fiber.Ctx) ([]FlashMessage, error) {
	store, err := sessionStore(c)
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(c)
	if err != nil {
		return nil, err
	}
	raw := sess.Get(flashKey)
	if raw == nil {
		return nil, nil
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		return nil, err
	}
	return decodeFlashes(raw), nil
}

func decodeFlashes(raw interface{}) []FlashMessage {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	var flashes []FlashMessage
	if err := json.Unmarshal([]byte(s), &flashes); err != nil {
		return nil
	}
	return flashes
}
