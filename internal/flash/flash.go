package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName holds the one-time flash payload between a redirect and the
// next page render.
const CookieName = "ep_flash"

// Level classifies a flash message for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single one-time notice shown on the next page load.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

const pendingKey = "flash.pending"

// Add appends a message to the flash cookie. Existing messages survive so
// several notices can stack across redirects and within one request.
func Add(c *gin.Context, level Level, text string) {
	messages := pending(c)
	messages = append(messages, Message{Level: level, Text: text})
	c.Set(pendingKey, messages)
	write(c, messages)
}

// Take drains all pending messages and clears the cookie. A corrupt cookie
// is discarded rather than surfaced.
func Take(c *gin.Context) []Message {
	messages := pending(c)
	if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
		expire(c)
	}
	return messages
}

// Redirect records a flash message and issues a 302 to the location.
func Redirect(c *gin.Context, location string, level Level, text string) {
	Add(c, level, text)
	c.Redirect(http.StatusFound, location)
}

func pending(c *gin.Context) []Message {
	if stored, ok := c.Get(pendingKey); ok {
		if messages, ok := stored.([]Message); ok {
			return messages
		}
	}
	return peek(c)
}

func peek(c *gin.Context) []Message {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var messages []Message
	if err := json.Unmarshal(decoded, &messages); err != nil {
		return nil
	}
	return messages
}

func write(c *gin.Context, messages []Message) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	c.SetCookie(CookieName, encoded, 300, "/", "", false, true)
}

func expire(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}
