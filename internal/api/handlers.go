package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sjsage522/portalevents/config"
	"sjsage522/portalevents/internal/email"
	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/internal/scraper"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
	"sjsage522/portalevents/services/cache"
)

const cacheHeader = "X-Result-Cache"

// Extractor runs one extraction
type Extractor interface {
	Scrape(ctx context.Context, req scraper.Request) ([]events.Event, error)
}

type handler struct {
	cfg       *config.Config
	extractor Extractor
	cache     *cache.ResultCache
	log       *logger.Logger
}

type scrapeBody struct {
	Max      *int   `json:"max"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailBody struct {
	Events   []events.Event `json:"events"`
	Title    string         `json:"title"`
	Template string         `json:"template"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) scrape(c *gin.Context) {
	var body scrapeBody
	// An unreadable body is treated like an empty one.
	_ = c.ShouldBindJSON(&body)

	if body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email or password"})
		return
	}

	max := h.cfg.DefaultMax
	if body.Max != nil {
		max = *body.Max
	}

	key := cache.ResultKey(h.cfg.EventsURL, body.Email, max)
	if list, ok := h.cache.Get(key); ok {
		c.Header(cacheHeader, "hit")
		c.JSON(http.StatusOK, gin.H{"events": list})
		return
	}

	req := scraper.Request{
		BaseURL:   h.cfg.BaseURL,
		LoginURL:  h.cfg.LoginURL,
		EventsURL: h.cfg.EventsURL,
		Email:     body.Email,
		Password:  body.Password,
		Headless:  scraper.HeadlessFrom(h.cfg.Headless),
		Max:       max,
	}

	list, err := h.extractor.Scrape(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("reason", apperrors.ReasonOf(err)).Msg("Scrape request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.ReasonOf(err)})
		return
	}
	if list == nil {
		list = []events.Event{}
	}

	h.cache.Put(key, list)
	if h.cache.Enabled() {
		c.Header(cacheHeader, "miss")
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *handler) email(c *gin.Context) {
	var body emailBody
	_ = c.ShouldBindJSON(&body)

	html, err := email.Render(body.Events, email.Options{Title: body.Title, Template: body.Template})
	if err != nil {
		h.log.Error().Err(err).Msg("Email render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
