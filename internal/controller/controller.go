package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"todo-demo/internal/cache"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
	"todo-demo/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

// StatsProvider is implemented by stores that can describe themselves for /debug/stats.
type StatsProvider interface {
	Stats() store.Stats
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Handler serves the lists/items API over a DataStore.
type Handler struct {
	ds     store.DataStore
	cache  *cache.Cache
	stats  StatsProvider
	checks []Check
	reads  singleflight.Group
}

// New builds a Handler. c and stats may be nil.
func New(ds store.DataStore, c *cache.Cache, stats StatsProvider, checks ...Check) *Handler {
	return &Handler{ds: ds, cache: c, stats: stats, checks: checks}
}

// Health returns 200 if the process is alive. Used by load balancers.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if every configured dependency answers.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for _, chk := range h.checks {
		if err := chk.Run(ctx); err != nil {
			logger.Warn(ctx, "Readiness check failed", "check", chk.Name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": chk.Name + " unavailable"})
			return
		}
	}
	c.String(http.StatusOK, "OK")
}

// GetLists returns every list, cache-first, coalescing concurrent misses.
func (h *Handler) GetLists(c *gin.Context) {
	h.cachedRead(c, cache.ListsKey(), func(ctx context.Context) (interface{}, error) {
		return h.ds.Lists(ctx)
	})
}

// GetItems returns the items of one list.
func (h *Handler) GetItems(c *gin.Context) {
	listID, ok := paramID(c)
	if !ok {
		return
	}
	h.cachedRead(c, cache.ItemsKey(listID), func(ctx context.Context) (interface{}, error) {
		return h.ds.Items(ctx, listID)
	})
}

func (h *Handler) cachedRead(c *gin.Context, key string, load func(ctx context.Context) (interface{}, error)) {
	ctx := c.Request.Context()
	if b, ok := h.cache.Get(ctx, key); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	// read before loading: an invalidation after this point rejects the snapshot
	gen, cacheable := h.cache.Generation(ctx)
	flight := key
	if cacheable {
		// requests arriving after an invalidation start a new load
		flight = fmt.Sprintf("%s@%d", key, gen)
	}
	ch := h.reads.DoChan(flight, func() (interface{}, error) {
		// shared by every waiting request, so one client leaving must not cancel it
		lctx := context.WithoutCancel(ctx)
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if cacheable {
			h.cache.SetIfCurrent(lctx, key, b, gen)
		}
		return b, nil
	})
	select {
	case <-ctx.Done():
		return
	case res := <-ch:
		if res.Err != nil {
			writeError(c, res.Err)
			return
		}
		c.Data(http.StatusOK, "application/json", res.Val.([]byte))
	}
}

type titleBody struct {
	Title string `json:"title" binding:"required"`
}

// CreateList (auth): POST /lists {"title"}.
func (h *Handler) CreateList(c *gin.Context) {
	var body titleBody
	if !bindJSON(c, &body) {
		return
	}
	title, err := models.ValidateTitle(body.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	l, err := h.ds.CreateList(c.Request.Context(), title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// UpdateList (auth): PUT /lists/:id {"title"}.
func (h *Handler) UpdateList(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var body titleBody
	if !bindJSON(c, &body) {
		return
	}
	title, err := models.ValidateTitle(body.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	l, err := h.ds.UpdateList(c.Request.Context(), id, title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DeleteList (auth): DELETE /lists/:id, cascading to its items.
func (h *Handler) DeleteList(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.ds.DeleteList(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateItem (auth): POST /lists/:id/items {"title", "priority"}. Priority defaults to P2.
func (h *Handler) CreateItem(c *gin.Context) {
	listID, ok := paramID(c)
	if !ok {
		return
	}
	var body struct {
		Title    string `json:"title" binding:"required"`
		Priority string `json:"priority"`
	}
	if !bindJSON(c, &body) {
		return
	}
	title, err := models.ValidateTitle(body.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	priority := models.PriorityP2
	if body.Priority != "" {
		if priority, err = models.ParsePriority(body.Priority); err != nil {
			writeError(c, err)
			return
		}
	}
	it, err := h.ds.CreateItem(c.Request.Context(), listID, title, priority)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// UpdateItem (auth): PATCH /items/:id with any of "title", "priority", "completed".
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var patch models.ItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.Empty() {
		writeError(c, &models.ValidationError{Message: "patch changes nothing"})
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(c, err)
		return
	}
	it, err := h.ds.UpdateItem(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// DeleteItem (auth): DELETE /items/:id.
func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.ds.DeleteItem(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleItem (auth): POST /items/:id/toggle.
func (h *Handler) ToggleItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	it, err := h.ds.ToggleItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// Stats returns the store summary, or 404 when the backend has none.
func (h *Handler) Stats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "stats not available for this backend"})
		return
	}
	c.JSON(http.StatusOK, h.stats.Stats())
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id", "detail": c.Param("id")})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into v. Field errors raised while decoding keep their hint.
func bindJSON(c *gin.Context, v interface{}) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeError(c, ve)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "detail": err.Error()})
	return false
}

type statusError interface {
	error
	StatusCode() int
	Hint() string
}

func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	if ctx.Err() != nil || isContextErr(err) {
		// client went away; nobody reads the response
		return
	}
	var se statusError
	if errors.As(err, &se) {
		c.JSON(se.StatusCode(), gin.H{"error": http.StatusText(se.StatusCode()), "detail": se.Error(), "hint": se.Hint()})
		return
	}
	logger.Error(ctx, "Request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
