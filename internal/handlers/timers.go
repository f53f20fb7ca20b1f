package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefwhisper/recipe-viewer/internal/models"
)

type createTimerInput struct {
	Name      string         `json:"name"`
	Duration  int            `json:"duration"` // seconds; <=0 falls back to the default
	AutoStart bool           `json:"auto_start"`
	Metadata  map[string]any `json:"metadata"`
}

type renameTimerInput struct {
	Name string `json:"name" binding:"required"`
}

type metadataInput struct {
	Metadata map[string]any `json:"metadata" binding:"required"`
}

type commandInput struct {
	Command string `json:"command" binding:"required"`
}

// @Summary      Create a timer
// @Description  Creates a countdown timer. Requests carrying the same workflow coordinates (stepId, source, matchIndex, duration) as an existing timer are suppressed.
// @Tags         timers
// @Accept       json
// @Produce      json
// @Param        input  body  createTimerInput  true  "Timer definition"
// @Success      201  {object}  map[string]interface{}  "id, timer"
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "duplicate coordinates"
// @Router       /api/v1/timers [post]
// @Security     BearerAuth
func (h *Handler) createTimer(c *gin.Context) {
	var input createTimerInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id := h.services.Timers.Create(models.CreateRequest{
		Name:      input.Name,
		Duration:  input.Duration,
		AutoStart: input.AutoStart,
		Metadata:  input.Metadata,
	})
	if id == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "timer already exists for these coordinates"})
		return
	}

	snap, _ := h.services.Reader.Get(id)
	c.JSON(http.StatusCreated, gin.H{"id": id, "timer": snap})
}

// @Summary      List timers
// @Tags         timers
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, timers"
// @Router       /api/v1/timers [get]
// @Security     BearerAuth
func (h *Handler) listTimers(c *gin.Context) {
	timers := h.services.Reader.GetAll()
	c.JSON(http.StatusOK, gin.H{"count": len(timers), "timers": timers})
}

// @Summary      Get one timer
// @Tags         timers
// @Produce      json
// @Param        id  path  string  true  "Timer id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id} [get]
// @Security     BearerAuth
func (h *Handler) getTimer(c *gin.Context) {
	snap, ok := h.services.Reader.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "timer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": snap})
}

// control runs one id-addressed operation and answers with the fresh
// snapshot. The operations are idempotent, so a repeated call is a 200 too.
func (h *Handler) control(c *gin.Context, op func(id string) bool) {
	id := c.Param("id")
	if !op(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "timer not found"})
		return
	}
	snap, ok := h.services.Reader.Get(id)
	if !ok {
		// Removed while we were answering.
		c.JSON(http.StatusOK, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": snap})
}

// @Summary      Start a timer
// @Tags         timers
// @Produce      json
// @Param        id  path  string  true  "Timer id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id}/start [post]
// @Security     BearerAuth
func (h *Handler) startTimer(c *gin.Context) {
	h.control(c, h.services.Timers.Start)
}

// @Summary      Pause a timer
// @Tags         timers
// @Produce      json
// @Param        id  path  string  true  "Timer id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id}/pause [post]
// @Security     BearerAuth
func (h *Handler) pauseTimer(c *gin.Context) {
	h.control(c, h.services.Timers.Pause)
}

// @Summary      Reset a timer
// @Tags         timers
// @Produce      json
// @Param        id  path  string  true  "Timer id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id}/reset [post]
// @Security     BearerAuth
func (h *Handler) resetTimer(c *gin.Context) {
	h.control(c, h.services.Timers.Reset)
}

// @Summary      Remove a timer
// @Tags         timers
// @Produce      json
// @Param        id  path  string  true  "Timer id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id} [delete]
// @Security     BearerAuth
func (h *Handler) removeTimer(c *gin.Context) {
	id := c.Param("id")
	if !h.services.Timers.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "timer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "removed"})
}

// @Summary      Rename a timer
// @Tags         timers
// @Accept       json
// @Produce      json
// @Param        id     path  string            true  "Timer id"
// @Param        input  body  renameTimerInput  true  "New name"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id}/name [put]
// @Security     BearerAuth
func (h *Handler) renameTimer(c *gin.Context) {
	var input renameTimerInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	h.control(c, func(id string) bool {
		return h.services.Timers.Rename(id, input.Name)
	})
}

// @Summary      Merge timer metadata
// @Tags         timers
// @Accept       json
// @Produce      json
// @Param        id     path  string         true  "Timer id"
// @Param        input  body  metadataInput  true  "Entries to merge"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/timers/{id}/metadata [put]
// @Security     BearerAuth
func (h *Handler) updateMetadata(c *gin.Context) {
	var input metadataInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	h.control(c, func(id string) bool {
		return h.services.Timers.SetMetadata(id, input.Metadata)
	})
}

// @Summary      Start all timers
// @Tags         timers
// @Produce      json
// @Success      200  {object}  map[string]int  "count touched"
// @Router       /api/v1/timers/start-all [post]
// @Security     BearerAuth
func (h *Handler) startAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.services.Timers.StartAll()})
}

// @Summary      Pause all timers
// @Tags         timers
// @Produce      json
// @Success      200  {object}  map[string]int  "count touched"
// @Router       /api/v1/timers/pause-all [post]
// @Security     BearerAuth
func (h *Handler) pauseAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.services.Timers.PauseAll()})
}

// @Summary      Reset all timers
// @Tags         timers
// @Produce      json
// @Success      200  {object}  map[string]int  "count touched"
// @Router       /api/v1/timers/reset-all [post]
// @Security     BearerAuth
func (h *Handler) resetAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.services.Timers.ResetAll()})
}

// @Summary      Remove all timers
// @Tags         timers
// @Produce      json
// @Success      200  {object}  map[string]int  "count removed"
// @Router       /api/v1/timers [delete]
// @Security     BearerAuth
func (h *Handler) clearTimers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.services.Timers.ClearAll()})
}

// @Summary      Process a free-text command
// @Description  Hands a transcribed or typed command to the interpreter. 200 with recognized=false means the text matched nothing.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        input  body  commandInput  true  "Command text"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/commands [post]
// @Security     BearerAuth
func (h *Handler) processCommand(c *gin.Context) {
	var input commandInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"recognized": h.services.Timers.Command(input.Command)})
}
