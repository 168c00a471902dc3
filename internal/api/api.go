package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gojson "github.com/goccy/go-json"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sliink/dataprocessor/internal/api/docs"
	"github.com/sliink/dataprocessor/internal/core"
	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// API is the REST surface over a running core
type API struct {
	core   *core.Core
	router *gin.Engine
	server *http.Server
	addr   string
}

// ModeRequest is the body of PUT /config/mode
type ModeRequest struct {
	Mode model.ProcessingMode `json:"mode" binding:"required"`
}

// BackendRequest is the body of PUT /config/backend
type BackendRequest struct {
	Backend model.BackendType `json:"backend" binding:"required"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAPI creates a new API instance
// @title           Data Processor API
// @version         1.0
// @description     Select a processing mode and storage backend, then push records through the pipeline
// @BasePath        /
func NewAPI(c *core.Core, host string, port int) *API {
	addr := host + ":" + strconv.Itoa(port)
	docs.SwaggerInfo.Host = addr

	router := gin.New()
	router.Use(gin.Recovery(), RequestID())

	a := &API{
		core:   c,
		router: router,
		addr:   addr,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/status", a.getStatus)

	config := a.router.Group("/config")
	{
		config.GET("", a.getConfig)
		config.PUT("/mode", a.setMode)
		config.PUT("/backend", a.setBackend)
		config.PUT("/options", a.setOptions)
	}

	a.router.GET("/modes", a.getModes)
	a.router.GET("/backends", a.getBackends)
	a.router.POST("/process", a.process)
	a.router.GET("/events", a.getEvents)
	a.router.POST("/shutdown", a.shutdown)

	a.router.GET("/metrics", gin.WrapH(a.core.Metrics().Handler()))
	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler returns the router, for embedding or tests
func (a *API) Handler() http.Handler {
	return a.router
}

// Start serves until Stop is called
func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Get().Infow("api listening", "addr", a.addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// healthCheck handles GET /health
// @Summary      Health check
// @Description  Aggregated status of every component
// @Tags         system
// @Produce      json
// @Success      200  {object}  model.HealthStatus
// @Failure      503  {object}  model.HealthStatus
// @Router       /health [get]
func (a *API) healthCheck(c *gin.Context) {
	health := a.core.HealthMonitor().GetHealthStatus()
	code := http.StatusOK
	if health.Status == model.StatusError {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// getStatus handles GET /status
// @Summary      Pipeline status
// @Description  Current configuration, strategy, adapter and observers
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /status [get]
func (a *API) getStatus(c *gin.Context) {
	pipeline := a.core.Pipeline()
	status := gin.H{
		"configuration": pipeline.Configuration(),
		"state":         pipeline.State(),
		"observers":     a.core.Notifier().Observers(),
		"history":       a.core.History().Status(),
	}
	if s := pipeline.CurrentStrategy(); s != nil {
		status["strategy"] = gin.H{"name": s.Identify(), "description": s.Describe(), "mode": s.Mode()}
	}
	if adapter := pipeline.CurrentAdapter(); adapter != nil {
		status["adapter"] = gin.H{"backend": adapter.Identify(), "connected": adapter.Connected()}
	}
	c.JSON(http.StatusOK, status)
}

// getConfig handles GET /config
// @Summary      Current configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  model.PipelineConfiguration
// @Router       /config [get]
func (a *API) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.Pipeline().Configuration())
}

// setMode handles PUT /config/mode
// @Summary      Switch processing mode
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request  body      ModeRequest  true  "New mode"
// @Success      200      {object}  model.PipelineConfiguration
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /config/mode [put]
func (a *API) setMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := a.core.Pipeline().SetMode(c.Request.Context(), req.Mode); err != nil {
		a.configError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.core.Pipeline().Configuration())
}

// setBackend handles PUT /config/backend
// @Summary      Switch storage backend
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request  body      BackendRequest  true  "New backend"
// @Success      200      {object}  model.PipelineConfiguration
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /config/backend [put]
func (a *API) setBackend(c *gin.Context) {
	var req BackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := a.core.Pipeline().SetBackend(c.Request.Context(), req.Backend); err != nil {
		a.configError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.core.Pipeline().Configuration())
}

// setOptions handles PUT /config/options
// @Summary      Merge pipeline options
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]interface{}  true  "Options to merge"
// @Success      200      {object}  model.PipelineConfiguration
// @Failure      400      {object}  ErrorResponse
// @Router       /config/options [put]
func (a *API) setOptions(c *gin.Context) {
	var opts map[string]any
	if err := readJSON(c, &opts); err != nil || opts == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "options must be a JSON object"})
		return
	}
	a.core.Pipeline().SetOptions(opts)
	c.JSON(http.StatusOK, a.core.Pipeline().Configuration())
}

func (a *API) configError(c *gin.Context, err error) {
	var unknownMode *model.UnknownModeError
	var unknownBackend *model.UnknownBackendError
	code := http.StatusInternalServerError
	if errors.As(err, &unknownMode) || errors.As(err, &unknownBackend) {
		code = http.StatusBadRequest
	}
	logger.Get().Warnw("reconfiguration rejected", "request_id", GetRequestID(c.Request.Context()), "error", err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// getModes handles GET /modes
// @Summary      Supported processing modes
// @Tags         config
// @Produce      json
// @Success      200  {array}  string
// @Router       /modes [get]
func (a *API) getModes(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.Pipeline().SupportedModes())
}

// getBackends handles GET /backends
// @Summary      Supported storage backends
// @Tags         config
// @Produce      json
// @Success      200  {array}  string
// @Router       /backends [get]
func (a *API) getBackends(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.Pipeline().SupportedBackends())
}

// process handles POST /process
// @Summary      Process a record
// @Description  Runs the body through the current strategy. Failed results are returned with 200.
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]interface{}  true  "Record to process"
// @Success      200      {object}  model.ProcessingResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /process [post]
func (a *API) process(c *gin.Context) {
	var data any
	if err := readJSON(c, &data); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	result, err := a.core.Pipeline().Process(c.Request.Context(), data)
	if err != nil {
		logger.Get().Errorw("process failed", "request_id", GetRequestID(c.Request.Context()), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// getEvents handles GET /events
// @Summary      Recent pipeline events
// @Tags         pipeline
// @Produce      json
// @Param        limit  query     int     false  "Most recent N events"
// @Param        kind   query     string  false  "Only events of this kind"
// @Success      200    {array}   model.ProcessingEvent
// @Failure      400    {object}  ErrorResponse
// @Router       /events [get]
func (a *API) getEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	var events []model.ProcessingEvent
	if kind := c.Query("kind"); kind != "" {
		events = a.core.History().Filter(model.EventKind(kind))
		if limit > 0 && limit < len(events) {
			events = events[len(events)-limit:]
		}
	} else {
		events = a.core.History().Events(limit)
	}
	if events == nil {
		events = []model.ProcessingEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// shutdown handles POST /shutdown
// @Summary      Disconnect every adapter
// @Description  The next process call reconnects
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  ErrorResponse
// @Router       /shutdown [post]
func (a *API) shutdown(c *gin.Context) {
	if err := a.core.Pipeline().Shutdown(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Adapters disconnected"})
}

// readJSON decodes the raw body into v. An empty body leaves v untouched.
func readJSON(c *gin.Context, v any) error {
	body, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return gojson.Unmarshal(body, v)
}
