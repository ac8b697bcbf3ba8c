package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:3000"

// MaxViewPage bounds the page parameter of /api/view.
const MaxViewPage = 100_000

// Server provides a read-only HTTP API over the issue store.
type Server struct {
	addr      string
	store     model.IssueQuerier
	metrics   *Metrics
	pageSize  int
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store model.IssueQuerier) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		store:     store,
		metrics:   NewMetrics(),
		pageSize:  model.DefaultPageIncrement,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// SetPageSize changes the default /api/view window size.
func (s *Server) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/issues", s.handleIssues)
	r.GET("/api/facets/:facet", s.handleFacet)
	r.GET("/api/view", s.handleView)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.addr, err)
	}

	s.startTime = time.Now()
	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	count, err := s.store.IssueCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).String(),
		"issue_count": count,
	})
}

func (s *Server) handleIssues(c *gin.Context) {
	issues, err := s.store.ListIssues(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list issues"})
		return
	}
	if issues == nil {
		issues = []model.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(issues),
		"issues": issues,
	})
}

func (s *Server) handleFacet(c *gin.Context) {
	facet := c.Param("facet")
	if !slices.Contains(model.CountFacets, facet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown facet %q", facet)})
		return
	}
	counts, err := s.store.FacetCounts(c.Request.Context(), facet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count facet values"})
		return
	}
	if counts == nil {
		counts = []model.DimensionCount{}
	}
	c.JSON(http.StatusOK, gin.H{
		"facet":  facet,
		"values": counts,
	})
}

type viewResponse struct {
	view.Snapshot
	Page      int    `json:"page"`
	Size      int    `json:"size"`
	Filtering bool   `json:"filtering"`
	Searching bool   `json:"searching"`
	Scope     string `json:"scope"`
}

// handleView runs the browser engine server-side so scripts can ask for the
// same page a terminal user would see.
func (s *Server) handleView(c *gin.Context) {
	size := s.pageSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be a positive integer"})
			return
		}
		size = n
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxViewPage {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("page must be an integer between 1 and %d", MaxViewPage)})
			return
		}
		page = n
	}

	chartFacet := view.FacetEmployee
	if raw := c.Query("chart"); raw != "" {
		f, err := view.ParseFacet(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chartFacet = f
	}

	issues, err := s.store.ListIssues(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list issues"})
		return
	}

	b := view.NewBrowser(view.BrowserOptions{
		Store:      view.Options{PageIncrement: size},
		ChartFacet: chartFacet,
	})
	defer b.Close()
	b.SetRecords(issues, false)

	if err := applyViewQuery(b, c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.ShowPage(page)

	start := time.Now()
	snap := b.Snapshot()
	s.metrics.observeDerive(time.Since(start), snap.Derived)

	if snap.Visible == nil {
		snap.Visible = []model.Issue{}
	}
	c.JSON(http.StatusOK, viewResponse{
		Snapshot:  snap,
		Page:      snap.State.Page.Page,
		Size:      snap.State.Page.Increment,
		Filtering: snap.State.Primary.IsFiltering(),
		Searching: snap.State.Search.Active,
		Scope:     string(snap.State.Search.Scope),
	})
}

// applyViewQuery replays query parameters as browser events, primary filter
// first so later events see the applied phase.
func applyViewQuery(b *view.Browser, c *gin.Context) error {
	staged := false
	for _, facet := range view.Facets() {
		if v := c.Query(string(facet)); v != "" {
			if err := b.StageFilter(facet, v); err != nil {
				return err
			}
			staged = true
		}
	}
	if staged {
		b.ApplyFilter()
	}

	if v := c.Query("status"); v != "" {
		if err := b.SetStatus(matchOption(v, view.StatusOptions())); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}
	if v := c.Query("state"); v != "" {
		if err := b.SetState(view.ActiveState(matchOption(v, view.StateOptions()))); err != nil {
			return fmt.Errorf("state: %w", err)
		}
	}
	if v := c.Query("order"); v != "" {
		if err := b.SetOrder(parseOrder(v)); err != nil {
			return fmt.Errorf("order: %w", err)
		}
	}
	if v := c.Query("select"); v != "" {
		kind, value, ok := strings.Cut(v, ":")
		if !ok || value == "" {
			return errors.New("select must look like facet:value")
		}
		facet, err := view.ParseFacet(kind)
		if err != nil {
			return err
		}
		if err := b.SelectFacet(facet, value); err != nil {
			return err
		}
	}
	if v := c.Query("scope"); v != "" {
		if err := b.SetSearchScope(view.SearchScope(strings.ToLower(v))); err != nil {
			return fmt.Errorf("scope: %w", err)
		}
	}
	if v := c.Query("q"); v != "" {
		b.SetSearch(v)
	}
	return nil
}

// matchOption returns the canonical spelling of v among options, ignoring case.
func matchOption[T ~string](v string, options []T) string {
	for _, opt := range options {
		if strings.EqualFold(string(opt), v) {
			return string(opt)
		}
	}
	return v
}

func parseOrder(v string) view.SortOrder {
	switch strings.ToLower(v) {
	case "asc":
		return view.OrderAscending
	case "desc":
		return view.OrderDescending
	}
	return view.SortOrder(matchOption(v, view.OrderOptions()))
}
