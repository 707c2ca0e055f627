package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TobiSchelling/feedboard/internal/database"
	"github.com/TobiSchelling/feedboard/internal/logger"
	"github.com/TobiSchelling/feedboard/internal/relage"
	"github.com/TobiSchelling/feedboard/internal/snapshot"
)

// Server exposes the published snapshot to the rendering layer.
type Server struct {
	path   string
	db     *database.DB
	now    func() time.Time
	engine *gin.Engine
}

// ArticleItem is one article flattened out of its source and feed.
type ArticleItem struct {
	Source      string `json:"source"`
	Topic       string `json:"topic"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Link        string `json:"link"`
	PublishedAt string `json:"publishedAt"`
	UploadedAgo string `json:"uploadedAgo"`
	Priority    int    `json:"priority"`
}

// New creates a server for the snapshot at path. db may be nil.
func New(path string, db *database.DB) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	s := &Server{path: path, db: db, now: time.Now, engine: r}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/config.json", s.snapshotFile)

	api := s.engine.Group("/api")
	{
		api.GET("/articles", s.listArticles)
		api.GET("/runs", s.listRuns)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// snapshotFile serves the document bytes exactly as published.
func (s *Server) snapshotFile(c *gin.Context) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "snapshot not published"})
			return
		}
		logger.Errorf("[server] reading snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal server error"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) listArticles(c *gin.Context) {
	minPriority := 0
	if v := c.Query("min_priority"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "min_priority must be an integer"})
			return
		}
		minPriority = n
	}
	source := strings.TrimSpace(c.Query("source"))

	doc, err := snapshot.Load(s.path)
	if err != nil {
		logger.Errorf("[server] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal server error"})
		return
	}

	items := Flatten(doc, s.now())
	filtered := items[:0]
	for _, it := range items {
		if source != "" && !strings.EqualFold(it.Source, source) {
			continue
		}
		if it.Priority < minPriority {
			continue
		}
		filtered = append(filtered, it)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":      "ok",
		"message":   "success",
		"updatedAt": doc.UpdatedAt,
		"data":      filtered,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "message": "run history disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := s.db.GetRecentRuns(limit)
	if err != nil {
		logger.Errorf("[server] listing runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal server error"})
		return
	}

	data := make([]gin.H, 0, len(runs))
	for _, r := range runs {
		data = append(data, gin.H{
			"id":          r.ID,
			"startedAt":   r.StartedAt,
			"finishedAt":  r.FinishedAt,
			"status":      r.Status,
			"updatedAt":   r.UpdatedAt,
			"error":       r.Error,
			"feedsTotal":  r.FeedsTotal,
			"feedsOk":     r.FeedsOK,
			"feedsFailed": r.FeedsFailed,
		})
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": data})
}

// Flatten lists every article in doc, highest priority first. Ties keep
// document order. uploadedAgo is recomputed for display against now.
func Flatten(doc snapshot.Document, now time.Time) []ArticleItem {
	var items []ArticleItem
	for _, src := range doc.Sources {
		for _, feed := range src.Feeds {
			for _, a := range feed.Articles {
				items = append(items, ArticleItem{
					Source:      src.Name,
					Topic:       feed.Topic,
					Title:       a.Title,
					Summary:     a.Summary,
					Link:        a.Link,
					PublishedAt: a.PublishedAt,
					UploadedAgo: relage.Display(a.PublishedAt, now),
					Priority:    a.Priority,
				})
			}
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
	if items == nil {
		items = []ArticleItem{}
	}
	return items
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("[server] %s %s %d %s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start))
	}
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[server] listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Infof("[server] shutting down")
	return srv.Shutdown(shutdownCtx)
}
