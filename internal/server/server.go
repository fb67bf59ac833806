// Package server exposes the news list and the article overlay over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/internal/render"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

// NewsService refreshes the feed and looks up items of the last load.
type NewsService interface {
	Refresh(ctx context.Context) error
	ItemByID(id string) (domain.FeedItem, bool)
}

// ArticleService opens and closes the article overlay of one session.
type ArticleService interface {
	Open(ctx context.Context, item domain.FeedItem) <-chan domain.ResolvedArticle
	Close()
}

// ListView exposes snapshots of the shared news list.
type ListView interface {
	List() render.ListState
}

// Options configures a Server.
type Options struct {
	Addr string
	// BaseContext bounds background article fetches; they must outlive the
	// request that started them. Defaults to context.Background.
	BaseContext context.Context
	Debug       bool
	// SessionIdleTTL and MaxSessions bound the per-viewer overlays kept in
	// memory. Zero values pick DefaultSessionIdleTTL and DefaultMaxSessions.
	SessionIdleTTL time.Duration
	MaxSessions    int
}

// Server is the HTTP front of the news panel.
type Server struct {
	engine   *gin.Engine
	srv      *http.Server
	news     NewsService
	list     ListView
	sessions *sessionStore
	baseCtx  context.Context
	log      logger.Logger
}

// New builds the gin engine and registers all routes. Every viewer session
// gets its own article service from newArticles.
func New(opts Options, news NewsService, list ListView, newArticles ArticleFactory, log logger.Logger) (*Server, error) {
	if news == nil || list == nil || newArticles == nil {
		return nil, fmt.Errorf("server requires news, list and article services")
	}

	tmpl, err := template.New("index.html.tmpl").Funcs(templateFuncs).ParseFS(templatesFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log = logger.Ensure(log)
	s := &Server{
		engine:   gin.New(),
		news:     news,
		list:     list,
		sessions: newSessionStore(newArticles, opts.SessionIdleTTL, opts.MaxSessions, log),
		baseCtx:  opts.BaseContext,
		log:      log,
	}
	if s.baseCtx == nil {
		s.baseCtx = context.Background()
	}

	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(gin.Recovery(), requestLogger(s.log), cors())
	s.routes()

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/", s.index)
	s.engine.POST("/news/:id/open", s.openFromPage)
	s.engine.POST("/article/close", s.closeFromPage)
	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api")
	{
		api.GET("/news", s.listNews)
		api.POST("/news/refresh", s.refreshNews)
		api.POST("/news/:id/open", s.openArticle)
		api.GET("/article", s.currentArticle)
		api.DELETE("/article", s.closeArticle)
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.InfoObj("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and cancels every in-flight article fetch.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.sessions.closeAll()
	return s.srv.Shutdown(ctx)
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html.tmpl", gin.H{
		"List":    toListView(s.list.List()),
		"Article": s.overlayState(c),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "list": s.list.List().Status})
}

func (s *Server) listNews(c *gin.Context) {
	success(c, toListView(s.list.List()), "ok")
}

func (s *Server) refreshNews(c *gin.Context) {
	if err := s.news.Refresh(c.Request.Context()); err != nil {
		_ = c.Error(err)
		list := s.list.List()
		c.JSON(http.StatusBadGateway, Response{
			Code:    http.StatusBadGateway,
			Message: list.Message,
			Data:    toListView(list),
		})
		return
	}
	success(c, toListView(s.list.List()), "refreshed")
}

// openArticle starts resolution and answers 202 with the pending overlay.
// With ?wait=true it blocks until the article is resolved and answers 200.
func (s *Server) openArticle(c *gin.Context) {
	item, ok := s.lookupItem(c)
	if !ok {
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}

	done := sess.articles.Open(s.baseCtx, item)
	if c.Query("wait") != "true" {
		successWithStatus(c, http.StatusAccepted, sess.overlay.Article(), "pending")
		return
	}

	select {
	case resolved := <-done:
		success(c, resolved, "resolved")
	case <-c.Request.Context().Done():
		fail(c, http.StatusRequestTimeout, "request cancelled before the article resolved")
	}
}

func (s *Server) currentArticle(c *gin.Context) {
	success(c, s.overlayState(c), "ok")
}

func (s *Server) closeArticle(c *gin.Context) {
	if sess, ok := s.sessions.lookup(sessionID(c)); ok {
		sess.articles.Close()
	}
	success(c, s.overlayState(c), "closed")
}

func (s *Server) openFromPage(c *gin.Context) {
	item, ok := s.lookupItem(c)
	if !ok {
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.articles.Open(s.baseCtx, item)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) closeFromPage(c *gin.Context) {
	if sess, ok := s.sessions.lookup(sessionID(c)); ok {
		sess.articles.Close()
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// lookupItem resolves the :id route parameter against the last loaded feed.
// Items are addressed by ID so a refresh that reorders the feed between
// listing and opening still opens the item the viewer picked.
func (s *Server) lookupItem(c *gin.Context) (domain.FeedItem, bool) {
	id := c.Param("id")
	item, ok := s.news.ItemByID(id)
	if !ok {
		fail(c, http.StatusNotFound, fmt.Sprintf("no news item with id %q in the current feed", id))
		return domain.FeedItem{}, false
	}
	return item, true
}

// session returns the caller's session, starting one and setting its cookie
// when the request carries none.
func (s *Server) session(c *gin.Context) (*session, bool) {
	id := sessionID(c)
	sess, err := s.sessions.acquire(id)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "could not start a viewer session")
		return nil, false
	}
	if sess.id != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, sess.id, int(s.sessions.idleTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	}
	return sess, true
}

// overlayState is the caller's overlay, closed when it has no session yet.
func (s *Server) overlayState(c *gin.Context) render.ArticleState {
	if sess, ok := s.sessions.lookup(sessionID(c)); ok {
		return sess.overlay.Article()
	}
	return render.ArticleState{}
}

func sessionID(c *gin.Context) string {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return id
}
