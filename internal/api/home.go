package api

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipehome/internal/client"
	"github.com/pageza/recipehome/internal/middleware"
	"github.com/pageza/recipehome/internal/service"
	"github.com/pageza/recipehome/internal/session"
	"github.com/pageza/recipehome/internal/types"
)

// Notice codes carried in the ?notice= parameter after a redirect
const (
	NoticeLoadFailed     = "load-failed"
	NoticeFavoriteFailed = "favorite-failed"
	NoticeDeleteFailed   = "delete-failed"
	NoticeBusy           = "busy"
	NoticeExpired        = "expired"
	NoticeSignedOut      = "signed-out"
)

var notices = map[string]string{
	NoticeLoadFailed:     "Some recipes could not be loaded. Showing what we have.",
	NoticeFavoriteFailed: "Could not update your favorites. Please try again.",
	NoticeDeleteFailed:   "Could not delete the recipe. Please try again.",
	NoticeBusy:           "That recipe is still being updated.",
	NoticeExpired:        "Your session has expired. Please sign in again.",
	NoticeSignedOut:      "You have been signed out.",
}

// Cookies names the cookies that carry the session
type Cookies struct {
	Credential string
	Identity   string
}

// HomeHandler serves the recipe list and its favorite/delete actions
type HomeHandler struct {
	views      *service.Views
	cookies    Cookies
	signInPath string
	limiter    *middleware.RateLimiter
	logger     *log.Logger
}

// NewHomeHandler creates a handler backed by views. limiter may be nil.
func NewHomeHandler(views *service.Views, cookies Cookies, signInPath string, limiter *middleware.RateLimiter, logger *log.Logger) *HomeHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &HomeHandler{
		views:      views,
		cookies:    cookies,
		signInPath: signInPath,
		limiter:    limiter,
		logger:     logger,
	}
}

func (h *HomeHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Home)
	router.GET("/api/home", h.HomeJSON)

	recipes := router.Group("/recipes")
	if h.limiter != nil {
		recipes.Use(h.limiter.Middleware(func(c *gin.Context) string {
			return middleware.HashKey(h.session(c).Credential())
		}))
	}
	{
		recipes.POST("/:id/favorite", h.ToggleFavorite)
		recipes.POST("/:id/delete", h.DeleteRecipe)
	}
}

type recipeCard struct {
	Recipe   types.Recipe
	Favorite bool
	Pending  bool
}

type homePage struct {
	Cards      []recipeCard
	Query      string
	LoggedIn   bool
	Notice     string
	SignInPath string
}

// HomeResponse is the JSON rendition of the home view
type HomeResponse struct {
	Recipes   []types.Recipe `json:"recipes"`
	Favorites []string       `json:"favorites"`
	Query     string         `json:"query"`
	LoggedIn  bool           `json:"loggedIn"`
	Error     string         `json:"error,omitempty"`
}

func (h *HomeHandler) Home(c *gin.Context) {
	query := c.Query("q")
	view, loggedIn, err := h.view(c)

	notice := notices[c.Query("notice")]
	switch {
	case err != nil && !loggedIn && view.LoggedIn():
		notice = notices[NoticeExpired]
	case err != nil && notice == "":
		notice = notices[NoticeLoadFailed]
	}

	visible := view.Search(query)
	cards := make([]recipeCard, 0, len(visible))
	for _, r := range visible {
		cards = append(cards, recipeCard{
			Recipe:   r,
			Favorite: view.IsFavorite(r.ID),
			Pending:  view.Pending(r.ID),
		})
	}

	c.HTML(http.StatusOK, "home.tmpl", homePage{
		Cards:      cards,
		Query:      query,
		LoggedIn:   loggedIn,
		Notice:     notice,
		SignInPath: h.signInPath,
	})
}

func (h *HomeHandler) HomeJSON(c *gin.Context) {
	query := c.Query("q")
	view, loggedIn, err := h.view(c)

	recipes := view.Search(query)
	if recipes == nil {
		recipes = []types.Recipe{}
	}
	resp := HomeResponse{
		Recipes:   recipes,
		Favorites: view.Snapshot().Favorites.IDs(),
		Query:     query,
		LoggedIn:  loggedIn,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HomeHandler) ToggleFavorite(c *gin.Context) {
	h.mutate(c, NoticeFavoriteFailed, func(view *service.Synchronizer, id string) error {
		return view.Toggle(c.Request.Context(), id)
	}, func(view *service.Synchronizer, id string) gin.H {
		return gin.H{"id": id, "favorite": view.IsFavorite(id)}
	})
}

func (h *HomeHandler) DeleteRecipe(c *gin.Context) {
	h.mutate(c, NoticeDeleteFailed, func(view *service.Synchronizer, id string) error {
		return view.Delete(c.Request.Context(), id)
	}, func(view *service.Synchronizer, id string) gin.H {
		return gin.H{"id": id, "deleted": true}
	})
}

// mutate runs op against the caller's view and answers with a redirect for
// browsers or JSON for API callers
func (h *HomeHandler) mutate(c *gin.Context, failure string, op func(*service.Synchronizer, string) error, body func(*service.Synchronizer, string) gin.H) {
	id := c.Param("id")
	sess := h.session(c)
	wantsJSON := c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON

	if !sess.HasSession() {
		if wantsJSON {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrAuthMissing.Error()})
			return
		}
		c.Redirect(http.StatusSeeOther, h.signInPath)
		return
	}

	query := c.PostForm("q")
	view, err := h.views.Acquire(c.Request.Context(), sess)
	if status, _ := classify(err, failure); err == nil || status != http.StatusUnauthorized {
		// a failed load leaves a usable view; only a rejected credential stops the write
		err = op(view, id)
	}
	if err == nil {
		if wantsJSON {
			c.JSON(http.StatusOK, body(view, id))
			return
		}
		c.Redirect(http.StatusSeeOther, homeURL(query, ""))
		return
	}

	status, notice := classify(err, failure)
	if status == http.StatusUnauthorized {
		h.views.Unmount(sess.Credential())
		clearSession(c, h.cookies)
	}
	if wantsJSON {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, service.ErrAuthMissing) {
		c.Redirect(http.StatusSeeOther, h.signInPath)
		return
	}
	c.Redirect(http.StatusSeeOther, homeURL(query, notice))
}

// homeURL links back to the home page keeping the search
func homeURL(query, notice string) string {
	v := url.Values{}
	if notice != "" {
		v.Set("notice", notice)
	}
	if query != "" {
		v.Set("q", query)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// classify maps a synchronizer error to a response status and notice code
func classify(err error, failure string) (int, string) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, service.ErrAuthMissing):
		return http.StatusUnauthorized, NoticeExpired
	case errors.Is(err, service.ErrOperationPending):
		return http.StatusConflict, NoticeBusy
	case errors.Is(err, service.ErrUnmounted):
		return http.StatusConflict, NoticeBusy
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return http.StatusUnauthorized, NoticeExpired
	default:
		return http.StatusBadGateway, failure
	}
}

// view loads the caller's view. A credential the API rejects is cleared and
// the page renders as signed out.
func (h *HomeHandler) view(c *gin.Context) (*service.Synchronizer, bool, error) {
	sess := h.session(c)
	view, err := h.views.Get(c.Request.Context(), sess)
	if err == nil {
		return view, sess.HasSession(), nil
	}

	h.logger.Printf("load home: %v", err)
	var apiErr *client.APIError
	if sess.HasSession() && errors.As(err, &apiErr) && apiErr.Unauthorized() {
		clearSession(c, h.cookies)
		return view, false, err
	}
	return view, sess.HasSession(), err
}

func (h *HomeHandler) session(c *gin.Context) session.Session {
	return session.FromRequest(c.Request, h.cookies.Credential, h.cookies.Identity)
}
