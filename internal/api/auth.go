package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipehome/internal/client"
	"github.com/pageza/recipehome/internal/service"
	"github.com/pageza/recipehome/internal/session"
	"github.com/pageza/recipehome/internal/types"
)

// Authenticator exchanges credentials for a session token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*types.AuthResponse, error)
}

const sessionMaxAge = 24 * 60 * 60

type AuthHandler struct {
	auth    Authenticator
	views   *service.Views
	cookies Cookies
	logger  *log.Logger
}

func NewAuthHandler(auth Authenticator, views *service.Views, cookies Cookies, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &AuthHandler{
		auth:    auth,
		views:   views,
		cookies: cookies,
		logger:  logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/signin", h.SignInForm)
	router.POST("/signin", h.SignIn)
	router.POST("/signout", h.SignOut)
}

type signInPage struct {
	Email string
	Error string
}

func (h *AuthHandler) SignInForm(c *gin.Context) {
	page := signInPage{}
	if c.Query("notice") == NoticeExpired {
		page.Error = notices[NoticeExpired]
	}
	c.HTML(http.StatusOK, "signin.tmpl", page)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "signin.tmpl", signInPage{
			Email: c.PostForm("email"),
			Error: "Email and password are required.",
		})
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Printf("sign in %s: %v", req.Email, err)
		status, msg := http.StatusBadGateway, "Sign-in is unavailable right now. Please try again."
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			status, msg = http.StatusUnauthorized, "Invalid email or password."
		}
		c.HTML(status, "signin.tmpl", signInPage{Email: req.Email, Error: msg})
		return
	}

	identity, err := session.EncodeIdentity(resp.User)
	if err != nil {
		h.logger.Printf("encode identity for %s: %v", req.Email, err)
		c.HTML(http.StatusInternalServerError, "signin.tmpl", signInPage{Email: req.Email, Error: "Sign-in failed."})
		return
	}

	setCookie(c, h.cookies.Credential, resp.Token, sessionMaxAge, true)
	setCookie(c, h.cookies.Identity, identity, sessionMaxAge, false)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	sess := session.FromRequest(c.Request, h.cookies.Credential, h.cookies.Identity)
	if sess.HasSession() {
		h.views.Unmount(sess.Credential())
	}
	clearSession(c, h.cookies)
	c.Redirect(http.StatusSeeOther, "/?notice="+NoticeSignedOut)
}

func clearSession(c *gin.Context, cookies Cookies) {
	setCookie(c, cookies.Credential, "", -1, true)
	setCookie(c, cookies.Identity, "", -1, false)
}

// setCookie stores value as is; the identity payload is already escaped
func setCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
}
