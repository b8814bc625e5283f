package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/session"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

// RememberCookie carries the remember-me token.
const RememberCookie = "stockroom_remember"

const sessionUserKey = "user_id"

// AuthController logs users in and out and resolves the request principal.
type AuthController struct {
	base
	auth   *services.AuthService
	secure bool
}

func NewAuthController(v *view.Renderer, auth *services.AuthService, secureCookies bool) *AuthController {
	return &AuthController{base: base{view: v, maxBytes: bind.DefaultMaxBytes}, auth: auth, secure: secureCookies}
}

// Resolve returns the principal of the logged-in user. A valid remember-me
// cookie logs the user back in when the session has expired.
func (c *AuthController) Resolve(r *http.Request) *rbac.Principal {
	sess := session.FromCtx(r)
	if id, ok := sess.GetUint(sessionUserKey); ok && id != 0 {
		u, err := c.auth.User(r.Context(), id)
		if err == nil {
			return u.Principal()
		}
		sess.Delete(sessionUserKey)
	}

	cookie, err := r.Cookie(RememberCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	u, err := c.auth.FromRememberToken(r.Context(), cookie.Value)
	if err != nil {
		logger.WithCtx(r.Context()).Debug("auth: remember token rejected", "error", err)
		return nil
	}
	sess.Regenerate()
	sess.Set(sessionUserKey, u.ID)
	return u.Principal()
}

// ShowLogin renders the login form.
func (c *AuthController) ShowLogin(w http.ResponseWriter, r *http.Request) {
	c.view.Render(w, r, http.StatusOK, "login.html", view.Data{
		"Title": "Login",
		"Form":  services.LoginInput{},
		"Next":  r.URL.Query().Get("next"),
	})
}

// Login checks the credentials and starts the session.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	errs, err := bind.Request(r, &in, c.maxBytes)
	if err != nil {
		c.view.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	next := r.URL.Query().Get("next")
	if next == "" {
		next = r.FormValue("next")
	}
	data := view.Data{"Title": "Login", "Form": in, "Next": next}
	if len(errs) > 0 {
		c.invalid(w, r, "login.html", errs, data)
		return
	}

	u, err := c.auth.Attempt(r.Context(), in.Login, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		const msg = "Login Unsuccessful. Check username/email and password."
		if response.WantsJSON(r) {
			response.Error(w, http.StatusUnauthorized, msg)
			return
		}
		flash(r, flashDanger, msg)
		c.view.Render(w, r, http.StatusUnauthorized, "login.html", data)
		return
	}
	if err != nil {
		c.fail(w, r, err)
		return
	}

	sess := session.FromCtx(r)
	sess.Regenerate()
	sess.Set(sessionUserKey, u.ID)

	if in.Remember {
		token, err := c.auth.RememberToken(u)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("auth: issue remember token", "error", err)
		} else {
			http.SetCookie(w, &http.Cookie{
				Name:     RememberCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   c.auth.TokenTTL(),
				HttpOnly: true,
				Secure:   c.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}

	flash(r, flashSuccess, fmt.Sprintf("Welcome back, %s!", u.Name))
	done(w, r, middleware.SafeNext(next, "/dashboard"), http.StatusOK, u.Principal())
}

// Logout ends the session and forgets the remember-me cookie.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromCtx(r)
	sess.Invalidate()
	http.SetCookie(w, &http.Cookie{Name: RememberCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	sess.Flash(flashInfo, "You have been logged out.")
	redirect(w, r, "/login")
}
