package handlers

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"labellens/auth"

	"github.com/gin-gonic/gin"
)

func GoogleAuth(c *gin.Context) {
	oauthConfig := auth.GetGoogleOAuthConfig()
	state := auth.GenerateStateOauthCookie(c)
	c.Redirect(http.StatusTemporaryRedirect, oauthConfig.AuthCodeURL(state))
}

// GoogleCallback exchanges the OAuth code, creates or fetches the account
// and hands the frontend a bearer token via redirect.
func GoogleCallback(c *gin.Context) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:5173"
	}

	state := c.Query("state")
	cookieState, err := c.Cookie("oauthstate")
	if err != nil || state != cookieState {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=invalid_state")
		return
	}

	oauthConfig := auth.GetGoogleOAuthConfig()
	token, err := oauthConfig.Exchange(c, c.Query("code"))
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=token_exchange_failed")
		return
	}

	userInfo, err := auth.GoogleUserInfo(token.AccessToken)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=user_info_failed")
		return
	}

	googleID, _ := userInfo["id"].(string)
	email, _ := userInfo["email"].(string)
	username, _ := userInfo["name"].(string)
	if googleID == "" || email == "" {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=user_info_failed")
		return
	}
	if username == "" {
		username = email
	}

	user, err := auth.CreateOrGetGoogleUser(googleID, email, username)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=user_creation_failed")
		return
	}

	accessToken, err := auth.GenerateToken(user.ID, 10*24*time.Hour)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error=token_generation_failed")
		return
	}

	c.Redirect(http.StatusFound, frontend+"/login?token="+url.QueryEscape(accessToken))
}
