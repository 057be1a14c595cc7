package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blogicum/models"
)

// SessionUserKey is the session entry holding the logged-in user id.
const SessionUserKey = "user_id"

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/signup", a.signupPage)
	router.POST("/signup", a.signupPost)
	router.GET("/logout", a.logout)
}

// RequireAuth redirects anonymous requests to the login page and exposes the
// user id on the gin context for downstream handlers.
func RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get(SessionUserKey)

	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	c.Set(SessionUserKey, userID)
	c.Next()
}

// CurrentUserID returns the id of the logged-in user, or 0 for anonymous
// requests. Identity always travels through this value; handlers never read
// the session themselves.
func CurrentUserID(c *gin.Context) int {
	if v, exists := c.Get(SessionUserKey); exists {
		if id, ok := v.(int); ok {
			return id
		}
	}

	session := sessions.Default(c)
	if v := session.Get(SessionUserKey); v != nil {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// CurrentUser loads the full user record for the session identity.
func CurrentUser(c *gin.Context, db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.First(&user, CurrentUserID(c)).Error
	return &user, err
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if CurrentUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "auth_login.html", gin.H{})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "auth_login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "auth_login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionUserKey, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (a *AuthModule) signupPage(c *gin.Context) {
	if CurrentUserID(c) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "auth_signup.html", gin.H{})
}

func (a *AuthModule) signupPost(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	firstName := c.PostForm("first_name")
	lastName := c.PostForm("last_name")

	// echoed back on validation errors, never the password
	formData := gin.H{
		"username":   username,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}

	if username == "" || password == "" {
		formData["error"] = "Username and password are required"
		c.HTML(http.StatusBadRequest, "auth_signup.html", formData)
		return
	}

	var existingUser models.User
	if err := a.db.Where("username = ?", username).First(&existingUser).Error; err == nil {
		formData["error"] = "This username is already taken"
		c.HTML(http.StatusBadRequest, "auth_signup.html", formData)
		return
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "auth_signup.html", formData)
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
	}

	if err := a.db.Create(&user).Error; err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "auth_signup.html", formData)
		return
	}

	session := sessions.Default(c)
	session.Set(SessionUserKey, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/login")
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
