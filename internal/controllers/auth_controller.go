package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"mutual_aid/internal/metrics"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

// TokenSigner issues session tokens.
type TokenSigner interface {
	Issue(userID, email, role, username string) (string, error)
}

// Credentials hashes and checks passwords.
type Credentials interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
	NeedsRehash(stored string) bool
}

var validate = validator.New()

type AuthController struct {
	Users  UserAccounts
	Hasher Credentials
	Tokens TokenSigner
}

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Name, input.Email, input.Password) {
		badRequest(c, "All fields are required.")
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := validate.Var(input.Email, "email"); err != nil {
		badRequest(c, "Invalid email format.")
		return
	}

	hash, err := ac.Hasher.Hash(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := ac.Users.Create(c.Request.Context(), strings.TrimSpace(input.Name), input.Email, hash)
	if err != nil {
		metrics.RecordAuth("register", false)
		if errors.Is(err, store.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already in use."})
			return
		}
		respondError(c, err)
		return
	}

	token, err := ac.issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAuth("register", true)
	logrus.WithField("user_id", user.ID).Info("user registered")

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"userId":   user.ID,
		"token":    token,
		"username": user.Username,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || blank(body.Email, body.Password) {
		badRequest(c, "Email and password are required.")
		return
	}

	ctx := c.Request.Context()
	user, err := ac.Users.FindByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordAuth("login", false)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials."})
			return
		}
		respondError(c, err)
		return
	}

	if !ac.Hasher.Verify(body.Password, user.Password) {
		metrics.RecordAuth("login", false)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials."})
		return
	}

	if ac.Hasher.NeedsRehash(user.Password) {
		ac.upgradeCredential(c, user.ID, body.Password)
	}

	token, err := ac.issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAuth("login", true)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"userId":   user.ID,
		"token":    token,
		"username": user.Username,
	})
}

// Me returns the caller's current account record.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.Users.FindByID(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// upgradeCredential re-hashes a legacy credential after a successful login.
// Failures are logged; the login itself still succeeds.
func (ac *AuthController) upgradeCredential(c *gin.Context, userID uint, password string) {
	hash, err := ac.Hasher.Hash(password)
	if err == nil {
		err = ac.Users.UpdatePassword(c.Request.Context(), userID, hash)
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("credential upgrade failed")
		return
	}
	logrus.WithField("user_id", userID).Info("legacy credential upgraded")
}

func (ac *AuthController) issue(user *models.User) (string, error) {
	return ac.Tokens.Issue(strconv.FormatUint(uint64(user.ID), 10), user.Email, user.Role, user.Username)
}
