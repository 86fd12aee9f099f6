package stub

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wallshare/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const feedPerPage = 20

// Handlers groups the stub's HTTP handlers for dependency injection.
// Keep these thin: parse input, poke the store, return JSON in the shapes
// the client decodes.
type Handlers struct {
	Tokens *TokenManager
	Store  *Store
}

func (h Handlers) accountJSON(c *gin.Context, u *User) {
	now := time.Now()
	bearer, err := h.Tokens.Issue(now, u.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          gin.H{"id": u.ID, "username": u.Username, "email": u.Email},
		"auth_token":    bearer,
		"session_token": h.Store.OpenSession(u.ID),
	})
}

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	if _, ok := h.Store.Authenticate(req.Email, req.Password); ok {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "account already exists"})
		return
	}
	otp := h.Store.CreateUser(req.Email, req.Password)
	// No mail in a stub; the OTP lands in the log instead.
	logger.FromGin(c).Info("signup otp issued", "email", req.Email, "otp", otp)
	c.JSON(http.StatusOK, gin.H{"message": "Confirmation code sent"})
}

func (h Handlers) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and otp required"})
		return
	}
	u, ok := h.Store.VerifySignup(req.Email, req.OTP)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		return
	}
	h.accountJSON(c, u)
}

func (h Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	u, ok := h.Store.Authenticate(req.Email, req.Password)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.accountJSON(c, u)
}

// OAuthCallback fakes a third-party login: any non-empty code maps to a
// deterministic account for that provider.
func (h Handlers) OAuthCallback(c *gin.Context) {
	var req struct {
		Provider string `json:"provider"`
		Code     string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Provider == "" || req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "provider and code required"})
		return
	}
	email := fmt.Sprintf("%s-user@wallshare.local", req.Provider)
	u, ok := h.Store.Authenticate(email, req.Provider)
	if !ok {
		otp := h.Store.CreateUser(email, req.Provider)
		u, _ = h.Store.VerifySignup(email, otp)
	}
	h.accountJSON(c, u)
}

func (h Handlers) Logout(c *gin.Context) {
	if tok := c.GetHeader("X-Session-Token"); tok != "" {
		h.Store.CloseSession(tok)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h Handlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	if otp, ok := h.Store.RequestReset(req.Email); ok {
		logger.FromGin(c).Info("reset otp issued", "email", req.Email, "otp", otp)
	}
	// Same answer whether or not the account exists.
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a code was sent"})
}

func (h Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email, otp and new_password required"})
		return
	}
	if !h.Store.ResetPassword(req.Email, req.OTP, req.NewPassword) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// --- Profile & settings ---

func (h Handlers) Profile(c *gin.Context) {
	userID := c.GetString("user_id")
	u, ok := h.Store.UserByID(userID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	_, _, followers, uploads, _ := h.Store.StatsFor(userID)
	c.JSON(http.StatusOK, gin.H{"profile": gin.H{
		"user_id":    u.ID,
		"username":   u.Username,
		"bio":        u.Bio,
		"avatar_url": u.AvatarURL,
		"followers":  followers,
		"following":  len(h.Store.Following(userID)),
		"uploads":    uploads,
	}})
}

func (h Handlers) SetupProfile(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Bio       string `json:"bio"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	if !h.Store.UpdateProfile(c.GetString("user_id"), req.Username, req.Bio, req.AvatarURL) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

func (h Handlers) UpdateSettings(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	// The stub accepts and discards settings; persistence adds nothing here.
	c.JSON(http.StatusOK, gin.H{"message": "settings saved"})
}

// --- Wallpapers ---

func (h Handlers) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	items, totalPages, version := h.Store.FeedPage(page, feedPerPage)

	etag := fmt.Sprintf(`W/"feed-v%d-p%d"`, version, page)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	if items == nil {
		items = []*WallpaperRec{}
	}
	c.JSON(http.StatusOK, gin.H{"wallpapers": items, "page": page, "total_pages": totalPages, "etag": etag})
}

func (h Handlers) Wallpaper(c *gin.Context) {
	w, ok := h.Store.WallpaperByID(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "wallpaper not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallpaper": w})
}

func (h Handlers) Upload(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "image required"})
		return
	}

	userID := c.GetString("user_id")
	owner, _ := h.Store.UserByID(userID)
	ownerName := userID
	if owner != nil {
		ownerName = owner.Username
	}

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	w := &WallpaperRec{
		ID:        "wp-" + uuid.NewString()[:8],
		Title:     title,
		Tags:      tags,
		ImageURL:  fmt.Sprintf("https://cdn.wallshare.local/u/%s/%s", userID, file.Filename),
		OwnerID:   userID,
		OwnerName: ownerName,
		CreatedAt: time.Now(),
	}
	h.Store.AddWallpaper(w)
	c.JSON(http.StatusOK, gin.H{"wallpaper": w})
}

// --- Social graph ---

func (h Handlers) Follow(c *gin.Context) {
	target := c.Param("id")
	if target == c.GetString("user_id") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}
	if !h.Store.Follow(c.GetString("user_id"), target) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "following"})
}

func (h Handlers) Unfollow(c *gin.Context) {
	h.Store.Unfollow(c.GetString("user_id"), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func userSummaries(users []*User) []gin.H {
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"user_id": u.ID, "username": u.Username, "avatar_url": u.AvatarURL})
	}
	return out
}

func (h Handlers) Followers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": userSummaries(h.Store.Followers(c.Param("id")))})
}

func (h Handlers) Following(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": userSummaries(h.Store.Following(c.Param("id")))})
}

// --- Analytics ---

func (h Handlers) Stats(c *gin.Context) {
	views, likes, followers, uploads, top := h.Store.StatsFor(c.GetString("user_id"))
	if top == nil {
		top = []*WallpaperRec{}
	}
	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"views":          views,
		"likes":          likes,
		"followers":      followers,
		"uploads":        uploads,
		"top_wallpapers": top,
	}})
}
