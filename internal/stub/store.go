package stub

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User is a registered account in the stub's world.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// WallpaperRec is a stored wallpaper.
type WallpaperRec struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	ImageURL  string    `json:"image_url"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the stub's in-memory world: users, sessions, wallpapers and the
// follow graph. Everything is lost on restart, which is the point of a stub.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*User
	byEmail     map[string]string
	sessions    map[string]string // session token -> user id
	signupOTP   map[string]string // email -> otp
	signupPass  map[string]string // email -> password pending verification
	resetOTP    map[string]string
	wallpapers  []*WallpaperRec
	follows     map[string]map[string]bool // follower id -> followed ids
	feedVersion int
}

func NewStore() *Store {
	s := &Store{
		users:       make(map[string]*User),
		byEmail:     make(map[string]string),
		sessions:    make(map[string]string),
		signupOTP:   make(map[string]string),
		signupPass:  make(map[string]string),
		resetOTP:    make(map[string]string),
		follows:     make(map[string]map[string]bool),
		feedVersion: 1,
	}
	s.seed()
	return s
}

// seed plants a demo account and a few wallpapers so the feed is never empty.
func (s *Store) seed() {
	demo := &User{
		ID:       "user-demo",
		Email:    "demo@wallshare.local",
		Password: "wallshare",
		Username: "demo",
		Bio:      "Seeded demo account",
	}
	s.users[demo.ID] = demo
	s.byEmail[demo.Email] = demo.ID

	for i, title := range []string{"Dunes at Dawn", "Neon Alley", "Quiet Fjord"} {
		s.wallpapers = append(s.wallpapers, &WallpaperRec{
			ID:        fmt.Sprintf("wp-seed-%d", i+1),
			Title:     title,
			Tags:      []string{"seed"},
			ImageURL:  fmt.Sprintf("https://cdn.wallshare.local/seed/%d.jpg", i+1),
			OwnerID:   demo.ID,
			OwnerName: demo.Username,
			Likes:     (i + 1) * 7,
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
}

func (s *Store) CreateUser(email, password string) (otp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp = newOTP()
	// The account itself is created at verification time.
	s.signupOTP[email] = otp
	s.signupPass[email] = password
	return otp
}

func (s *Store) VerifySignup(email, otp string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.signupOTP[email]
	if !ok || want != otp {
		return nil, false
	}
	password := s.signupPass[email]
	delete(s.signupOTP, email)
	delete(s.signupPass, email)

	u := &User{
		ID:       "user-" + uuid.NewString()[:8],
		Email:    email,
		Password: password,
		Username: "",
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u, true
}

func (s *Store) Authenticate(email, password string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, false
	}
	u := s.users[id]
	if u.Password != password {
		return nil, false
	}
	return u, true
}

func (s *Store) UserByID(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) OpenSession(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := uuid.NewString()
	s.sessions[tok] = userID
	return tok
}

func (s *Store) SessionUser(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	return id, ok
}

func (s *Store) CloseSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *Store) RequestReset(email string) (otp string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; !ok {
		return "", false
	}
	otp = newOTP()
	s.resetOTP[email] = otp
	return otp, true
}

func (s *Store) ResetPassword(email, otp, newPassword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.resetOTP[email]
	if !ok || want != otp {
		return false
	}
	delete(s.resetOTP, email)
	if id, ok := s.byEmail[email]; ok {
		s.users[id].Password = newPassword
	}
	return true
}

func (s *Store) UpdateProfile(userID, username, bio, avatarURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false
	}
	if username != "" {
		u.Username = username
	}
	u.Bio = bio
	u.AvatarURL = avatarURL
	return true
}

func (s *Store) AddWallpaper(w *WallpaperRec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallpapers = append(s.wallpapers, w)
	s.feedVersion++
}

func (s *Store) WallpaperByID(id string) (*WallpaperRec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallpapers {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

// FeedPage returns the page (newest first), the total page count and the
// feed version the caller can turn into an ETag.
func (s *Store) FeedPage(page, perPage int) ([]*WallpaperRec, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := append([]*WallpaperRec(nil), s.wallpapers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	total := (len(sorted) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}
	start := (page - 1) * perPage
	if start >= len(sorted) {
		return nil, total, s.feedVersion
	}
	end := start + perPage
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], total, s.feedVersion
}

func (s *Store) Follow(follower, followed string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[followed]; !ok {
		return false
	}
	if s.follows[follower] == nil {
		s.follows[follower] = make(map[string]bool)
	}
	s.follows[follower][followed] = true
	return true
}

func (s *Store) Unfollow(follower, followed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows[follower], followed)
}

func (s *Store) Followers(userID string) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for follower, set := range s.follows {
		if set[userID] {
			if u, ok := s.users[follower]; ok {
				out = append(out, u)
			}
		}
	}
	return out
}

func (s *Store) Following(userID string) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for followed := range s.follows[userID] {
		if u, ok := s.users[followed]; ok {
			out = append(out, u)
		}
	}
	return out
}

// StatsFor aggregates the dashboard numbers for a user.
func (s *Store) StatsFor(userID string) (views, likes, followers, uploads int, top []*WallpaperRec) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallpapers {
		if w.OwnerID != userID {
			continue
		}
		uploads++
		likes += w.Likes
		views += w.Likes * 13 // stub-grade view model
		top = append(top, w)
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Likes > top[j].Likes })
	if len(top) > 3 {
		top = top[:3]
	}
	for _, set := range s.follows {
		if set[userID] {
			followers++
		}
	}
	return views, likes, followers, uploads, top
}

func newOTP() string {
	return uuid.NewString()[:6]
}
