// Package sectoken generates the per-request security token the backend
// expects in the X-TS-Token header. The token is an opaque base64(JSON)
// blob mixing a static client fingerprint with per-call randomness and a
// generation timestamp. It is built fresh for every request and never
// persisted or reused.
package sectoken

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Header is the fixed header name the token travels under.
const Header = "X-TS-Token"

// Fingerprint describes the client environment. It is captured once at
// generator construction and embedded into every token.
type Fingerprint struct {
	UserAgent  string `json:"ua"`
	Locale     string `json:"locale"`
	Platform   string `json:"platform"`
	Resolution string `json:"resolution"`

	// TZOffsetMinutes is the local offset from UTC in minutes,
	// matching what a browser reports.
	TZOffsetMinutes int `json:"tz_offset"`
}

// payload is the serialized token body. Nonce and RequestID are fresh per
// call, so two tokens are never byte-identical even for identical inputs.
type payload struct {
	Fingerprint
	Nonce       string `json:"nonce"`
	RequestID   string `json:"request_id"`
	GeneratedAt int64  `json:"generated_at"`
}

// Generator builds security tokens for a fixed fingerprint.
type Generator struct {
	fp  Fingerprint
	now func() time.Time
}

// New returns a Generator for the given fingerprint.
func New(fp Fingerprint) *Generator {
	return &Generator{fp: fp, now: time.Now}
}

// NewWithClock is New with an injected clock for tests.
func NewWithClock(fp Fingerprint, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{fp: fp, now: now}
}

// Token returns a freshly generated token string.
func (g *Generator) Token() string {
	p := payload{
		Fingerprint: g.fp,
		Nonce:       uuid.NewString(),
		RequestID:   uuid.NewString(),
		GeneratedAt: g.now().UnixMilli(),
	}
	raw, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(raw)
}

// Decoded is the parsed form of a token, used by the stub backend to
// validate incoming requests.
type Decoded struct {
	Fingerprint
	Nonce       string `json:"nonce"`
	RequestID   string `json:"request_id"`
	GeneratedAt int64  `json:"generated_at"`
}

// Decode parses a token string back into its fields.
func Decode(tok string) (Decoded, error) {
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return Decoded{}, err
	}
	var d Decoded
	if err := json.Unmarshal(raw, &d); err != nil {
		return Decoded{}, err
	}
	return d, nil
}

// Age reports how old the token is relative to now.
func (d Decoded) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(d.GeneratedAt))
}
