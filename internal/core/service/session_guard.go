package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

// SessionGuard derives the session from the stored credential on every call.
// Nothing is cached, and no method returns an error: malformed tokens, decode
// failures and store failures all read as "not authenticated".
type SessionGuard struct {
	store  ports.CredentialStore
	parser *jwt.Parser
	now    func() time.Time
	log    zerolog.Logger
}

// NewSessionGuard returns a guard over the given credential slot.
func NewSessionGuard(store ports.CredentialStore, log zerolog.Logger) *SessionGuard {
	return &SessionGuard{
		store:  store,
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
		now:    time.Now,
		log:    log.With().Str("component", "session_guard").Logger(),
	}
}

// WithClock overrides the wall clock used for expiry checks.
func (g *SessionGuard) WithClock(now func() time.Time) *SessionGuard {
	g.now = now
	return g
}

// SetCredential stores raw if it has the header.payload.signature shape.
// Anything else is dropped and the previous credential is kept.
func (g *SessionGuard) SetCredential(ctx context.Context, raw string) {
	if !wellFormed(raw) {
		g.log.Warn().Int("segments", strings.Count(raw, ".")+1).Msg("malformed credential ignored")
		return
	}
	if err := g.store.Save(ctx, raw); err != nil {
		g.log.Warn().Err(err).Msg("credential save failed")
	}
}

// Credential returns the raw stored credential.
func (g *SessionGuard) Credential(ctx context.Context) (string, bool) {
	raw, err := g.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			g.log.Warn().Err(err).Msg("credential load failed")
		}
		return "", false
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

// ClearCredential empties the slot. Calling it on an empty slot is a no-op.
func (g *SessionGuard) ClearCredential(ctx context.Context) {
	if err := g.store.Delete(ctx); err != nil {
		g.log.Warn().Err(err).Msg("credential delete failed")
	}
}

// IsExpired is true when there is no credential, when its payload cannot be
// decoded, or when its expiry is not in the future.
func (g *SessionGuard) IsExpired(ctx context.Context) bool {
	claims, ok := g.CurrentClaims(ctx)
	if !ok {
		return true
	}
	return g.expired(claims)
}

// IsActive is true when a credential is present and not expired.
func (g *SessionGuard) IsActive(ctx context.Context) bool {
	raw, ok := g.Credential(ctx)
	if !ok {
		return false
	}
	claims, ok := g.decode(raw)
	if !ok {
		return false
	}
	return !g.expired(claims)
}

// CurrentClaims decodes the stored credential's payload.
func (g *SessionGuard) CurrentClaims(ctx context.Context) (domain.Claims, bool) {
	raw, ok := g.Credential(ctx)
	if !ok {
		return domain.Claims{}, false
	}
	return g.decode(raw)
}

// HasRole reports whether the session's role display name is one of allowed.
// Unknown role codes and missing sessions never match.
func (g *SessionGuard) HasRole(ctx context.Context, allowed ...string) bool {
	claims, ok := g.CurrentClaims(ctx)
	if !ok {
		return false
	}
	name := claims.RoleName()
	if name == "" {
		return false
	}
	return slices.Contains(allowed, name)
}

// expired holds once the wall clock has reached expires_at, so a session is
// active only while expires_at lies strictly in the future.
func (g *SessionGuard) expired(c domain.Claims) bool {
	return !time.Unix(c.ExpiresAt, 0).After(g.now())
}

func (g *SessionGuard) decode(raw string) (domain.Claims, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return domain.Claims{}, false
	}
	seg, err := g.parser.DecodeSegment(parts[1])
	if err != nil {
		g.log.Debug().Err(err).Msg("credential payload is not base64url")
		return domain.Claims{}, false
	}
	seg = bytes.TrimSpace(seg)
	if !bytes.HasPrefix(seg, []byte("{")) {
		return domain.Claims{}, false
	}
	var p tokenPayload
	if err := json.Unmarshal(seg, &p); err != nil {
		g.log.Debug().Err(err).Msg("credential payload is not valid json")
		return domain.Claims{}, false
	}
	claims, err := p.claims()
	if err != nil {
		g.log.Debug().Err(err).Msg("credential payload has invalid fields")
		return domain.Claims{}, false
	}
	return claims, true
}

func wellFormed(raw string) bool {
	return len(strings.Split(raw, ".")) == 3
}

// tokenPayload is the backend's claim layout. Numeric fields may arrive as
// JSON numbers or strings.
type tokenPayload struct {
	ID     scalar `json:"id"`
	Role   scalar `json:"rol"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Expiry scalar `json:"exp"`
}

func (p tokenPayload) claims() (domain.Claims, error) {
	c := domain.Claims{
		RoleCode:    string(p.Role),
		DisplayName: p.Name,
		Email:       p.Email,
	}
	if p.ID != "" {
		id, err := strconv.ParseInt(string(p.ID), 10, 64)
		if err != nil {
			return domain.Claims{}, err
		}
		c.SubjectID = id
	}
	if p.Expiry != "" {
		exp, err := strconv.ParseFloat(string(p.Expiry), 64)
		if err != nil {
			return domain.Claims{}, err
		}
		c.ExpiresAt = int64(math.Floor(exp))
	}
	return c, nil
}

type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = scalar(n.String())
	return nil
}
