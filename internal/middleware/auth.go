// Package middleware - авторизация админа и сквозные HTTP middleware.
// Сама подсистема аутентификации внешняя: здесь потребляются только её
// ответы "кто это" и "админ ли он".
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

// Identity личность аутентифицированного вызывающего
type Identity struct {
	AdminID int64
	Admin   bool
}

// Authorizer проверяет возможности вызывающего по запросу
type Authorizer interface {
	// Identity возвращает личность вызывающего и признак того, что
	// запрос вообще аутентифицирован
	Identity(r *http.Request) (*Identity, bool)
}

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext извлекает личность из контекста запроса
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// WithIdentity кладёт личность в контекст (для тестов и middleware)
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// --- Cookie-сессии ---

// Ключи значений сессии
const (
	sessionAuthenticated = "is_authenticated"
	sessionAdminID       = "admin_id"
	sessionIsAdmin       = "is_admin"
)

// SessionAuthorizer извлекает личность из cookie-сессии
type SessionAuthorizer struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionAuthorizer создаёт авторизатор поверх cookie store
func NewSessionAuthorizer(secret, cookieName string, maxAge int, secure bool) *SessionAuthorizer {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionAuthorizer{store: store, name: cookieName}
}

// Identity возвращает личность из сессии
func (a *SessionAuthorizer) Identity(r *http.Request) (*Identity, bool) {
	session, err := a.store.Get(r, a.name)
	if err != nil {
		return nil, false
	}

	authenticated, _ := session.Values[sessionAuthenticated].(bool)
	if !authenticated {
		return nil, false
	}

	adminID, _ := session.Values[sessionAdminID].(int64)
	isAdmin, _ := session.Values[sessionIsAdmin].(bool)

	return &Identity{AdminID: adminID, Admin: isAdmin}, true
}

// Store возвращает cookie store (для тестов и внешнего логина)
func (a *SessionAuthorizer) Store() *sessions.CookieStore {
	return a.store
}

// CookieName возвращает имя сессионной cookie
func (a *SessionAuthorizer) CookieName() string {
	return a.name
}

// --- Bearer-токены ---

// AdminClaims claims токена админки
type AdminClaims struct {
	AdminID int64  `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthorizer извлекает личность из bearer-токена
type JWTAuthorizer struct {
	secret []byte
	issuer string
}

// NewJWTAuthorizer создаёт JWT авторизатор
func NewJWTAuthorizer(secret, issuer string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret), issuer: issuer}
}

// Identity возвращает личность из заголовка Authorization
func (a *JWTAuthorizer) Identity(r *http.Request) (*Identity, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	claims, err := a.validate(token)
	if err != nil {
		return nil, false
	}

	return &Identity{
		AdminID: claims.AdminID,
		Admin:   claims.Role == "admin",
	}, true
}

func (a *JWTAuthorizer) validate(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if a.issuer != "" && claims.Issuer != a.issuer {
		return nil, fmt.Errorf("unexpected issuer")
	}

	return claims, nil
}

// IssueToken выпускает токен админа (для тестов и служебных скриптов)
func (a *JWTAuthorizer) IssueToken(adminID int64, role string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   fmt.Sprintf("%d", adminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ChainAuthorizer пробует авторизаторы по порядку, первый успешный выигрывает
type ChainAuthorizer []Authorizer

// Identity возвращает личность от первого сработавшего авторизатора
func (c ChainAuthorizer) Identity(r *http.Request) (*Identity, bool) {
	for _, a := range c {
		if identity, ok := a.Identity(r); ok {
			return identity, ok
		}
	}
	return nil, false
}
