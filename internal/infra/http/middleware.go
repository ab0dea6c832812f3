package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
	ctxActor     = "actor"

	headerRequestID = "X-Request-ID"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog(log *slog.Logger, rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if rec != nil {
			rec.Request(route, status)
		}
		log.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(started),
			"request_id", c.GetString(ctxRequestID),
			"user_id", c.GetInt64(ctxUserID),
		)
	}
}

// authenticate проверяет Bearer JWT (HS256) и кладёт user id в контекст.
// Токены выдаёт внешний сервис; здесь только проверка.
func authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing bearer token", Code: "unauthorized"})
			return
		}
		userID, err := parseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid or expired token", Code: "unauthorized"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func parseToken(raw string, secret []byte) (int64, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("unexpected claims")
	}
	var id int64
	switch v := claims["user_id"].(type) {
	case float64:
		id = int64(v)
	case string:
		id, err = strconv.ParseInt(v, 10, 64)
	default:
		sub, _ := claims.GetSubject()
		id, err = strconv.ParseInt(sub, 10, 64)
	}
	if err != nil || id <= 0 {
		return 0, errors.New("token carries no user id")
	}
	return id, nil
}

// loadActor перечитывает членства пользователя на каждый запрос.
func loadActor(actors ActorResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := actors.Actor(c.Request.Context(), c.GetInt64(ctxUserID))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.Set(ctxActor, a)
		c.Next()
	}
}

func actorOf(c *gin.Context) access.Actor {
	a, _ := c.Get(ctxActor)
	actor, _ := a.(access.Actor)
	return actor
}
