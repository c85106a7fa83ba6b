package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ebake/internal/config"
	"ebake/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string(uuid)
	CtxUserRoleKey = "user_role" // model.Role
	CtxActorKey    = "actor"     // model.Actor
)

// bearerAuth用のJWT検証ミドルウェア。
// 発行は外部の認証サービス。ここでは sub（uuid）と role だけ取り出す。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return unauthorized(c)
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return unauthorized(c)
			}

			//JWTをパースして検証する（expもここで見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return unauthorized(c)
			}

			//claimsを取り出す
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}

			//user_idを取り出す
			userID, err := parseUserID(claims["sub"])
			if err != nil {
				return unauthorized(c)
			}

			//roleを取り出す（user/admin）
			rawRole, _ := claims["role"].(string)
			role, ok := model.ParseRole(strings.ToLower(rawRole))
			if !ok {
				return unauthorized(c)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxActorKey, model.Actor{UserID: userID, Role: role})

			return next(c)
		}
	}
}

// AuthJWTが入れた操作主体を取り出す
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(CtxActorKey).(model.Actor)
	if !ok || a.UserID == "" {
		return model.Actor{}, false
	}
	return a, true
}

// subはuuid文字列
func parseUserID(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid sub")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   errorBody `json:"error"`
}

func errorJSON(kind string, msg string) errorResponse {
	return errorResponse{
		Success: false,
		Message: msg,
		Error:   errorBody{Kind: kind, Message: msg},
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("UNAUTHORIZED", "access token required"))
}
