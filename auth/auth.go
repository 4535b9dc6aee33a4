package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-restful/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
)

// mySigningKey should be a strong, randomly generated secret key,
// and it should be stored securely (e.g., in environment variables,
// a key management service, etc.), NOT hardcoded in your source code.
var mySigningKey = []byte("mySigningKey")

var (
	tokenIssuer = "recipe-api"
	tokenTTL    = 24 * time.Hour
)

// UserIDAttribute is the request attribute AuthFilter stores the caller's id under.
const UserIDAttribute = "user_id"

// SetSigningKey allows setting the key from outside the package.
func SetSigningKey(key []byte) {
	if len(key) > 0 {
		mySigningKey = key
	}
}

// SetTokenOptions sets the issuer and lifetime of newly generated tokens.
// Zero values keep the current settings.
func SetTokenOptions(issuer string, ttl time.Duration) {
	if issuer != "" {
		tokenIssuer = issuer
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// CustomClaims represents the custom claims you want to include in your JWT.
type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   "user-auth",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(mySigningKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseAndValidateToken : used for gRPC and filters
func ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return mySigningKey, nil
	})

	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// TokenFromHeader extracts the credential from an Authorization header value.
// Both "Bearer <token>" and "Token <token>" are accepted.
func TokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authentication credentials were not provided")
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 {
		return "", errors.New("invalid authorization header format")
	}
	switch strings.ToLower(parts[0]) {
	case "bearer", "token":
		return parts[1], nil
	default:
		return "", errors.New("invalid authorization header format")
	}
}

// UserLookup loads the user a token was issued to.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthFilter creates a go-restful FilterFunction for JWT authentication.
// Tokens of users that no longer exist or were deactivated are refused.
func AuthFilter(users UserLookup) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		tokenString, err := TokenFromHeader(req.HeaderParameter("Authorization"))
		if err != nil {
			writeUnauthorized(resp, err.Error())
			return
		}

		claims, err := ParseAndValidateToken(tokenString)
		if err != nil {
			writeUnauthorized(resp, err.Error())
			return
		}

		user, err := users.FindByID(req.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			writeUnauthorized(resp, "user inactive or deleted")
			return
		}

		// Store user information in request attributes for use by subsequent processing functions
		req.SetAttribute(UserIDAttribute, user.ID)
		chain.ProcessFilter(req, resp)
	}
}

func writeUnauthorized(resp *restful.Response, message string) {
	resp.AddHeader("WWW-Authenticate", `Bearer realm="api"`)
	_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": message}, restful.MIME_JSON)
}

// RequestingUserID extracts the user ID set by the AuthFilter.
func RequestingUserID(req *restful.Request) (uint, bool) {
	userIDAttr := req.Attribute(UserIDAttribute)
	if userIDAttr == nil {
		return 0, false
	}
	userID, ok := userIDAttr.(uint)
	return userID, ok
}
