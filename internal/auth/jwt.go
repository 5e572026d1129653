package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret string

func InitJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT secret is not set")
	}
	jwtSecret = secret
	return nil
}

func GenerateJWT(userID uint, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(time.Hour * 168).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GeneratePasswordResetToken issues a short-lived token usable only by
// ResetPassword. The type claim keeps it from doubling as a login token.
func GeneratePasswordResetToken(userID uint, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"type":    "password_reset",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// VerifyPasswordResetToken validates a reset token and returns the user it
// was issued for. Login tokens are rejected by the type check.
func VerifyPasswordResetToken(tokenString string) (uint, string, error) {
	token, err := VerifyJWT(tokenString)

	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, "", fmt.Errorf("Invalid token claims")
	}

	if tokenType, _ := claims["type"].(string); tokenType != "password_reset" {
		return 0, "", fmt.Errorf("Invalid token type")
	}

	userIDFloat, ok := claims["user_id"].(float64)

	if !ok {
		return 0, "", fmt.Errorf("Invalid user ID in token claims")
	}

	email, ok := claims["email"].(string)

	if !ok {
		return 0, "", fmt.Errorf("Invalid email in token claims")
	}

	return uint(userIDFloat), email, nil
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("Invalid or expired token")
	}

	return token, nil
}
