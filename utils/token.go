package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const deviceIssuer = "restaurant-pos"

// DeviceClaims identify the browser a cart and table scope belong to. They
// carry no user identity.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// NewDeviceToken mints a fresh device id and its signed cookie value.
func NewDeviceToken(secret []byte, ttl time.Duration) (string, string, error) {
	deviceID := uuid.NewString()
	now := time.Now()
	claims := &DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    deviceIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", err
	}
	return deviceID, signed, nil
}

func ParseDeviceToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(deviceIssuer))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired device token")
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || claims.DeviceID == "" {
		return "", errors.New("invalid device token claims")
	}
	if _, err := uuid.Parse(claims.DeviceID); err != nil {
		return "", errors.New("invalid device id")
	}
	return claims.DeviceID, nil
}
