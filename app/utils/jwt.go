package utils

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
)

const SessionTTL = 30 * 24 * time.Hour

var ErrInvalidSession = errors.New("invalid session token")

type Token struct {
	Value     string
	ExpiresAt time.Time
}

// JWT signs and validates athlete session tokens.
type JWT struct {
	Key []byte
}

func (j JWT) GenerateForAthlete(athleteID int64, now time.Time) (*Token, error) {
	expTime := now.Add(SessionTTL)
	claims := &jwt.StandardClaims{
		Subject:   strconv.FormatInt(athleteID, 10),
		IssuedAt:  now.Unix(),
		ExpiresAt: expTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Key)
	if err != nil {
		return nil, err
	}
	return &Token{Value: tokenString, ExpiresAt: expTime}, nil
}

// AthleteIDFromToken validates the signature and checks expiry against now,
// the same clock the token was generated with.
func (j JWT) AthleteIDFromToken(tokenString string, now time.Time) (int64, error) {
	claims := &jwt.StandardClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	tkn, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return j.Key, nil
	})
	if err != nil {
		slog.Debug("session token rejected", "err", err)
		return 0, ErrInvalidSession
	}
	if !tkn.Valid || !claims.VerifyExpiresAt(now.Unix(), true) {
		return 0, ErrInvalidSession
	}

	athleteID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		slog.Error("cannot convert session subject to athlete id", "subject", claims.Subject)
		return 0, ErrInvalidSession
	}
	return athleteID, nil
}
