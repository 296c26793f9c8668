// Package agenttoken decodes agent identity tokens minted by the external
// auth system. The chat server performs no authentication of its own; it only
// extracts who the already-authenticated agent is.
package agenttoken

import (
	"fmt"

	"github.com/golang-jwt/jwt"
)

type Identity struct {
	ID   string
	Name string
}

type Parser struct {
	secret []byte
}

// NewParser returns nil when no secret is configured, in which case agent
// identity falls back to the handshake query parameters.
func NewParser(secret string) *Parser {
	if secret == "" {
		return nil
	}
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (Identity, error) {
	if len(tokenString) == 0 {
		return Identity{}, fmt.Errorf("token string is empty")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("claims of unauthorized type")
	}

	id, _ := claims["sub"].(string)
	if id == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	name, _ := claims["name"].(string)

	return Identity{ID: id, Name: name}, nil
}
