package session

import "github.com/golang-jwt/jwt/v5"

// Subject returns a display label for a JWT credential: its email claim, or
// its subject. The signature is not checked, so the result must never be
// used for authorization. Opaque credentials yield "".
func Subject(credential string) string {
	if credential == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	sub, _ := claims.GetSubject()
	return sub
}
