package helpers

import (
	"errors"
	"strings"

	rootservices "github.com/grupoazimut/circulares_mid/services"

	"github.com/beego/beego/v2/server/web/context"
	"github.com/golang-jwt/jwt/v5"
)

const ctxClaimsKey = "__circulares_mid_jwt_claims"

var (
	// ErrNoAuthHeader se devuelve cuando no se encuentra el header Authorization.
	ErrNoAuthHeader = errors.New("authorization header missing")
	// ErrInvalidToken se devuelve cuando el token no es un JWT válido.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrClaimNotFound indica que el claim requerido no está presente.
	ErrClaimNotFound = errors.New("claim not found")
)

// FamiliarClaims son los claims esperados en el token del portal de familias.
type FamiliarClaims struct {
	jwt.RegisteredClaims
	FamiliarId int64    `json:"familiar_id"`
	Educandos  []int64  `json:"educandos,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// Claims obtiene y almacena en caché los claims del JWT presente en Authorization.
// Con JWT_SECRET configurado la firma se verifica (HMAC); sin secreto el token
// se decodifica sin verificar, confiando en el gateway de autenticación.
func Claims(ctx *context.Context) (*FamiliarClaims, error) {
	if cached := ctx.Input.GetData(ctxClaimsKey); cached != nil {
		if claims, ok := cached.(*FamiliarClaims); ok {
			return claims, nil
		}
	}

	token, err := extractBearer(ctx)
	if err != nil {
		return nil, err
	}

	claims := &FamiliarClaims{}
	secret := rootservices.GetConfig().JWTSecret
	if secret != "" {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(token, claims); err != nil {
			return nil, ErrInvalidToken
		}
	}

	ctx.Input.SetData(ctxClaimsKey, claims)
	return claims, nil
}

// GetFamiliarID retorna el claim familiar_id.
func GetFamiliarID(ctx *context.Context) (int64, error) {
	claims, err := Claims(ctx)
	if err != nil {
		return 0, err
	}
	if claims.FamiliarId <= 0 {
		return 0, ErrClaimNotFound
	}
	return claims.FamiliarId, nil
}

// PuedeVerEducando valida que el token autorice al familiar sobre el educando.
// Un token sin lista de educandos no restringe (compatibilidad con tokens
// emitidos antes de incluir el claim).
func PuedeVerEducando(ctx *context.Context, educandoID int64) bool {
	claims, err := Claims(ctx)
	if err != nil {
		return false
	}
	if len(claims.Educandos) == 0 {
		return true
	}
	for _, id := range claims.Educandos {
		if id == educandoID {
			return true
		}
	}
	return false
}

// RequireRole valida que el token contenga al menos uno de los roles requeridos.
func RequireRole(ctx *context.Context, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	claims, err := Claims(ctx)
	if err != nil {
		return err
	}
	if len(claims.Roles) == 0 {
		return ErrClaimNotFound
	}

	roleSet := make(map[string]struct{}, len(claims.Roles))
	for _, r := range claims.Roles {
		roleSet[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	for _, required := range roles {
		if _, ok := roleSet[strings.ToLower(strings.TrimSpace(required))]; ok {
			return nil
		}
	}
	return errors.New("insufficient roles")
}

func extractBearer(ctx *context.Context) (string, error) {
	header := strings.TrimSpace(ctx.Input.Header("Authorization"))
	if header == "" {
		return "", ErrNoAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
