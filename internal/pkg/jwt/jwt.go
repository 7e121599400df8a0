package jwt

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claim keys carried by access tokens.
const (
	ClaimUserID     = "user_id"
	ClaimRole       = "role"
	ClaimEmployeeID = "employee_id"
	ClaimCompanyID  = "company_id"
	ClaimGradeRank  = "grade_rank"
	ClaimType       = "type"

	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(actor scope.Actor) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(actor scope.Actor) (token string, expiresAt int64, err error) {
	if err := actor.Validate(); err != nil {
		return "", 0, err
	}

	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		ClaimUserID:     actor.UserID,
		ClaimRole:       string(actor.Role),
		ClaimEmployeeID: returnValueOrNil(actor.EmployeeID),
		ClaimCompanyID:  returnValueOrNil(actor.CompanyID),
		ClaimType:       TokenTypeAccess,
		"exp":           expiresAt,
	}
	if actor.GradeRank != nil {
		claims[ClaimGradeRank] = *actor.GradeRank
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ActorFromClaims rebuilds the caller identity from verified access token
// claims.
func ActorFromClaims(claims map[string]interface{}) (scope.Actor, error) {
	if tokenType, _ := claims[ClaimType].(string); tokenType != TokenTypeAccess {
		return scope.Actor{}, fmt.Errorf("unexpected token type %q", claims[ClaimType])
	}

	role, _ := claims[ClaimRole].(string)
	actor := scope.Actor{Role: user.Role(role)}
	actor.UserID, _ = claims[ClaimUserID].(string)

	if v, ok := claims[ClaimEmployeeID].(string); ok && v != "" {
		actor.EmployeeID = &v
	}
	if v, ok := claims[ClaimCompanyID].(string); ok && v != "" {
		actor.CompanyID = &v
	}

	// JSON numbers decode as float64
	switch v := claims[ClaimGradeRank].(type) {
	case float64:
		rank := int(v)
		actor.GradeRank = &rank
	case int:
		rank := v
		actor.GradeRank = &rank
	case int64:
		rank := int(v)
		actor.GradeRank = &rank
	}

	if err := actor.Validate(); err != nil {
		return scope.Actor{}, err
	}
	return actor, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
