package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/serializer"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/utils/secrets"
	"github.com/PritStyling132/NEXUS-sub000/internal/pkg/utils/tokens"
)

// UserIDHeader carries the end user when the web tier calls with a service token.
const UserIDHeader = "X-Nexus-User-Id"

// UserResolver maps an end-user access token to the user it was issued for.
type UserResolver interface {
	Resolve(ctx context.Context, accessToken string) (uuid.UUID, error)
}

type supabaseResolver struct {
	client auth.Client
}

// NewSupabaseResolver returns nil when no Supabase project is configured.
func NewSupabaseResolver(cfg *config.Config) UserResolver {
	if cfg.Auth.SupabaseProjectRef == "" && cfg.Auth.SupabaseURL == "" {
		return nil
	}
	client := auth.New(cfg.Auth.SupabaseProjectRef, cfg.Auth.SupabaseAPIKey)
	if cfg.Auth.SupabaseURL != "" {
		client = client.WithCustomAuthURL(strings.TrimRight(cfg.Auth.SupabaseURL, "/") + "/auth/v1")
	}
	return &supabaseResolver{client: client}
}

func (r *supabaseResolver) Resolve(_ context.Context, accessToken string) (uuid.UUID, error) {
	u, err := r.client.WithToken(accessToken).GetUser()
	if err != nil {
		return uuid.Nil, err
	}
	if u.ID == uuid.Nil {
		return uuid.Nil, errors.New("token has no subject")
	}
	return u.ID, nil
}

// UserAuth authenticates the caller and stores its id under "user_id".
// Service tokens are trusted to name the user in UserIDHeader. Anything else
// is treated as an end-user access token and resolved by resolver.
func UserAuth(cfg *config.Config, resolver UserResolver, log *zap.Logger) gin.HandlerFunc {
	svcToken := tokens.NewServiceToken(cfg.Auth.ServiceTokenPrefix, cfg.Auth.SecretPepper, cfg.Auth.ServiceToken)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, authSpan := otel.Tracer("middleware").Start(ctx, "user_auth",
			trace.WithAttributes(attribute.String("middleware", "user_auth")))

		reject := func(reason string) {
			authSpan.SetAttributes(
				attribute.Bool("authenticated", false),
				attribute.String("reason", reason),
			)
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			reject("missing bearer")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		var (
			userID uuid.UUID
			method string
		)
		if secret, ok := svcToken.Split(raw); ok {
			method = "service_token"
			if !svcToken.Matches(secret) {
				reject("service token mismatch")
				return
			}
			if cfg.Auth.EnableArgon2Verification {
				_, verifySpan := otel.Tracer("middleware").Start(ctx, "user_auth.verify_secret")
				pass, err := secrets.VerifySecret(secret, cfg.Auth.SecretPepper, cfg.Auth.ServiceTokenHashPHC)
				verifySpan.End()
				if err != nil || !pass {
					reject("service token hash mismatch")
					return
				}
			}
			id, err := uuid.Parse(c.GetHeader(UserIDHeader))
			if err != nil || id == uuid.Nil {
				reject("missing user header")
				return
			}
			userID = id
		} else {
			method = "access_token"
			if resolver == nil {
				reject("no resolver")
				return
			}
			id, err := resolver.Resolve(ctx, raw)
			if err != nil {
				log.Debug("access token rejected", zap.Error(err))
				reject("access token rejected")
				return
			}
			userID = id
		}

		// Set user_id attribute on the current span for telemetry filtering
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.String("user_id", userID.String()))
		}

		authSpan.SetAttributes(
			attribute.String("user_id", userID.String()),
			attribute.String("auth_method", method),
			attribute.Bool("authenticated", true),
		)
		authSpan.End()

		c.Set("user_id", userID)
		c.Next()
	}
}
