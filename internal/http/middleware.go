package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/service"
)

const identityKey = "identity"

var (
	roleProducer = domain.RoleProducer
	roleConsumer = domain.RoleConsumer
)

// requireAuth проверяет bearer-токен один раз на запрос и кладёт
// типизированный Identity в контекст. Без ролей — любой
// аутентифицированный; админ проходит любую ролевую проверку.
func (s *Server) requireAuth(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrTokenRequired.Error()})
			return
		}
		ident, err := s.tokens.Verify(bearerToken(header))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrTokenInvalid.Error()})
			return
		}
		if len(roles) > 0 && !ident.IsAdmin() {
			allowed := false
			for _, r := range roles {
				if ident.Role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
				return
			}
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

func identityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(auth.Identity)
	return ident
}
