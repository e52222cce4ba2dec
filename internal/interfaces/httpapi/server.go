package httpapi

import (
	"net/http"

	"github.com/riskibarqy/competition-engine/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	AdminToken         string
	AdminLimiter       *ClientRateLimiter
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled)
	registerPublicCompetitionRoutes(mux, handler)
	registerAdminCompetitionRoutes(mux, handler, cfg.AdminToken, cfg.AdminLimiter)
	registerIntegrityRoutes(mux, handler, cfg.AdminToken, cfg.AdminLimiter)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}
