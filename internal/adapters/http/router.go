package http

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/callrelay/internal/adapters/signal"
	"github.com/dkeye/callrelay/internal/app/orch"
	"github.com/dkeye/callrelay/internal/config"
	"github.com/dkeye/callrelay/internal/core"
	"github.com/dkeye/callrelay/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a long lived device cookie.
// The signaling adapter logs it next to the connection id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// Deps are the pieces the router serves. History may be nil when no
// database is configured.
type Deps struct {
	Orch       *orch.Orchestrator
	Signal     *signal.SignalWSController
	ICEServers []webrtc.ICEServer
	History    core.HistoryReader
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CallRelaySessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{
			"status":      "ok",
			"connections": d.Orch.Registry.Count(),
			"calls":       d.Orch.Sessions.Len(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("device", c.GetString("client_token")).Msg("ws signal endpoint hit")
		d.Signal.HandleSignal(ctx, c)
	})

	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"iceServers": d.ICEServers})
	})

	api.GET("/calls/:bookingId", func(c *gin.Context) {
		sess, ok := d.Orch.Snapshot(domain.BookingID(c.Param("bookingId")))
		if !ok {
			c.JSON(nethttp.StatusNotFound, gin.H{"code": domain.CodeSessionNotFound, "error": "no live call"})
			return
		}
		c.JSON(nethttp.StatusOK, sess)
	})

	api.GET("/presence/:identity", func(c *gin.Context) {
		id, err := domain.ParseIdentity(c.Param("identity"))
		if err != nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"code": domain.CodeBadPayload, "error": err.Error()})
			return
		}
		c.JSON(nethttp.StatusOK, d.Orch.Registry.Presence(id))
	})

	api.GET("/bookings/:bookingId/calls", func(c *gin.Context) {
		if d.History == nil {
			c.JSON(nethttp.StatusNotImplemented, gin.H{"error": "call history is not configured"})
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		recs, err := d.History.ListByBooking(c.Request.Context(), domain.BookingID(c.Param("bookingId")), limit)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("booking_id", c.Param("bookingId")).Msg("list call history")
			c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{"calls": recs})
	})

	log.Info().Str("module", "adapters.http").Int("ice_servers", len(d.ICEServers)).Msg("router setup")
	return r
}
