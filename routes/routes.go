package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"agendamento-backend/controllers"
	"agendamento-backend/middleware"
	"agendamento-backend/services"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires the controllers into the URL map of the service.
func SetupRouter(
	ac *controllers.AppointmentController,
	cc *controllers.CancelController,
	dc *controllers.DashboardController,
	auth *controllers.AuthController,
	sessions *services.SessionService,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", ac.Home)
	r.GET("/agendar/", ac.BookingForm)
	r.POST("/agendar/", ac.Book)
	r.GET("/horarios/:data/", ac.AvailableTimes)

	r.GET("/login/", auth.LoginForm)
	r.POST("/login/", auth.Login)
	r.GET("/logout/", auth.Logout)

	// Public cancellation by token; the handler routes all-digit parameters
	// to the staff cancel-by-id flow.
	r.GET("/cancelar/:token/", cc.Show)
	r.POST("/cancelar/:token/", cc.Cancel)

	staff := r.Group("", middleware.RequireSession(sessions))
	{
		staff.GET("/dashboard/", dc.Index)
		staff.POST("/cancelar-dashboard/:id/", cc.CancelByID)
	}

	return r
}
