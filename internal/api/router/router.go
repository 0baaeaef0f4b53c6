package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolportal/backend/config"
	"schoolportal/backend/internal/api/handler"
	"schoolportal/backend/internal/api/middleware"
	"schoolportal/backend/pkg/jwt"
)

// Setup builds the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	{
		// Scheduling mutations are restricted to staff with timetable
		// rights; single-period reads are open to any authenticated user.
		periods := authorized.Group("/periods")
		{
			periods.GET("/:id", h.Period.GetPeriod)
			periods.POST("", middleware.RoleAuth("admin", "scheduler"), h.Period.CreatePeriod)
			periods.PUT("/:id", middleware.RoleAuth("admin", "scheduler"), h.Period.UpdatePeriod)
			periods.DELETE("/:id", middleware.RoleAuth("admin", "scheduler"), h.Period.DeletePeriod)
		}

		timetable := authorized.Group("/timetable")
		{
			timetable.GET("/slots", h.Timetable.ListSlots)
			timetable.GET("/classes/:id/week", h.Timetable.GetWeekGrid)
			timetable.GET("/classes/:id/today", h.Timetable.GetTodaySchedule)
			timetable.GET("/teachers/:id/agenda", h.Timetable.GetTeacherAgenda)
			timetable.GET("/free-teachers", middleware.RoleAuth("admin", "scheduler"), h.Timetable.GetFreeTeachers)
		}

		export := authorized.Group("/export")
		{
			export.GET("/timetable/:classId", h.Export.ExportClassTimetable)
			export.GET("/agenda/:teacherId", h.Export.TeacherAgendaICS)
		}
	}

	return r
}
