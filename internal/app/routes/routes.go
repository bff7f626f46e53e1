package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/studentrecords/backend/internal/app/controllers"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	userController *controllers.UserController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/profile", authController.GetProfile)

		// Student records are readable by any signed-in user
		students := authenticated.Group("/students")
		{
			students.GET("", studentController.GetAll)
			students.GET("/:id", studentController.GetByID)

			// Mutations require the Admin role
			studentsAdmin := students.Group("")
			studentsAdmin.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
			{
				studentsAdmin.POST("", studentController.Create)
				studentsAdmin.PUT("/:id", studentController.Update)
				studentsAdmin.DELETE("/:id", studentController.Delete)
			}
		}

		// User management is Admin-only
		users := authenticated.Group("/users")
		users.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
		{
			users.GET("", userController.GetAll)
			users.GET("/:id", userController.GetDetails)
			users.PUT("/:id", userController.UpdateStudentUser)
			users.DELETE("/:id", userController.DeleteStudentUser)
		}
	}
}
