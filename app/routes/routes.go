package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskbank/app/controllers"
	"taskbank/app/logging"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController, logger *zap.Logger) {
	router.Use(logging.Middleware(logger))

	router.HandleFunc("/api/tasks", taskController.GetBoard).Methods(http.MethodGet)
	router.HandleFunc("/move", taskController.MoveTask).Methods(http.MethodPost)

	router.HandleFunc("/tasks", taskController.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", taskController.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", taskController.GetTaskByID).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}", taskController.UpdateTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{taskID}", taskController.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{taskID}/done", taskController.MarkDone).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/split", taskController.SplitTask).Methods(http.MethodPost)
}
