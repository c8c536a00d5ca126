package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"notestash/config/cache"
	"notestash/config/database"
	"notestash/config/objectstore"
	"notestash/internal/storage"
	"notestash/pkg/logger"
	"notestash/router"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	logger.Init()
	defer logger.Log.Sync()

	db := database.Connect()
	defer db.Close()
	database.EnsureSchema(db)

	minioClient, bucket := objectstore.Connect()
	store := storage.NewMinioStore(minioClient, bucket)

	// Connected at startup, unused by the request path.
	if rdb := cache.Connect(); rdb != nil {
		defer rdb.Close()
	}

	handler := router.Setup(db, store)

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	logger.Sugar.Infof("Backend listening on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
