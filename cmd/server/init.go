package main

import (
	"context"
	"time"

	"order_board/config"
	"order_board/internal/commerce"
	"order_board/internal/database"
	"order_board/internal/docstore"
	"order_board/internal/global"
	"order_board/internal/utility"

	"github.com/sirupsen/logrus"
)

// InitGlobal khởi tạo các biến toàn cục theo thứ tự: validator, config, document store, commerce client
func InitGlobal() {
	initValidator()
	initConfig()
	initDocStore()
	initCommerce()
}

// initValidator đăng ký custom validator (day, no_slash)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// initConfig đọc cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.WithField("store", global.ServerConfig.StoreDriver).Info("Initialized server config")
}

// initDocStore khởi tạo document store theo STORE_DRIVER
func initDocStore() {
	cfg := global.ServerConfig
	dedupeTTL := time.Duration(cfg.ToggleDedupeTTLHours) * time.Hour

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		initDatabase_MongoDB()
		InitRegistry()
		store := docstore.NewMongoStore(mongoCollections(), dedupeTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			logrus.Fatalf("Failed to create indexes: %v", err)
		}
		logrus.Info("Ensured indexes")
		global.DocStore = store

	case config.StoreDriverFirestore:
		initFirebase()
		global.DocStore = docstore.NewFirestoreStore(global.FirestoreClient, dedupeTTL)

	default:
		logrus.Warn("Using in-memory document store, data is lost on restart")
		global.DocStore = docstore.NewMemoryStore(dedupeTTL)
	}
}

// initDatabase_MongoDB kết nối MongoDB
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")
}

// initFirebase khởi tạo Firebase Admin SDK và Firestore client
func initFirebase() {
	cfg := global.ServerConfig
	ctx := context.Background()

	app, err := utility.InitFirebase(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize Firebase: %v", err)
	}
	global.FirebaseApp = app

	global.FirestoreClient, err = utility.NewFirestoreClient(ctx, app)
	if err != nil {
		logrus.Fatalf("Failed to create Firestore client: %v", err)
	}
	logrus.WithField("project", cfg.FirebaseProjectID).Info("Firebase initialized successfully")
}

// initCommerce tạo client tới commerce backend
func initCommerce() {
	cfg := global.ServerConfig
	timeout := time.Duration(cfg.CommerceTimeoutSeconds) * time.Second
	global.CommerceClient = commerce.NewClient(cfg.CommerceAPIBase, timeout)
	logrus.WithField("base", cfg.CommerceAPIBase).Info("Initialized commerce client")
}
