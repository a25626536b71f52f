package main

import (
	"order_board/config"
	"order_board/internal/docstore"
	"order_board/internal/global"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// InitRegistry đăng ký các collection MongoDB vào registry
func InitRegistry() {
	if err := InitCollections(global.MongoDB_Session, global.ServerConfig); err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// InitCollections đăng ký day_orders, day_groups, toggle_requests
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName)
	colNames := []string{
		global.MongoDB_ColNames.DayOrders,
		global.MongoDB_ColNames.DayGroups,
		global.MongoDB_ColNames.ToggleRequests,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}
		if !registered {
			logrus.Warnf("Collection %s already registered", name)
		}
	}
	return nil
}

// mongoCollections lấy collection đã đăng ký cho store Mongo
func mongoCollections() docstore.MongoCollections {
	get := func(name string) *mongo.Collection {
		col, err := global.RegistryCollections.MustGet(name)
		if err != nil {
			logrus.Fatalf("Collection %s not registered: %v", name, err)
		}
		return col
	}
	return docstore.MongoCollections{
		Orders:   get(global.MongoDB_ColNames.DayOrders),
		Groups:   get(global.MongoDB_ColNames.DayGroups),
		Requests: get(global.MongoDB_ColNames.ToggleRequests),
	}
}
