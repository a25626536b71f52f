package utility

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// findConfigRoot tìm thư mục gốc chứa config/env, dùng để resolve đường dẫn tương đối
func findConfigRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("config/env directory not found")
		}
		currentDir = parentDir
	}
}

// resolveCredentialsPath: đường dẫn tuyệt đối dùng trực tiếp, tương đối thì tính từ thư mục chứa config/env
func resolveCredentialsPath(credentialsPath string) (string, error) {
	if filepath.IsAbs(credentialsPath) {
		return credentialsPath, nil
	}
	root, err := findConfigRoot()
	if err != nil {
		return credentialsPath, nil
	}
	return filepath.Join(root, credentialsPath), nil
}

// InitFirebase khởi tạo Firebase Admin SDK.
// credentialsPath rỗng: dùng Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS, metadata server).
func InitFirebase(ctx context.Context, projectID, credentialsPath string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		resolved, err := resolveCredentialsPath(credentialsPath)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(resolved); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase credentials file not found: %s", resolved)
		}
		opts = append(opts, option.WithCredentialsFile(resolved))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}

// NewFirestoreClient tạo Firestore client từ Firebase app
func NewFirestoreClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating firestore client: %w", err)
	}
	return client, nil
}
