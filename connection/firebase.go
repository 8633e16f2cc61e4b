package connection

import (
	"context"
	"fmt"

	"taskboard/config"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Firebase bundles the clients built from one service account.
type Firebase struct {
	App       *firebase.App
	Firestore *firestore.Client
	Messaging *messaging.Client
	// Bucket is nil when FIREBASE_STORAGE_BUCKET is not set.
	Bucket *gcs.BucketHandle
}

func FBConnection(ctx context.Context, cfg config.Config) (*Firebase, error) {
	var fbConfig *firebase.Config
	if cfg.FirebaseBucket != "" {
		fbConfig = &firebase.Config{StorageBucket: cfg.FirebaseBucket}
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(cfg.FirebaseCredentials))
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}

	fb := &Firebase{App: app, Firestore: fs, Messaging: msg}
	if cfg.FirebaseBucket != "" {
		client, err := app.Storage(ctx)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("error getting Storage client: %w", err)
		}
		bucket, err := client.DefaultBucket()
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("error getting storage bucket: %w", err)
		}
		fb.Bucket = bucket
	}
	return fb, nil
}

func (f *Firebase) Close() error {
	return f.Firestore.Close()
}
