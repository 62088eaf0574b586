package storage

import (
	"fmt"

	"ugcads-backend/config"
	"ugcads-backend/internal/storage/oss"
	"ugcads-backend/internal/storage/s3"
	"ugcads-backend/internal/storage/supabase"
)

// New builds the driver selected by STORAGE_DRIVER.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "supabase", "":
		return supabase.New(supabase.Config{
			URL:        cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.StorageBucket,
		})
	case "oss":
		return oss.New(OSSConfig(cfg))
	case "s3":
		return s3.New(s3.Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.StorageBucket,
			ForcePathStyle:  cfg.S3ForcePathStyle,
			PublicURL:       cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func OSSConfig(cfg *config.Config) oss.Config {
	return oss.Config{
		Endpoint:        cfg.OSSEndpoint,
		Region:          cfg.OSSRegion,
		AccessKeyID:     cfg.OSSAccessKeyID,
		AccessKeySecret: cfg.OSSAccessKeySecret,
		Bucket:          cfg.StorageBucket,
		RoleArn:         cfg.OSSRoleArn,
	}
}
