package adapter

import (
	"ChatSyncAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	AvatarURLModePublic    = "public"
	AvatarURLModePresigned = "presigned"
)

// StorageAdapter turns stored avatar keys into URLs a client can load.
type StorageAdapter struct {
	client        *s3.Client
	bucketPublic  string
	bucketPrivate string
	region        string
	publicDomain  string
	mode          string
	expiry        time.Duration
	presignClient *s3.PresignClient
}

func NewStorageAdapter(cfg *config.AppConfig, s3Client *s3.Client) *StorageAdapter {
	var presignClient *s3.PresignClient
	if s3Client != nil {
		presignClient = s3.NewPresignClient(s3Client)
	}

	return &StorageAdapter{
		client:        s3Client,
		bucketPublic:  cfg.S3BucketPublic,
		bucketPrivate: cfg.S3BucketPrivate,
		region:        cfg.S3Region,
		publicDomain:  cfg.S3PublicDomain,
		mode:          cfg.AvatarURLMode,
		expiry:        cfg.AvatarURLExpiry,
		presignClient: presignClient,
	}
}

// ResolveAvatarURL returns "" for an empty key and leaves absolute URLs alone.
// A key that cannot be resolved is returned unchanged.
func (s *StorageAdapter) ResolveAvatarURL(ctx context.Context, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}

	switch s.mode {
	case AvatarURLModePresigned:
		url, err := s.GetPresignedURL(ctx, key, s.expiry)
		if err != nil {
			slog.Warn("Failed to presign avatar URL", "error", err, "key", key)
			return key
		}
		return url
	default:
		if s.publicDomain == "" && s.bucketPublic == "" {
			return key
		}
		return s.GetPublicURL(key)
	}
}

func (s *StorageAdapter) GetPublicURL(path string) string {
	if s.publicDomain != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.publicDomain, "/"), filepath.ToSlash(path))
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketPublic, s.region, filepath.ToSlash(path))
}

func (s *StorageAdapter) GetPresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if s.presignClient == nil {
		return "", errors.New("presign client is not initialized")
	}

	s3Key := filepath.ToSlash(path)
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketPrivate),
		Key:    aws.String(s3Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})

	if err != nil {
		return "", err
	}

	return req.URL, nil
}
