package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HttpPort string

	// S3/MinIO
	BucketEndpoint  string
	BucketAccessID  string
	BucketAccessKey string
	PublicBucket    string
	PrivateBucket   string
	BucketRegion    string
	UseSSL          bool   // MinIO: false, S3: true
	StorageType     string // "minio" or "s3"

	// Redis
	RedisURL string

	// Postgres
	Host     string
	User     string
	Password string
	DBName   string
	Port     string

	// upload pipeline
	ChunkSize   int64
	MaxFileSize int64
	SessionTTL  time.Duration
	ScratchRoot string

	// render worker
	QueueName      string
	WorkerCount    int
	ConverterURL   string
	ConvertTimeout time.Duration

	// watermark labels
	BrandLabel   string
	ContactLabel string
}

func LoadConfig() *Config {
	return &Config{
		HttpPort:        os.Getenv("PORT"),
		BucketEndpoint:  os.Getenv("BUCKET_ENDPOINT"),
		BucketAccessID:  os.Getenv("BUCKET_ACCESS_ID"),
		BucketAccessKey: os.Getenv("BUCKET_ACCESS_KEY"),
		PublicBucket:    envOr("PUBLIC_BUCKET", "lecture-public"),
		PrivateBucket:   envOr("PRIVATE_BUCKET", "lecture-private"),
		BucketRegion:    os.Getenv("BUCKET_REGION"),
		UseSSL:          os.Getenv("BUCKET_USE_SSL") == "true",
		StorageType:     envOr("STORAGE_TYPE", "minio"),
		RedisURL:        os.Getenv("REDIS_URL"),
		Host:            os.Getenv("PG_HOST"),
		User:            os.Getenv("PG_USER"),
		Password:        os.Getenv("PG_PASSWORD"),
		DBName:          os.Getenv("PG_DB"),
		Port:            os.Getenv("PG_PORT"),
		ChunkSize:       envInt64("CHUNK_SIZE", 5*1024*1024),
		MaxFileSize:     envInt64("MAX_FILE_SIZE", 300*1024*1024),
		SessionTTL:      envDuration("SESSION_TTL", time.Hour),
		ScratchRoot:     envOr("SCRATCH_ROOT", os.TempDir()+"/lecture-uploads"),
		QueueName:       envOr("RENDER_QUEUE", "render_jobs"),
		WorkerCount:     int(envInt64("WORKER_COUNT", 2)),
		ConverterURL:    os.Getenv("CONVERTER_URL"),
		ConvertTimeout:  envDuration("CONVERT_TIMEOUT", 2*time.Minute),
		BrandLabel:      envOr("BRAND_LABEL", "Lecture Library"),
		ContactLabel:    envOr("CONTACT_LABEL", "support@lecture.example"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
