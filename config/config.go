package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the server.
type Config struct {
	Port      string
	PublicURL string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	YelpAPIKey    string
	YelpBaseURL   string
	GoogleAPIKey  string
	RateLimit     float64
	SearchProfile Profile
}

// Load reads a .env file if one exists, then builds the config from the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return NewFromEnv()
}

// NewFromEnv creates a new Config from environment variables.
func NewFromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	yelpKey := os.Getenv("YELP_API_KEY")
	if yelpKey == "" {
		return nil, fmt.Errorf("YELP_API_KEY environment variable not set")
	}

	googleKey := os.Getenv("GOOGLE_API_KEY")
	if googleKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable not set")
	}

	port := getenv("PORT", ":8080")
	if port[0] != ':' {
		port = ":" + port
	}

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cost := 10
	if s := os.Getenv("BCRYPT_COST"); s != "" {
		cost, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("BCRYPT_COST: %w", err)
		}
	}

	rateLimit := 5.0
	if s := os.Getenv("RATE_LIMIT"); s != "" {
		rateLimit, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT: %w", err)
		}
	}

	profile := DefaultProfile()
	if path := os.Getenv("SEARCH_PROFILE"); path != "" {
		profile, err = LoadProfile(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		Port:            port,
		PublicURL:       getenv("PUBLIC_URL", "http://localhost:3000"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "tripbite"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       []byte(jwtSecret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		BcryptCost:      cost,
		YelpAPIKey:      yelpKey,
		YelpBaseURL:     getenv("YELP_BASE_URL", "https://api.yelp.com"),
		GoogleAPIKey:    googleKey,
		RateLimit:       rateLimit,
		SearchProfile:   profile,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
