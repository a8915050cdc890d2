package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               int    `envconfig:"port" default:"8080"`
	MongoURI           string `envconfig:"mongodb_uri" default:"mongodb://127.0.0.1:27017"`
	MongoDB            string `envconfig:"mongodb_db" default:"ripple"`
	JWTSecret          string `envconfig:"jwt_secret" required:"true"`
	CloudinaryURL      string `envconfig:"cloudinary_url"`
	VapidPublicKey     string `envconfig:"vapid_public_key"`
	VapidPrivateKey    string `envconfig:"vapid_private_key"`
	VapidSubscriber    string `envconfig:"vapid_subscriber" default:"admin@ripple.app"`
	GoogleClientID     string `envconfig:"google_client_id"`
	GoogleClientSecret string `envconfig:"google_client_secret"`
	GoogleRedirectURL  string `envconfig:"google_redirect_url"`
	FrontendOrigin     string `envconfig:"frontend_origin" default:"http://localhost:3000"`
}

func Load() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	if err := envconfig.Process("ripple", c); err != nil {
		return nil, err
	}
	return c, nil
}
