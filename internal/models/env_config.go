package models

import (
	"fmt"
	"os"
	"strconv"
)

type EnvConfig struct {
	DatabaseURL    string
	BulletinURL    string // empty means the in-process board
	Port           string
	PostsPerMinute int
	Debug          bool
}

func ReadEnvConfig() EnvConfig {
	debug := os.Getenv("CANDOUR_DEBUG") == "true"
	port := os.Getenv("CANDOUR_PORT")
	if port == "" {
		port = "23496"
	}
	postsPerMinute, err := strconv.Atoi(os.Getenv("CANDOUR_POSTS_PER_MINUTE"))
	if err != nil {
		fmt.Println("Using default value for CANDOUR_POSTS_PER_MINUTE")
		postsPerMinute = 2
	}
	return EnvConfig{
		DatabaseURL:    os.Getenv("CANDOUR_DATABASE_URL"),
		BulletinURL:    os.Getenv("CANDOUR_BULLETIN_URL"),
		Port:           port,
		PostsPerMinute: postsPerMinute,
		Debug:          debug,
	}
}
