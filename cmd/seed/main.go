// Command seed populates the database with demo users, follows and posts.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/middleware"
	"microblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	follows := flag.Int("follows", 5, "Follow attempts per user")
	maxDays := flag.Int("days", 30, "Spread post timestamps over this many days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(os.Stdout, cfg.Env)
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		FollowsPerUser: *follows,
		MaxDays:        *maxDays,
		RandSeed:       *randSeed,
	}
	sum, err := seed.NewSeeder(db, opts).Run(context.Background(), opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d follows, %d posts", sum.Users, sum.Follows, sum.Posts)
}
