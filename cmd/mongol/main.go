// Command mongol applies JSON schemas to MongoDB collections.
//
// Usage:
//
//	mongol schema -config mongol.yaml -collection users -file schema.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	driver "github.com/albert-team/mongol/driver/mongo"
	"github.com/albert-team/mongol/internal/config"
	"github.com/albert-team/mongol/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "schema":
		if err := runSchema(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}
}

func printHelp() {
	fmt.Println(`mongol - MongoDB collection schema and hook tooling

Commands:
  schema   apply a JSON schema file to a collection
  help     show this message

Run "mongol schema -h" for the schema flags.`)
}

func runSchema(args []string) error {
	// Local .env may provide variables referenced by the config file
	_ = godotenv.Load()

	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	configPath := fs.String("config", "mongol.yaml", "path to config file")
	collection := fs.String("collection", "", "collection name")
	file := fs.String("file", "", "path to JSON schema file")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	_ = fs.Parse(args)

	if *collection == "" || *file == "" {
		return fmt.Errorf("-collection and -file are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()

	schema, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read schema file '%s': %w", *file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := driver.Connect(ctx, driver.Options{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		Logger:                 logger,
	})
	if err != nil {
		return err
	}
	defer disconnect(client, logger)

	applied, err := client.SetSchema(ctx, *collection, schema, cfg.Schema.Options())
	if err != nil {
		return err
	}

	out, err := bson.MarshalExtJSONIndent(applied, false, false, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode applied schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func disconnect(client *driver.Client, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warn().Err(err).Msg("disconnect failed")
	}
}
