// Package main serves the call-forwarding config API as an AWS Lambda behind an HTTP API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/resphone/resphone/internal/bootstrap"
	"github.com/resphone/resphone/internal/config"
	"github.com/resphone/resphone/internal/logx"

	"github.com/aws/aws-lambda-go/lambda"
)

// main initializes the application and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	logger := logx.New(os.Stderr, env.LogLevel)
	slog.SetDefault(logger)

	b, err := bootstrap.NewBlobStore(context.Background(), env)
	if err != nil {
		log.Fatal(err)
	}
	app, err := bootstrap.NewApp(env, b, logger)
	if err != nil {
		log.Fatal(err)
	}
	lambda.Start(app.Handle)
}
