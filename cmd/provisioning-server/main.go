package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/fleetops/device-provisioning-backend/api/broker"
	"github.com/fleetops/device-provisioning-backend/cmd/flags"
	"github.com/fleetops/device-provisioning-backend/cryptoutils"
	"github.com/fleetops/device-provisioning-backend/geolocate"
	"github.com/fleetops/device-provisioning-backend/httpserver"
	"github.com/fleetops/device-provisioning-backend/issuer"
	"github.com/fleetops/device-provisioning-backend/keysource"
	"github.com/fleetops/device-provisioning-backend/regions"
	"github.com/fleetops/device-provisioning-backend/registry"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for the provisioning API",
	},
	&cli.StringFlag{
		Name:     "verification-key",
		Required: true,
		Usage:    "location of the fleet verification public key: a file path, file:// URI, or vault://host:port/mount/path?field=public_key",
	},
	&cli.StringFlag{
		Name:  "registry-table",
		Value: "iot-global-provisioning",
		Usage: "DynamoDB table holding enrollment records",
	},
	&cli.StringFlag{
		Name:  "policy-name",
		Value: "GlobalDevicePolicy",
		Usage: "name of the device policy ensured in each region",
	},
	&cli.StringFlag{
		Name:  "default-region",
		Value: "eu-west-2",
		Usage: "region used when geolocation has no data for the caller",
	},
	&cli.StringFlag{
		Name:  "geo-api-url",
		Value: "http://api.ipstack.com",
		Usage: "base URL of the ipstack geolocation API",
	},
	&cli.StringFlag{
		Name:    "geo-api-key",
		EnvVars: []string{"GEO_API_KEY"},
		Usage:   "access key for the geolocation API",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "provisioning-server",
		Usage: "Serve the device provisioning API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			keySource, err := keysource.KeySourceFor(cCtx.String("verification-key"), logger)
			if err != nil {
				logger.Error("Failed to create key source", "err", err)
				return err
			}

			loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			keyPEM, err := keySource.VerificationKey(loadCtx)
			cancel()
			if err != nil {
				logger.Error("Failed to load verification key", "err", err)
				return err
			}

			verifier, err := cryptoutils.NewVerifier(keyPEM, logger)
			if err != nil {
				logger.Error("Failed to parse verification key", "err", err)
				return err
			}

			sess := session.Must(session.NewSessionWithOptions(session.Options{
				SharedConfigState: session.SharedConfigEnable,
			}))

			enrollments := registry.NewDynamoRegistry(dynamodb.New(sess), cCtx.String("registry-table"), logger)
			credentials := issuer.NewIoTIssuer(sess, cCtx.String("policy-name"), logger)
			locator := geolocate.New(cCtx.String("geo-api-url"), cCtx.String("geo-api-key"), logger)

			catalog := regions.DefaultCatalog()
			handler, err := broker.NewHandler(
				verifier,
				enrollments,
				locator,
				catalog,
				credentials,
				cCtx.String("default-region"),
				logger,
			)
			if err != nil {
				logger.Error("Failed to create broker handler", "err", err)
				return err
			}

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
