package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/eas-attestation-toolkit/chain"
	"github.com/ruteri/eas-attestation-toolkit/cmd/flags"
	"github.com/ruteri/eas-attestation-toolkit/eas"
	"github.com/ruteri/eas-attestation-toolkit/httpserver"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/registry"
	"github.com/ruteri/eas-attestation-toolkit/storage"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

func main() {
	appFlags := []cli.Flag{listenAddrFlag, flags.LogServiceFlagFn("eas-gateway")}
	appFlags = append(appFlags, flags.LoggingFlags...)
	appFlags = append(appFlags, flags.ConfigFlags...)
	appFlags = append(appFlags, flags.ServerFlags...)

	app := &cli.App{
		Name:  "eas-gateway",
		Usage: "Serve schema and attestation lookups and off-chain attestation verification",
		Flags: appFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			cfg, err := flags.LoadConfig(cCtx)
			if err != nil {
				logger.Error("Failed to load configuration", "err", err)
				return err
			}
			if err := cfg.RequireRPC(); err != nil {
				logger.Error("Missing configuration", "err", err)
				return err
			}

			ctx, cancel := context.WithTimeout(cCtx.Context, cfg.ConfirmationTimeout)
			defer cancel()

			// The gateway never signs, so the connection is read-only.
			logger.Info("Connecting to Ethereum RPC")
			conn, err := chain.Connect(ctx, cfg.RPCProvider, "", logger)
			if err != nil {
				logger.Error("Failed to dial RPC", "err", err)
				return err
			}

			registryClient, err := registry.NewSchemaRegistryClient(conn, cfg.SchemaRegistry(), logger)
			if err != nil {
				logger.Error("Failed to bind SchemaRegistry", "err", err)
				return err
			}
			easClient, err := eas.NewClient(conn, cfg.EAS(), logger)
			if err != nil {
				logger.Error("Failed to bind EAS", "err", err)
				return err
			}

			verifier, err := easClient.Offchain(ctx)
			if err != nil {
				logger.Error("Failed to configure off-chain verification", "err", err)
				return err
			}

			var archive interfaces.StorageBackend
			if len(cfg.ArchiveURIs) > 0 {
				locations := make([]interfaces.StorageBackendLocation, len(cfg.ArchiveURIs))
				for i, uri := range cfg.ArchiveURIs {
					locations[i] = interfaces.StorageBackendLocation(uri)
				}
				archive, err = storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
				if err != nil {
					logger.Error("Failed to configure archive", "err", err)
					return err
				}
				logger.Info("Archive configured", slog.String("location", archive.LocationURI()))
			}

			handler := httpserver.NewHandler(registryClient, easClient, verifier, archive, logger)

			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name)), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
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
