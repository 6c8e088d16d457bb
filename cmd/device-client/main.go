package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fleetops/device-provisioning-backend/api"
	"github.com/fleetops/device-provisioning-backend/api/broker"
	"github.com/fleetops/device-provisioning-backend/cmd/flags"
	"github.com/fleetops/device-provisioning-backend/cryptoutils"
	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/urfave/cli/v2"
)

// The client writes credentials next to its working directory:
// <name>.device.key.pem, <name>.device.csr.pem (CSR mode only),
// <name>.device.cert.pem, and <name>.endpoint holding
// "endpoint::region". An existing endpoint file means the device is
// already provisioned and the client exits without calling the server.

var clientFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "server-addr",
		Value: "http://127.0.0.1:8080",
		Usage: "base URL of the provisioning server",
	},
	&cli.StringFlag{
		Name:     "device-name",
		Required: true,
		Usage:    "device identity to enroll",
	},
	&cli.StringFlag{
		Name:     "signing-key",
		Required: true,
		Usage:    "PEM file with the fleet signing private key",
	},
	&cli.BoolFlag{
		Name:  "local-key",
		Value: false,
		Usage: "generate the device key locally and send a CSR instead of receiving a server-generated key",
	},
	flags.LogJSONFlag,
	flags.LogDebugFlag,
	flags.LogUIDFlag,
	flags.LogServiceFlag,
}

func main() {
	app := &cli.App{
		Name:  "device-client",
		Usage: "Enroll a device against the provisioning server",
		Flags: clientFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			name, err := interfaces.NewDeviceName(cCtx.String("device-name"))
			if err != nil {
				logger.Error("Invalid device name", "err", err)
				return err
			}

			endpointFile := fmt.Sprintf("%s.endpoint", name)
			if _, err := os.Stat(endpointFile); err == nil {
				logger.Info("Device already provisioned, nothing to do", "file", endpointFile)
				return nil
			}

			signingKey, err := os.ReadFile(cCtx.String("signing-key"))
			if err != nil {
				logger.Error("Failed to read signing key", "err", err)
				return err
			}

			signature, err := cryptoutils.SignMessage(cryptoutils.PrivateKeyPEM(signingKey), name.String())
			if err != nil {
				logger.Error("Failed to sign device name", "err", err)
				return err
			}

			req := &api.ProvisioningRequest{
				ThingName:    name.String(),
				ThingNameSig: signature,
			}

			var localKey cryptoutils.PrivateKeyPEM
			if cCtx.Bool("local-key") {
				key, csr, err := cryptoutils.CreateCSRWithRandomKey(name.String())
				if err != nil {
					logger.Error("Failed to create CSR", "err", err)
					return err
				}
				localKey = key
				req.CSR = string(csr)

				if err := os.WriteFile(fmt.Sprintf("%s.device.csr.pem", name), csr, 0o644); err != nil {
					logger.Error("Failed to write CSR file", "err", err)
					return err
				}
			}

			client := &broker.ProvisioningClient{ServerAddr: cCtx.String("server-addr")}
			resp, err := client.Provision(req)
			if err != nil {
				logger.Error("Provisioning request failed", "err", err)
				return err
			}

			if resp.Status != api.StatusSuccess {
				logger.Error("Server rejected provisioning", "message", resp.Message)
				return fmt.Errorf("provisioning rejected: %s", resp.Message)
			}
			if resp.Message != "" {
				logger.Warn("Server note", "message", resp.Message)
			}
			if resp.DistanceKm != nil {
				logger.Info("Provisioned", "region", resp.Region, "distanceKm", *resp.DistanceKm)
			} else {
				logger.Info("Provisioned", "region", resp.Region)
			}

			keyPEM := localKey
			if keyPEM == nil {
				keyPEM = cryptoutils.PrivateKeyPEM(resp.PrivateKey)
			}
			if err := os.WriteFile(fmt.Sprintf("%s.device.key.pem", name), keyPEM, 0o600); err != nil {
				logger.Error("Failed to write key file", "err", err)
				return err
			}
			if err := os.WriteFile(fmt.Sprintf("%s.device.cert.pem", name), []byte(resp.CertificatePem), 0o644); err != nil {
				logger.Error("Failed to write certificate file", "err", err)
				return err
			}

			endpoint := fmt.Sprintf("%s::%s", resp.EndpointAddress, resp.Region)
			if err := os.WriteFile(endpointFile, []byte(endpoint), 0o644); err != nil {
				logger.Error("Failed to write endpoint file", "err", err)
				return err
			}

			logger.Info("Credentials stored", "endpoint", resp.EndpointAddress)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
