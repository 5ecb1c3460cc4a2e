// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package supervisor runs the node's long-lived workers under a suture v4 tree.

The tree has three layers so a crash in one does not stop the others:

	dino (root)
	├── data-layer       heartbeat reaper
	├── messaging-layer  embedded NATS, bus publisher, bus consumer, socket hub
	└── api-layer        HTTP server (REST, socket upgrade, health, metrics)

Services restart with suture's backoff. Failures count up to
FailureThreshold, decay at FailureDecay per second, and past the threshold
the supervisor waits FailureBackoff before restarting again.

Supervisor events are logged through sutureslog into the slog bridge of
the logging package, so they end up in the same zerolog stream as
everything else:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(reaper)
	tree.AddMessagingService(services.NewPublisherService(publisher, 5*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)

See the services subpackage for the wrappers.
*/
package supervisor
