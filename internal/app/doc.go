// Package app wires the fuel extraction server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from the YAML file and FUEL_* environment
//	2. Initialize logging and OpenTelemetry
//	3. Open the run store and build the fetcher
//	4. Create the extraction and health services
//	5. Set up the chi router and middleware
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// BuildExtractionService is shared with the fuelextract CLI so both entry
// points construct the pipeline identically.
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, drains in-flight requests within the
// configured shutdown timeout, closes the run store and flushes telemetry.
// The package never calls os.Exit.
package app
