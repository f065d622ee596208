// Package http implements the HTTP handlers of the fuel extraction server.
// Handlers only parse requests, call the service layer and format
// responses; extraction logic lives in internal/services.
//
// # Routes
//
//	GET  /api/health               liveness summary
//	GET  /api/health/ready         readiness with store and output checks
//	GET  /api/health/live          runtime details
//	GET  /api/version              build and runtime versions
//	POST /api/extractions          run an extraction now
//	GET  /api/extractions?limit=N  recent runs, newest first
//	GET  /api/extractions/{id}     one run
//
// A run answers 201 with its summary, or 200 when the sheet held no sites
// and nothing was written.
//
// # Error Handling
//
// Errors are written as RFC 7807 Problem Details by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/run/in-progress",
//	    "title": "Conflict",
//	    "status": 409,
//	    "detail": "An extraction run is already in progress",
//	    "instance": "/api/extractions",
//	    "error_code": "RUN_IN_PROGRESS"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a chi router and mocked
// services.
package http
