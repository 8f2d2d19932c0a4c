// Package http implements the HTTP handlers of the coverage service. Handlers
// stay thin: parse the request, call the service, render the result.
//
// # Routes
//
//	GET  /api/v1/summary            coverage and demographic statistics
//	GET  /api/v1/indicators         KPI block
//	GET  /api/v1/districts          per-district summary table
//	GET  /api/v1/low-coverage       districts below ?threshold=
//	GET  /api/v1/demographics       age group by gender coverage
//	GET  /api/v1/recommendations    ordered recommendations
//	GET  /api/v1/charts/{chart}     chart definition
//	GET  /api/v1/export/{format}    csv, xlsx, pdf or txt attachment
//	GET  /api/v1/options            filter option lists
//	GET  /api/v1/quality            data quality report
//	GET  /api/v1/dataset            active dataset status
//	POST /api/v1/dataset            multipart upload, field "file"
//	POST /api/v1/dataset/reload     re-read the configured source
//
// Selection endpoints accept district, vaccine, age_group, gender, start and
// end (YYYY-MM-DD) query parameters. Absent values select everything.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and carry the failing stage:
//
//	{
//	    "type": "/errors/data/no-data",
//	    "title": "No Data",
//	    "status": 404,
//	    "detail": "no records match the current selection",
//	    "instance": "/api/v1/summary",
//	    "stage": "filter",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against a service loaded from fixtures.
package http
