// Package analytics adapts the Analytics v3 API to the rest of pykemen.
//
// Client.Query issues one Core Reporting request and satisfies
// report.Querier, so a Client can back a report.Cache directly.
// Client.DataImport uploads a file to a custom data source and waits for
// the upload to leave the PENDING state.
//
// Errors from the API are returned unchanged; callers can inspect them
// with errors.As against *googleapi.Error.
package analytics
