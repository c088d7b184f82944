// Package config holds the settings of the report cache and the service
// collaborators.
//
// A value is taken from the first source that sets it:
//
//  1. PYKEMEN_* environment variables
//  2. config.yaml, or configs/config.yaml, in the working directory
//  3. Default()
//
// Sections map to environment prefixes: Cache to PYKEMEN_CACHE_*, Analytics
// to PYKEMEN_ANALYTICS_*, Warehouse to PYKEMEN_WAREHOUSE_* and so on.
//
//	PYKEMEN_CACHE_DIR=cache
//	PYKEMEN_CACHE_MAX_AGE_DAYS=180
//	PYKEMEN_ANALYTICS_REQUEST_INTERVAL=100ms
//	PYKEMEN_WAREHOUSE_PROJECT_ID=my-project
//	PYKEMEN_AUTH_SECRETS_FILE=client_secrets.json
//
// Load validates the merged result: poll intervals must be positive, and
// neither the request interval nor the cache age may be negative.
package config
