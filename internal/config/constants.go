package config

// Library constants
const (
	AppName    = "pykemen"
	AppVersion = "0.1.0"

	// Cache layout, relative to CacheConfig.Dir
	ReportFileFormat          = "report_%s_%s.csv"
	UnsampledReportFileFormat = "unsampled_report_%s.csv"
	ReportFilePattern         = `^report_[0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{4}-[0-9]{2}-[0-9]{2}\.csv$`
	UnsampledReportPattern    = `^unsampled_report_([0-9]{4}-[0-9]{2}-[0-9]{2})\.csv$`

	// Profile ids are given with this prefix and stored without it
	ProfilePrefix = "ga:"
)

// OAuth scopes requested by each collaborator
var (
	AnalyticsScopes = []string{
		"https://www.googleapis.com/auth/analytics.edit",
		"https://www.googleapis.com/auth/analytics",
		"https://www.googleapis.com/auth/analytics.manage.users",
	}

	WarehouseScopes = []string{
		"https://www.googleapis.com/auth/bigquery",
		"https://www.googleapis.com/auth/bigquery.insertdata",
	}

	MailScopes = []string{
		"https://www.googleapis.com/auth/gmail.send",
	}
)
