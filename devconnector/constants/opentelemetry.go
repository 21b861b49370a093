package constant

// TelemetrySDKName identifies this service in telemetry resource attributes.
const TelemetrySDKName = "devconnector/opentelemetry"

// MaxMetricLabelLength bounds metric label values.
const MaxMetricLabelLength = 64

// Span attribute keys for the data store.
const (
	AttrDBSystem = "db.system"
	AttrDBName   = "db.name"
)

// DBSystemMongoDB is the db.system value for MongoDB.
const DBSystemMongoDB = "mongodb"

// SanitizeMetricLabel truncates value to MaxMetricLabelLength.
func SanitizeMetricLabel(value string) string {
	if len(value) > MaxMetricLabelLength {
		return value[:MaxMetricLabelLength]
	}

	return value
}
