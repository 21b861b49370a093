package constant

import "time"

// Environment variable names.
const (
	EnvMongoURI                    = "MONGO_URI"
	EnvMongoDatabase               = "MONGO_DATABASE"
	EnvMongoServerSelectionTimeout = "MONGO_SERVER_SELECTION_TIMEOUT"
	EnvMongoSocketTimeout          = "MONGO_SOCKET_TIMEOUT"
	EnvMongoConnectTimeout         = "MONGO_CONNECT_TIMEOUT"
	EnvNodeEnv                     = "NODE_ENV"
	EnvNodeConfigDir               = "NODE_CONFIG_DIR"
	EnvPort                        = "PORT"
	EnvLogLevel                    = "LOG_LEVEL"
	EnvStaticDir                   = "STATIC_DIR"
	EnvCORSAllowedOrigins          = "CORS_ALLOWED_ORIGINS"
	EnvShutdownTimeout             = "SHUTDOWN_TIMEOUT"
	EnvOTelEnabled                 = "OTEL_ENABLED"
	EnvOTelExporterEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTelServiceName             = "OTEL_SERVICE_NAME"
	EnvVersion                     = "VERSION"
)

// Configuration file key holding the fallback connection string.
const ConfigKeyMongoURI = "mongoURI"

// Defaults.
const (
	DefaultConfigEnv              = "development"
	DefaultPort                   = 5000
	DefaultConfigDir              = "config"
	DefaultStaticDir              = "client/build"
	DefaultDevCORSOrigin          = "http://localhost:3000"
	DefaultDatabase               = "devconnector"
	DefaultServiceName            = "devconnector"
	DefaultVersion                = "0.0.0"
	DefaultServerSelectionTimeout = 5 * time.Second
	DefaultSocketTimeout          = 45 * time.Second
	DefaultConnectTimeout         = 10 * time.Second
	DefaultShutdownTimeout        = 10 * time.Second
)
