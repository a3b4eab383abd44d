package utils

const defaultServiceName = "klyr-waitlist"

func IsTracingEnabled() bool {
	return GetBoolEnv("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}
