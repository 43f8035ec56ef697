package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// newResource describes the edge function. The Lambda runtime sets
// AWS_LAMBDA_FUNCTION_NAME and AWS_LAMBDA_FUNCTION_VERSION; replicas of a
// Lambda@Edge function run in many regions under the same name.
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	env := cfg.Environment
	if env == "" {
		env = "custom"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.CloudProviderAWS,
		attribute.String("deployment.environment", env),
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		attrs = append(attrs, semconv.FaaSName(fn))
	}
	if v := os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"); v != "" {
		attrs = append(attrs, semconv.FaaSVersion(v))
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		attrs = append(attrs, semconv.CloudRegion(region))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		// OTEL_RESOURCE_ATTRIBUTES, OTEL_SERVICE_NAME
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	return res, nil
}
