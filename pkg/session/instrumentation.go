package session

import "go.opentelemetry.io/otel"

const scopeName = "github.com/teslashibe/go-soundscape/pkg/session"

var tracer = otel.Tracer(scopeName)
