package soundscape

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/teslashibe/go-soundscape/pkg/soundscape"

var tracer = otel.Tracer(scopeName)
