package utils

import (
	"github.com/Luismorlan/localsocial/utils/dotenv"
	. "github.com/Luismorlan/localsocial/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func ddEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for the given service.
func StartTracer(service string) {
	tracer.Start(
		tracer.WithService(service),
		tracer.WithEnv(ddEnv()),
	)

	Log.WithField("env", ddEnv()).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
