package utils

import (
	. "github.com/Luismorlan/localsocial/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// StartProfiler starts the Datadog continuous profiler. Failure to start is
// logged, the service keeps running without profiles.
func StartProfiler(service string) {
	if err := profiler.Start(
		profiler.WithService(service),
		profiler.WithEnv(ddEnv()),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	); err != nil {
		Log.Error("fail to start profiler: ", err)
	}
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
