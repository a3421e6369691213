/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer   = "api_server"
	NotifyTail  = "notify_tail"
	DefaultPort = 8080
)

var (
	ServiceName    string
	ByPassAuth     bool
	AppSettingPath string
	Port           int
)

func init() {
	flag.StringVar(&ServiceName, "service", APIServer, "'api_server' or 'notify_tail'")
	flag.BoolVar(&ByPassAuth, "bypass_auth", false, "trust the 'sub' header instead of verifying a token, only for local development")
	flag.StringVar(&AppSettingPath, "app_setting_path", "cmd/server/app_setting.yaml", "path to the yaml app setting")
	flag.IntVar(&Port, "port", DefaultPort, "port the api server listens on")
}

// Parse parses the command line once. Binaries call it from main so that test
// binaries keep their own flags.
func Parse() {
	if !flag.Parsed() {
		flag.Parse()
	}
}
