// Package buildinfo carries the values stamped at link time, e.g.
// -ldflags "-X github.com/go-sod/sensord/internal/buildinfo.BuildTag=v1.2.0".
package buildinfo

import (
	"sync"

	"github.com/prometheus/common/version"
)

const Graffiti = "" +
	"                                    _ \n" +
	" ___  ___ _ __  ___  ___  _ __ __| |\n" +
	"/ __|/ _ \\ '_ \\/ __|/ _ \\| '__/ _` |\n" +
	"\\__ \\  __/ | | \\__ \\ (_) | | | (_| |\n" +
	"|___/\\___|_| |_|___/\\___/|_|  \\__,_|\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "sensord"
	Time     string = ""
	Revision string = ""
)

var stampOnce sync.Once

// stamp copies the link-time values into the prometheus version package, which
// formats them together with the Go runtime details.
func stamp() {
	stampOnce.Do(func() {
		version.Version = BuildTag
		version.BuildDate = Time
		if Revision != "" {
			version.Revision = Revision
		}
	})
}

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

// Print is the multi-line report of the version command.
func (buildinfo) Print() string {
	stamp()
	return version.Print(Name)
}

// Short is the one-line summary logged at startup.
func (buildinfo) Short() string {
	stamp()
	return version.Info()
}

var Info buildinfo
