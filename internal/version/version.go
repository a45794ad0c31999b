package version

import "fmt"

var (
	Version = "unknown"
	Commit  = "unknown"
)

var FullVersion = fmt.Sprintf("%s-%s", Version, Commit)
