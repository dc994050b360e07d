// Package statsview serves Go runtime statistics over HTTP while a machine
// runs. The charts are provided by github.com/go-echarts/statsview.
//
// After launch, graphs are available at
//
//	<addr>/debug/statsview
//
// and the standard pprof endpoints at <addr>/debug/pprof/.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Address is the default listen address.
const Address = "localhost:12600"

const path = "/debug/statsview"

// Launch starts the stats server in a new goroutine and returns a function
// that shuts it down.
func Launch(output io.Writer, addr string) (stop func()) {
	if addr == "" {
		addr = Address
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, path)
	return mgr.Stop
}
