// Command wms manages a small warehouse store.
package main

import "github.com/mesh-intelligence/wmslite/internal/cli"

func main() {
	cli.Execute()
}
