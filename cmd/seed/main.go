// Command seed loads sample stores and reviews into the catalog database.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
