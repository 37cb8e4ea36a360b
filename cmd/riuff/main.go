// Command riuff crawls the RIUFF institutional repository and writes the
// bibliographic metadata of every item to a timestamped JSON dataset.
//
// Usage:
//
//	riuff [year]
//	riuff latest
//
// The optional year is a lower bound on the degree year of collected items.
package main

func main() {
	Execute()
}
