// Command plan-data imports plan files and uploads external datasets
// through the same pipelines the gateway serves over HTTP.
package main

func main() {
	Execute()
}
