// Command bathlogctl is the operator CLI for a local bathlog store.
package main

import "github.com/okian/bathlog/internal/cli"

func main() {
	cli.Execute()
}
