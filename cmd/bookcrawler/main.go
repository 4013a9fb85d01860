package main

import "github.com/JakeFAU/bookcatalog-crawler/cmd"

func main() {
	cmd.Execute()
}
