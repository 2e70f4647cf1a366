/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/stanondieki/Infera-AI-sub003/cmd"

func main() {
	cmd.Execute()
}
