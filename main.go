/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/workoai/referrals/cmd"

func main() {
	cmd.Execute()
}
