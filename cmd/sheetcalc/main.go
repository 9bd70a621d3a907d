// Command sheetcalc drives a spreadsheet from a line-oriented script.
package main

func main() {
	Execute()
}
